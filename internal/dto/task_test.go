package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/standup-board/internal/models"
)

func TestUpdateTaskRequest_SendsOnlySetFields(t *testing.T) {
	status := models.TaskStatusDone
	out, err := json.Marshal(UpdateTaskRequest{Status: &status})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"done"}`, string(out))

	out, err = json.Marshal(UpdateTaskRequest{ClearTaskDate: true, TaskDate: models.NewDate(2024, time.May, 1).Ptr()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_date":null}`, string(out))
}

func TestUpdateTaskRequest_DistinguishesNullFromAbsent(t *testing.T) {
	var absent UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Write runbook"}`), &absent))
	require.NotNil(t, absent.Title)
	assert.Equal(t, "Write runbook", *absent.Title)
	assert.False(t, absent.ClearTaskDate)
	assert.Nil(t, absent.TaskDate)

	var cleared UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"task_date":null}`), &cleared))
	assert.True(t, cleared.ClearTaskDate)

	var dated UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"task_date":"2024-05-01","project":3}`), &dated))
	require.NotNil(t, dated.TaskDate)
	assert.Equal(t, "2024-05-01", dated.TaskDate.String())
	require.NotNil(t, dated.Project)
	assert.Equal(t, uint64(3), *dated.Project)

	var bad UpdateTaskRequest
	assert.Error(t, json.Unmarshal([]byte(`{"estimation_time":"lots"}`), &bad))
}

func TestToTaskPageDTO(t *testing.T) {
	tasks := []models.Task{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}

	page := ToTaskPageDTO(tasks, 1, 10, 12)
	assert.Equal(t, 2, page.TotalPages)
	assert.False(t, page.HasPrevious)
	assert.True(t, page.HasNext)

	past := ToTaskPageDTO(nil, 5, 10, 12)
	assert.Empty(t, past.Tasks)
	assert.False(t, past.HasNext)
	assert.True(t, past.HasPrevious)

	empty := ToTaskPageDTO(nil, 1, 10, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
}
