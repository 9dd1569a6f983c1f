package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/yukikurage/standup-board/internal/errors"
)

func openSession(t *testing.T, api *fakeAPI, actor uint64, opts ...SessionOption) *Session {
	t.Helper()
	opts = append([]SessionOption{WithClock(testClock)}, opts...)
	s := NewSession(api, actor, opts...)
	require.NoError(t, s.Open(context.Background(), 1))
	return s
}

// Alice drags her task into today and logs time on it.
func TestSession_StandupScenario(t *testing.T) {
	api := seedScenario()
	s := openSession(t, api, 7)
	ctx := context.Background()

	today := Column{Bucket: BucketToday, UserID: 7}
	res, err := s.Drop(ctx, Gesture{TaskID: 42, From: CatalogColumn, To: today})
	require.NoError(t, err)
	assert.Equal(t, BucketToday, res.Bucket)
	require.NotNil(t, res.Task.TaskDate)
	assert.Equal(t, "2024-05-01", res.Task.TaskDate.String())

	_, err = s.LogTime(ctx, 42, 3, "drafted outline", nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.Total(42))

	entry, err := s.LogTime(ctx, 42, 1.5, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 4.5, s.Total(42))
	assert.Equal(t, testToday, entry.TaskDate)

	cards := s.Layout().Cards(today)
	require.Len(t, cards, 1)
	assert.Equal(t, 4.5, cards[0].Hours)
}

func TestSession_ClosedSessionRefusesWork(t *testing.T) {
	s := NewSession(seedScenario(), 7, WithClock(testClock))

	_, err := s.Place(context.Background(), PlaceRequest{TaskID: 42, Target: BucketToday})
	assert.True(t, errors.Is(err, apierrors.ErrNoProject))
	_, err = s.LogTime(context.Background(), 42, 1, "", nil)
	assert.True(t, errors.Is(err, apierrors.ErrNoProject))
	_, err = s.Search(context.Background(), "runbook")
	assert.True(t, errors.Is(err, apierrors.ErrNoProject))
}

func TestSession_SwitchTearsDown(t *testing.T) {
	api := seedScenario()
	s := openSession(t, api, 7)

	_, err := s.Search(context.Background(), "write")
	require.NoError(t, err)

	require.NoError(t, s.Switch(context.Background(), 2))
	assert.Equal(t, uint64(2), s.ProjectID())
	_, ok := s.Snapshot().Task(42)
	assert.False(t, ok)
	_, ok = s.Snapshot().Task(50)
	assert.True(t, ok)

	state := s.Catalog().State()
	assert.Equal(t, uint64(2), state.ProjectID)
	assert.Empty(t, state.Query)
	assert.Equal(t, []uint64{50}, ids(s.Layout().Cards(CatalogColumn)))
}

func TestSession_CloseCancelsInFlight(t *testing.T) {
	api := seedScenario()
	api.gate = make(chan struct{})
	defer close(api.gate)
	s := openSession(t, api, 7)

	done := make(chan error, 1)
	go func() {
		_, err := s.Place(context.Background(), PlaceRequest{TaskID: 42, Target: BucketToday})
		done <- err
	}()
	require.Eventually(t, func() bool { return api.callCount("UpdatePlacement") == 1 }, time.Second, time.Millisecond)
	assert.True(t, s.Busy(42))

	s.Close()
	select {
	case err := <-done:
		assert.True(t, apierrors.IsNetwork(err))
	case <-time.After(time.Second):
		t.Fatal("in-flight placement was not cancelled")
	}
	assert.False(t, s.Snapshot().Loaded())
	assert.False(t, s.Busy(42))
}

func TestSession_FailedOpenLeavesSessionClosed(t *testing.T) {
	api := seedScenario()
	api.failNext("ListUsers", &apierrors.NetworkError{Status: 503})
	s := NewSession(api, 7, WithClock(testClock))

	require.Error(t, s.Open(context.Background(), 1))
	assert.Equal(t, uint64(0), s.ProjectID())
	_, err := s.Place(context.Background(), PlaceRequest{TaskID: 42, Target: BucketToday})
	assert.True(t, errors.Is(err, apierrors.ErrNoProject))
}

func TestSession_KanbanMode(t *testing.T) {
	s := openSession(t, seedScenario(), 7, WithMode(ModeKanban))

	res, err := s.Place(context.Background(), PlaceRequest{TaskID: 42, Target: BucketStatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, BucketStatusInProgress, res.Bucket)
	assert.Equal(t, []uint64{42}, ids(s.Layout().Cards(Column{Bucket: BucketStatusInProgress})))
}

func TestSession_CreateAndDeleteRefreshCatalog(t *testing.T) {
	s := openSession(t, seedScenario(), 7)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, "Plan sprint", 0, nil)
	require.NoError(t, err)
	assert.Contains(t, ids(s.Layout().Cards(CatalogColumn)), task.ID)

	require.NoError(t, s.DeleteTask(ctx, task.ID))
	assert.NotContains(t, ids(s.Layout().Cards(CatalogColumn)), task.ID)
}

func TestSession_Reload(t *testing.T) {
	api := seedScenario()
	s := openSession(t, api, 7)

	other := api.task(43)
	other.TaskDate = testToday.Ptr()
	api.addTask(other)

	require.NoError(t, s.Reload(context.Background()))
	assert.Equal(t, []uint64{43}, ids(s.Layout().Cards(Column{Bucket: BucketToday, UserID: 8})))
}
