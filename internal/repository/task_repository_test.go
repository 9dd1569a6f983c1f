package repository

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/standup-board/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestTaskRepository_DeleteCascadesLogsInTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "time_logs" WHERE task_id = $1`)).
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "tasks" SET "deleted_at"=$1 WHERE "tasks"."id" = $2`)).
		WithArgs(sqlmock.AnyArg(), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(42))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_DeleteRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "time_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "tasks" SET "deleted_at"`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	assert.Error(t, repo.Delete(42))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_ListFiltersAndPages(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)
	owner := uint64(8)

	// Scopes run when the statement executes, so the project clause comes last.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "tasks" WHERE LOWER(tasks.title) LIKE $1 AND tasks.user_id = $2 AND tasks.project_id = $3`)).
		WithArgs("%runbook%", owner, uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY tasks.id ASC LIMIT $4 OFFSET $5`)).
		WithArgs("%runbook%", owner, uint64(1), 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status", "user_id", "project_id"}).
			AddRow(43, "Runbook review", "todo", owner, 1))

	tasks, total, err := repo.List(TaskFilter{ProjectID: 1, Search: " Runbook ", UserID: &owner, Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Runbook review", tasks[0].Title)
	assert.Equal(t, models.TaskStatusTodo, tasks[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeLogRepository_SumByTaskOnDay(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimeLogRepository(db)
	day := models.NewDate(2024, time.May, 1)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(log_time), 0) FROM "time_logs" WHERE task_id = $1 AND task_date = $2`)).
		WithArgs(uint64(42), "2024-05-01").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(4.5))

	total, err := repo.SumByTask(42, &day)
	require.NoError(t, err)
	assert.Equal(t, 4.5, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
