package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"

	"github.com/yukikurage/standup-board/internal/constants"
	"github.com/yukikurage/standup-board/internal/dto"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
	"github.com/yukikurage/standup-board/internal/models"
)

// PlaceRequest is one logical move of a task.
type PlaceRequest struct {
	// MoveID identifies the move; repeated signals with the same id are
	// collapsed. Empty means a fresh id.
	MoveID string
	TaskID uint64
	Target Bucket
	// Date is the viewer date the target is relative to. Zero means the
	// date frozen at board load.
	Date models.Date
	// RowUserID is the owner of the row the task is dropped into. Zero
	// means the task owner's row.
	RowUserID uint64
}

// PlaceResult is the outcome of a placement
type PlaceResult struct {
	Task dto.TaskDTO
	From Bucket
	// Bucket is where the collaborator actually put the task.
	Bucket    Bucket
	NoOp      bool
	Duplicate bool
}

// TaskPatch is a modal edit. Nil fields are left alone.
type TaskPatch struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	TaskDate       *models.Date
	ClearTaskDate  bool
	EstimationTime *float64
	ProjectID      *uint64
}

// Engine is the only writer of task records. Every change goes out as a
// single request, is applied to the store optimistically and is rolled
// back when the request fails.
type Engine struct {
	api     API
	store   *Store
	guard   *Guard
	actorID uint64
	moves   *moveLog
	logger  *log.Logger
}

// NewEngine creates a new Engine acting as actorID
func NewEngine(api API, store *Store, guard *Guard, actorID uint64, logger *log.Logger) *Engine {
	if guard == nil {
		guard = NewGuard()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Engine{
		api:     api,
		store:   store,
		guard:   guard,
		actorID: actorID,
		moves:   newMoveLog(constants.MaxRememberedMoves),
		logger:  logger,
	}
}

// ActorID returns the acting user
func (e *Engine) ActorID() uint64 {
	return e.actorID
}

// Place moves a task into req.Target. When the collaborator puts the task
// somewhere else, the result describes the adopted placement and the error
// is a *ConflictError.
func (e *Engine) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	if req.MoveID == "" {
		req.MoveID = NewMoveID()
	}
	rec, first := e.moves.claim(req.MoveID)
	if !first {
		e.logger.Printf("move %s for task %d already handled", req.MoveID, req.TaskID)
		return e.moves.wait(ctx, rec)
	}
	res, err := e.place(ctx, req)
	e.moves.finish(rec, res, err)
	return res, err
}

func (e *Engine) place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	if _, ok := bucketNames[req.Target]; !ok {
		return nil, apierrors.NewValidationError("target", fmt.Sprintf("unknown bucket %d", int(req.Target)))
	}
	snap := e.store.Snapshot()
	if !snap.Loaded() {
		return nil, apierrors.ErrNoProject
	}
	task, ok := snap.Task(req.TaskID)
	if !ok {
		return nil, fmt.Errorf("failed to place task %d: %w", req.TaskID, apierrors.ErrTaskNotFound)
	}
	if err := e.checkRow(task, req); err != nil {
		return nil, err
	}

	day := req.Date
	if day.IsZero() {
		day = snap.ViewerToday
	}
	desired := applyTarget(task, req.Target, day, snap.Mode)
	if sameTask(task, desired) {
		from := snap.Bucket(task)
		return &PlaceResult{Task: task, From: from, Bucket: from, NoOp: true}, nil
	}

	release, err := e.guard.Acquire(task.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the guard; a load may have replaced the task meanwhile.
	snap = e.store.Snapshot()
	if task, ok = snap.Task(req.TaskID); !ok {
		return nil, fmt.Errorf("failed to place task %d: %w", req.TaskID, apierrors.ErrTaskNotFound)
	}
	desired = applyTarget(task, req.Target, day, snap.Mode)
	from := snap.Bucket(task)
	if sameTask(task, desired) {
		return &PlaceResult{Task: task, From: from, Bucket: from, NoOp: true}, nil
	}
	expected := snap.Bucket(desired)

	if !e.store.ReplaceTaskIf(task, desired) {
		return nil, fmt.Errorf("failed to place task %d: board was reloaded", task.ID)
	}
	server, err := e.send(ctx, task, desired)
	if err != nil {
		if !e.store.ReplaceTaskIf(desired, task) {
			e.logger.Printf("task %d changed during failed move %s, not restoring", task.ID, req.MoveID)
		}
		return nil, fmt.Errorf("failed to place task %d in %s: %w", task.ID, req.Target, err)
	}

	if !e.store.ReplaceTaskIf(desired, server) {
		e.store.AdoptTask(server)
	}
	actual := e.store.Snapshot().Bucket(server)
	res := &PlaceResult{Task: server, From: from, Bucket: actual}
	if actual != expected {
		e.logger.Printf("task %d requested %s, collaborator placed it in %s", task.ID, expected, actual)
		return res, &apierrors.ConflictError{TaskID: task.ID, Requested: expected.String(), Actual: actual.String()}
	}
	return res, nil
}

// checkRow enforces that dated rows only take the actor's own tasks.
func (e *Engine) checkRow(task dto.TaskDTO, req PlaceRequest) error {
	if !req.Target.IsDay() {
		return nil
	}
	row := req.RowUserID
	if row == 0 {
		row = task.UserID
	}
	if e.actorID != row || row != task.UserID {
		owner := row
		if row == e.actorID {
			owner = task.UserID
		}
		return &apierrors.AuthorizationError{ActorID: e.actorID, OwnerID: owner, TaskID: task.ID}
	}
	return nil
}

// applyTarget computes the task a placement would produce.
func applyTarget(task dto.TaskDTO, target Bucket, day models.Date, mode Mode) dto.TaskDTO {
	next := cloneTask(task)
	switch target {
	case BucketToday:
		next.TaskDate = day.Ptr()
	case BucketYesterday:
		next.TaskDate = day.AddDays(-1).Ptr()
	case BucketPool:
		next.TaskDate = nil
	case BucketCancel:
		next.TaskDate = nil
		if next.Status == models.TaskStatusBlocker {
			next.Status = models.TaskStatusTodo
		}
		return next
	default:
		if status, ok := target.Status(); ok {
			next.Status = status
		}
		return next
	}
	// On the standup board blockers have their own column, so a dated or
	// pool drop takes the task out of it.
	if mode == ModeStandup && next.Status == models.TaskStatusBlocker {
		next.Status = models.TaskStatusTodo
	}
	return next
}

// send issues the single request for a move. Date-only moves use the
// placement endpoint; anything touching status goes through task update.
func (e *Engine) send(ctx context.Context, before, after dto.TaskDTO) (dto.TaskDTO, error) {
	if before.Status == after.Status {
		ack, err := e.api.UpdatePlacement(ctx, dto.PlacementRequest{TaskID: after.ID, Date: after.TaskDate})
		if err != nil {
			return dto.TaskDTO{}, err
		}
		if ack != nil && ack.Task != nil && ack.Task.ID == after.ID {
			return *ack.Task, nil
		}
		return after, nil
	}

	req := dto.UpdateTaskRequest{Status: &after.Status}
	if !models.SameDate(before.TaskDate, after.TaskDate) {
		if after.TaskDate == nil {
			req.ClearTaskDate = true
		} else {
			req.TaskDate = after.TaskDate
		}
	}
	return e.update(ctx, after, req)
}

func (e *Engine) update(ctx context.Context, after dto.TaskDTO, req dto.UpdateTaskRequest) (dto.TaskDTO, error) {
	server, err := e.api.UpdateTask(ctx, after.ID, req)
	if err != nil {
		return dto.TaskDTO{}, err
	}
	if server != nil && server.ID == after.ID {
		return *server, nil
	}
	return after, nil
}

// Edit applies a modal edit to a task.
func (e *Engine) Edit(ctx context.Context, taskID uint64, patch TaskPatch) (*dto.TaskDTO, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	snap := e.store.Snapshot()
	if !snap.Loaded() {
		return nil, apierrors.ErrNoProject
	}
	release, err := e.guard.Acquire(taskID)
	if err != nil {
		return nil, err
	}
	defer release()

	task, ok := e.store.Snapshot().Task(taskID)
	if !ok {
		return nil, fmt.Errorf("failed to edit task %d: %w", taskID, apierrors.ErrTaskNotFound)
	}
	desired, req := patch.apply(task)
	if req.Empty() {
		return &task, nil
	}

	if !e.store.ReplaceTaskIf(task, desired) {
		return nil, fmt.Errorf("failed to edit task %d: board was reloaded", taskID)
	}
	server, err := e.update(ctx, desired, req)
	if err != nil {
		e.store.ReplaceTaskIf(desired, task)
		return nil, fmt.Errorf("failed to edit task %d: %w", taskID, err)
	}
	if !e.store.ReplaceTaskIf(desired, server) || server.ProjectID != snap.ProjectID {
		e.store.AdoptTask(server)
	}
	return &server, nil
}

func (p TaskPatch) validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return apierrors.NewValidationError("title", "title is required")
	}
	if p.Status != nil && !p.Status.Valid() {
		return apierrors.NewValidationError("status", fmt.Sprintf("unknown status %q", *p.Status))
	}
	if p.EstimationTime != nil {
		if err := validateEstimation(*p.EstimationTime); err != nil {
			return err
		}
	}
	if p.ProjectID != nil && *p.ProjectID == 0 {
		return apierrors.NewValidationError("project", "project is required")
	}
	return nil
}

// apply returns the edited task and the request carrying only what changed.
func (p TaskPatch) apply(task dto.TaskDTO) (dto.TaskDTO, dto.UpdateTaskRequest) {
	next := cloneTask(task)
	var req dto.UpdateTaskRequest
	if p.Title != nil {
		if title := strings.TrimSpace(*p.Title); title != task.Title {
			next.Title = title
			req.Title = &next.Title
		}
	}
	if p.Description != nil && *p.Description != task.Description {
		next.Description = *p.Description
		req.Description = &next.Description
	}
	if p.Status != nil && *p.Status != task.Status {
		next.Status = *p.Status
		req.Status = &next.Status
	}
	switch {
	case p.ClearTaskDate:
		if task.TaskDate != nil {
			next.TaskDate = nil
			req.ClearTaskDate = true
		}
	case p.TaskDate != nil && !models.SameDate(p.TaskDate, task.TaskDate):
		next.TaskDate = p.TaskDate.Ptr()
		req.TaskDate = next.TaskDate
	}
	if p.EstimationTime != nil && *p.EstimationTime != task.EstimationTime {
		next.EstimationTime = *p.EstimationTime
		req.EstimationTime = &next.EstimationTime
	}
	if p.ProjectID != nil && *p.ProjectID != task.ProjectID {
		next.ProjectID = *p.ProjectID
		req.Project = &next.ProjectID
	}
	return next, req
}

func validateEstimation(hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		return apierrors.NewValidationError("estimation_time", "estimation must be zero or more hours")
	}
	return nil
}

// Create adds a task to the open project. ownerID zero means the actor.
func (e *Engine) Create(ctx context.Context, title string, ownerID uint64, estimation *float64) (*dto.TaskDTO, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierrors.NewValidationError("title", "title is required")
	}
	if estimation != nil {
		if err := validateEstimation(*estimation); err != nil {
			return nil, err
		}
	}
	snap := e.store.Snapshot()
	if !snap.Loaded() {
		return nil, apierrors.ErrNoProject
	}
	if ownerID == 0 {
		ownerID = e.actorID
	}

	task, err := e.api.CreateTask(ctx, dto.CreateTaskRequest{
		Title:          title,
		User:           ownerID,
		Project:        snap.ProjectID,
		EstimationTime: estimation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	if task.ProjectID == 0 {
		task.ProjectID = snap.ProjectID
	}
	if e.store.Snapshot().ProjectID == task.ProjectID {
		e.store.UpsertTask(*task)
	}
	return task, nil
}

// Delete removes a task and its logs.
func (e *Engine) Delete(ctx context.Context, taskID uint64) error {
	if !e.store.Snapshot().Loaded() {
		return apierrors.ErrNoProject
	}
	release, err := e.guard.Acquire(taskID)
	if err != nil {
		return err
	}
	defer release()

	if _, ok := e.store.Snapshot().Task(taskID); !ok {
		return fmt.Errorf("failed to delete task %d: %w", taskID, apierrors.ErrTaskNotFound)
	}
	if err := e.api.DeleteTask(ctx, taskID); err != nil {
		var netErr *apierrors.NetworkError
		if !errors.As(err, &netErr) || netErr.Status != http.StatusNotFound {
			return fmt.Errorf("failed to delete task %d: %w", taskID, err)
		}
		e.logger.Printf("task %d already gone on the collaborator", taskID)
	}
	e.store.RemoveTask(taskID)
	return nil
}
