package board

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yukikurage/standup-board/internal/dto"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
	"github.com/yukikurage/standup-board/internal/models"
)

var testToday = models.NewDate(2024, time.May, 1)

func testClock() time.Time {
	return time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC)
}

// fakeAPI is an in-memory collaborator.
type fakeAPI struct {
	mu       sync.Mutex
	today    models.Date
	pageSize int
	projects []dto.ProjectDTO
	users    map[uint64][]dto.UserDTO
	tasks    map[uint64]dto.TaskDTO
	logs     map[uint64]dto.TimeLogDTO
	nextID   uint64
	calls    map[string]int

	// Errors returned by the next calls of the named method.
	failures map[string]error
	// placed overrides the task the collaborator reports after a placement.
	placed func(dto.TaskDTO) dto.TaskDTO
	// gate, when set, holds mutating task calls until it is closed or the
	// request context ends.
	gate chan struct{}
	// onList runs before ListTasks answers, outside the lock.
	onList func(dto.TaskQuery)
	// noTaskInAck drops the task from placement acks.
	noTaskInAck bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		today:    testToday,
		pageSize: 10,
		users:    make(map[uint64][]dto.UserDTO),
		tasks:    make(map[uint64]dto.TaskDTO),
		logs:     make(map[uint64]dto.TimeLogDTO),
		nextID:   1000,
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
}

// seedScenario creates project 1 with users 7 and 8 and task 42 owned by 7.
func seedScenario() *fakeAPI {
	f := newFakeAPI()
	f.projects = []dto.ProjectDTO{{ID: 1, Name: "Standup"}, {ID: 2, Name: "Other"}}
	f.users[1] = []dto.UserDTO{{ID: 7, Username: "alice"}, {ID: 8, Username: "bob"}}
	f.users[2] = []dto.UserDTO{{ID: 7, Username: "alice"}}
	f.tasks[42] = dto.TaskDTO{ID: 42, Title: "Write runbook", Status: models.TaskStatusTodo, UserID: 7, ProjectID: 1}
	f.tasks[43] = dto.TaskDTO{ID: 43, Title: "Review PR", Status: models.TaskStatusTodo, UserID: 8, ProjectID: 1}
	f.tasks[50] = dto.TaskDTO{ID: 50, Title: "Other project task", Status: models.TaskStatusTodo, UserID: 7, ProjectID: 2}
	return f
}

func (f *fakeAPI) addTask(t dto.TaskDTO) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.ID] = t
}

func (f *fakeAPI) addLog(e dto.TimeLogDTO) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs[e.ID] = e
}

func (f *fakeAPI) failNext(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = err
}

func (f *fakeAPI) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeAPI) task(id uint64) dto.TaskDTO {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[id]
}

// enter records a call and returns a planned failure.
func (f *fakeAPI) enter(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if err, ok := f.failures[method]; ok {
		delete(f.failures, method)
		return err
	}
	return nil
}

func (f *fakeAPI) wait(ctx context.Context, method, path string) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return &apierrors.NetworkError{Method: http.MethodPost, Path: path, Timeout: true, Err: ctx.Err()}
	}
}

func notFound(path string) error {
	return &apierrors.NetworkError{Method: http.MethodGet, Path: path, Status: http.StatusNotFound}
}

func (f *fakeAPI) ListProjects(ctx context.Context) ([]dto.ProjectDTO, error) {
	if err := f.enter("ListProjects"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.ProjectDTO(nil), f.projects...), nil
}

func (f *fakeAPI) ListUsers(ctx context.Context, projectID uint64) ([]dto.UserDTO, error) {
	if err := f.enter("ListUsers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.UserDTO(nil), f.users[projectID]...), nil
}

func (f *fakeAPI) ListTasks(ctx context.Context, projectID uint64, q dto.TaskQuery) (*dto.TaskPageDTO, error) {
	if err := f.enter("ListTasks"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	hook := f.onList
	f.mu.Unlock()
	if hook != nil {
		hook(q)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []dto.TaskDTO
	for _, t := range f.sortedTasks() {
		if t.ProjectID != projectID {
			continue
		}
		if q.UserID != 0 && t.UserID != q.UserID {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(q.Search)) {
			continue
		}
		matched = append(matched, t)
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	totalPages := (len(matched) + f.pageSize - 1) / f.pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		return nil, notFound("/project/tasks")
	}
	start := (page - 1) * f.pageSize
	end := start + f.pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return &dto.TaskPageDTO{
		Tasks:       append([]dto.TaskDTO{}, matched[start:end]...),
		CurrentPage: page,
		TotalPages:  totalPages,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}, nil
}

func (f *fakeAPI) sortedTasks() []dto.TaskDTO {
	out := make([]dto.TaskDTO, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeAPI) sortedLogs(keep func(dto.TimeLogDTO) bool) []dto.TimeLogDTO {
	out := []dto.TimeLogDTO{}
	for _, e := range f.logs {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeAPI) ListProjectLogs(ctx context.Context, projectID uint64, day dto.LogDay) ([]dto.TimeLogDTO, error) {
	if err := f.enter("ListProjectLogs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	date := f.today
	if day == dto.LogDayYesterday {
		date = f.today.AddDays(-1)
	}
	return f.sortedLogs(func(e dto.TimeLogDTO) bool {
		return f.tasks[e.TaskID].ProjectID == projectID && e.TaskDate == date
	}), nil
}

func (f *fakeAPI) ListBlockers(ctx context.Context, projectID uint64) ([]dto.TaskDTO, error) {
	if err := f.enter("ListBlockers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dto.TaskDTO
	for _, t := range f.sortedTasks() {
		if t.ProjectID == projectID && t.Status == models.TaskStatusBlocker {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeAPI) ListTaskLogs(ctx context.Context, taskID uint64) ([]dto.TimeLogDTO, error) {
	if err := f.enter("ListTaskLogs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedLogs(func(e dto.TimeLogDTO) bool { return e.TaskID == taskID }), nil
}

func (f *fakeAPI) TotalTime(ctx context.Context, taskID uint64) (float64, error) {
	if err := f.enter("TotalTime"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return sumHours(f.sortedLogs(func(e dto.TimeLogDTO) bool { return e.TaskID == taskID })), nil
}

func (f *fakeAPI) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (*dto.TaskDTO, error) {
	if err := f.enter("CreateTask"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := dto.TaskDTO{ID: f.nextID, Title: req.Title, Status: models.TaskStatusTodo, UserID: req.User, ProjectID: req.Project}
	if req.EstimationTime != nil {
		t.EstimationTime = *req.EstimationTime
	}
	f.tasks[t.ID] = t
	return &t, nil
}

func (f *fakeAPI) UpdateTask(ctx context.Context, taskID uint64, req dto.UpdateTaskRequest) (*dto.TaskDTO, error) {
	if err := f.enter("UpdateTask"); err != nil {
		return nil, err
	}
	if err := f.wait(ctx, "UpdateTask", "/task/update"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return nil, notFound("/task/update")
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.ClearTaskDate {
		t.TaskDate = nil
	} else if req.TaskDate != nil {
		t.TaskDate = req.TaskDate.Ptr()
	}
	if req.EstimationTime != nil {
		t.EstimationTime = *req.EstimationTime
	}
	if req.Project != nil {
		t.ProjectID = *req.Project
	}
	if f.placed != nil {
		t = f.placed(t)
	}
	f.tasks[taskID] = t
	return &t, nil
}

func (f *fakeAPI) DeleteTask(ctx context.Context, taskID uint64) error {
	if err := f.enter("DeleteTask"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[taskID]; !ok {
		return notFound("/task/delete")
	}
	delete(f.tasks, taskID)
	for id, e := range f.logs {
		if e.TaskID == taskID {
			delete(f.logs, id)
		}
	}
	return nil
}

func (f *fakeAPI) CreateLog(ctx context.Context, req dto.CreateLogRequest) (*dto.TimeLogDTO, error) {
	if err := f.enter("CreateLog"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[req.TodoItem]
	if !ok {
		return nil, notFound("/log/create")
	}
	f.nextID++
	e := dto.TimeLogDTO{ID: f.nextID, TaskID: req.TodoItem, LogTime: req.LogTime, Notes: req.Notes, UserID: t.UserID}
	if req.TaskDate != nil {
		e.TaskDate = *req.TaskDate
	}
	f.logs[e.ID] = e
	return &e, nil
}

func (f *fakeAPI) UpdateLog(ctx context.Context, logID uint64, req dto.UpdateLogRequest) (*dto.UpdateLogResponse, error) {
	if err := f.enter("UpdateLog"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.logs[logID]
	if !ok {
		return nil, notFound("/log/update")
	}
	e.LogTime = req.LogTime
	e.Notes = req.Notes
	if req.TaskDate != nil {
		e.TaskDate = *req.TaskDate
	}
	f.logs[logID] = e
	return &dto.UpdateLogResponse{Success: true}, nil
}

func (f *fakeAPI) DeleteLog(ctx context.Context, logID uint64) error {
	if err := f.enter("DeleteLog"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.logs[logID]; !ok {
		return notFound("/log/delete")
	}
	delete(f.logs, logID)
	return nil
}

func (f *fakeAPI) UpdatePlacement(ctx context.Context, req dto.PlacementRequest) (*dto.PlacementAck, error) {
	if err := f.enter("UpdatePlacement"); err != nil {
		return nil, err
	}
	if err := f.wait(ctx, "UpdatePlacement", "/placement/update"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[req.TaskID]
	if !ok {
		return nil, notFound("/placement/update")
	}
	t.TaskDate = nil
	if req.Date != nil {
		t.TaskDate = req.Date.Ptr()
	}
	if f.placed != nil {
		t = f.placed(t)
	}
	f.tasks[req.TaskID] = t
	if f.noTaskInAck {
		return &dto.PlacementAck{Success: true}, nil
	}
	ack := t
	return &dto.PlacementAck{Success: true, Task: &ack}, nil
}
