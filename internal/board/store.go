package board

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yukikurage/standup-board/internal/constants"
	"github.com/yukikurage/standup-board/internal/dto"
	"github.com/yukikurage/standup-board/internal/models"
)

// Snapshot is an immutable view of the board. Stores never modify a
// snapshot once published; mutations publish a new one.
type Snapshot struct {
	ProjectID   uint64
	Mode        Mode
	ViewerToday models.Date
	LoadedAt    time.Time

	users []dto.UserDTO
	tasks map[uint64]dto.TaskDTO
	logs  map[uint64][]dto.TimeLogDTO
}

var emptySnapshot = &Snapshot{
	tasks: map[uint64]dto.TaskDTO{},
	logs:  map[uint64][]dto.TimeLogDTO{},
}

// Loaded reports whether a project has been loaded.
func (s *Snapshot) Loaded() bool {
	return s.ProjectID != 0
}

// Users returns the project members
func (s *Snapshot) Users() []dto.UserDTO {
	return append([]dto.UserDTO(nil), s.users...)
}

func (s *Snapshot) User(id uint64) (dto.UserDTO, bool) {
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return dto.UserDTO{}, false
}

// Task returns a copy of a task
func (s *Snapshot) Task(id uint64) (dto.TaskDTO, bool) {
	t, ok := s.tasks[id]
	return cloneTask(t), ok
}

// Tasks returns every task ordered by id.
func (s *Snapshot) Tasks() []dto.TaskDTO {
	out := make([]dto.TaskDTO, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Bucket derives the task's bucket against the frozen viewer date.
func (s *Snapshot) Bucket(t dto.TaskDTO) Bucket {
	return BucketOf(t.Status, t.TaskDate, s.ViewerToday, s.Mode)
}

// TasksIn lists the tasks of one bucket. A non-zero userID restricts the
// list to that owner's row.
func (s *Snapshot) TasksIn(b Bucket, userID uint64) []dto.TaskDTO {
	var out []dto.TaskDTO
	for _, t := range s.Tasks() {
		if userID != 0 && t.UserID != userID {
			continue
		}
		if s.Bucket(t) == b {
			out = append(out, t)
		}
	}
	return out
}

// Logs returns the stored log entries of a task
func (s *Snapshot) Logs(taskID uint64) []dto.TimeLogDTO {
	return append([]dto.TimeLogDTO(nil), s.logs[taskID]...)
}

// Log finds a log entry by id
func (s *Snapshot) Log(logID uint64) (dto.TimeLogDTO, bool) {
	for _, entries := range s.logs {
		for _, e := range entries {
			if e.ID == logID {
				return e, true
			}
		}
	}
	return dto.TimeLogDTO{}, false
}

// Total sums the stored logs of a task.
func (s *Snapshot) Total(taskID uint64) float64 {
	return sumHours(s.logs[taskID])
}

// DayTotal sums the hours a user logged on a date across the board.
func (s *Snapshot) DayTotal(userID uint64, day models.Date) float64 {
	var entries []dto.TimeLogDTO
	for taskID, list := range s.logs {
		owner := uint64(0)
		if t, ok := s.tasks[taskID]; ok {
			owner = t.UserID
		}
		for _, e := range list {
			if e.TaskDate != day {
				continue
			}
			if owner == userID || (owner == 0 && e.UserID == userID) {
				entries = append(entries, e)
			}
		}
	}
	return sumHours(entries)
}

func (s *Snapshot) clone() *Snapshot {
	next := *s
	next.users = append([]dto.UserDTO(nil), s.users...)
	next.tasks = make(map[uint64]dto.TaskDTO, len(s.tasks))
	for id, t := range s.tasks {
		next.tasks[id] = t
	}
	next.logs = make(map[uint64][]dto.TimeLogDTO, len(s.logs))
	for id, entries := range s.logs {
		next.logs[id] = entries
	}
	return &next
}

// Store holds the board state for the selected project. Readers load the
// current snapshot without locking; writers are serialized and publish a
// complete new snapshot, so a half-applied mutation is never visible.
type Store struct {
	api   API
	clock func() time.Time

	mu  sync.Mutex
	cur atomic.Pointer[Snapshot]
}

// NewStore creates an empty Store
func NewStore(api API, clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	s := &Store{api: api, clock: clock}
	s.cur.Store(emptySnapshot)
	return s
}

// Snapshot returns the current snapshot
func (s *Store) Snapshot() *Snapshot {
	return s.cur.Load()
}

func (s *Store) ViewerToday() models.Date {
	return s.Snapshot().ViewerToday
}

func (s *Store) Bucket(t dto.TaskDTO) Bucket {
	return s.Snapshot().Bucket(t)
}

// Load fetches users, every catalog page, the blockers and today's and
// yesterday's logs of a project, then the full log list of every task on
// the board, and replaces the state in one swap. On error the previous
// state is kept.
func (s *Store) Load(ctx context.Context, projectID uint64, mode Mode) error {
	if projectID == 0 {
		return fmt.Errorf("failed to load board: project id is required")
	}
	viewerToday := models.DateOf(s.clock())

	var (
		users     []dto.UserDTO
		tasks     []dto.TaskDTO
		todayLogs []dto.TimeLogDTO
		yestLogs  []dto.TimeLogDTO
		blockers  []dto.TaskDTO
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.api.ListUsers(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.loadAllTasks(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		todayLogs, err = s.api.ListProjectLogs(gctx, projectID, dto.LogDayToday)
		return err
	})
	g.Go(func() error {
		var err error
		yestLogs, err = s.api.ListProjectLogs(gctx, projectID, dto.LogDayYesterday)
		return err
	})
	g.Go(func() error {
		var err error
		blockers, err = s.api.ListBlockers(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load project %d: %w", projectID, err)
	}

	next := &Snapshot{
		ProjectID:   projectID,
		Mode:        mode,
		ViewerToday: viewerToday,
		LoadedAt:    s.clock(),
		users:       users,
		tasks:       make(map[uint64]dto.TaskDTO, len(tasks)+len(blockers)),
		logs:        make(map[uint64][]dto.TimeLogDTO),
	}
	for _, t := range tasks {
		next.tasks[t.ID] = cloneTask(t)
	}
	for _, t := range blockers {
		next.tasks[t.ID] = cloneTask(t)
	}

	full, err := s.loadTaskLogs(ctx, next.tasks)
	if err != nil {
		return fmt.Errorf("failed to load project %d: %w", projectID, err)
	}
	for taskID, entries := range full {
		next.logs[taskID] = entries
	}
	// Day logs of tasks beyond the walked catalog pages.
	seen := make(map[uint64]struct{})
	for _, e := range append(todayLogs, yestLogs...) {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		if _, ok := full[e.TaskID]; ok {
			continue
		}
		next.logs[e.TaskID] = append(next.logs[e.TaskID], e)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to load project %d: %w", projectID, err)
	}

	s.mu.Lock()
	s.cur.Store(next)
	s.mu.Unlock()
	return nil
}

// loadTaskLogs reads the complete log list of every task.
func (s *Store) loadTaskLogs(ctx context.Context, tasks map[uint64]dto.TaskDTO) (map[uint64][]dto.TimeLogDTO, error) {
	var mu sync.Mutex
	out := make(map[uint64][]dto.TimeLogDTO, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.LoadConcurrency)
	for id := range tasks {
		id := id
		g.Go(func() error {
			entries, err := s.api.ListTaskLogs(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to load logs of task %d: %w", id, err)
			}
			mu.Lock()
			out[id] = entries
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) loadAllTasks(ctx context.Context, projectID uint64) ([]dto.TaskDTO, error) {
	var tasks []dto.TaskDTO
	for page := constants.MinPage; page <= constants.MaxLoadPages; page++ {
		resp, err := s.api.ListTasks(ctx, projectID, dto.TaskQuery{Page: page})
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, resp.Tasks...)
		if !resp.HasNext {
			break
		}
	}
	return tasks, nil
}

// mutate applies fn to a private copy of the current snapshot and publishes it.
func (s *Store) mutate(fn func(next *Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur.Load().clone()
	fn(next)
	s.cur.Store(next)
}

// UpsertTask adds or replaces a task
func (s *Store) UpsertTask(t dto.TaskDTO) {
	s.mutate(func(next *Snapshot) {
		next.tasks[t.ID] = cloneTask(t)
	})
}

// ReplaceTaskIf swaps in next only while the stored task still equals
// expected. It reports whether the swap happened.
func (s *Store) ReplaceTaskIf(expected, next dto.TaskDTO) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur.Load()
	stored, ok := cur.tasks[expected.ID]
	if !ok || !sameTask(stored, expected) {
		return false
	}
	snap := cur.clone()
	snap.tasks[next.ID] = cloneTask(next)
	s.cur.Store(snap)
	return true
}

// AdoptTask folds in a collaborator copy of a task already on the board. A
// task that moved to another project leaves the board. It reports whether
// the board still shows the task.
func (s *Store) AdoptTask(t dto.TaskDTO) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur.Load()
	if _, ok := cur.tasks[t.ID]; !ok {
		return false
	}
	next := cur.clone()
	if t.ProjectID != 0 && t.ProjectID != cur.ProjectID {
		delete(next.tasks, t.ID)
		delete(next.logs, t.ID)
		s.cur.Store(next)
		return false
	}
	next.tasks[t.ID] = cloneTask(t)
	s.cur.Store(next)
	return true
}

// RemoveTask drops a task together with its logs.
func (s *Store) RemoveTask(id uint64) {
	s.mutate(func(next *Snapshot) {
		delete(next.tasks, id)
		delete(next.logs, id)
	})
}

// UpsertLog adds or replaces a log entry
func (s *Store) UpsertLog(entry dto.TimeLogDTO) {
	s.mutate(func(next *Snapshot) {
		entries := make([]dto.TimeLogDTO, 0, len(next.logs[entry.TaskID])+1)
		replaced := false
		for _, e := range next.logs[entry.TaskID] {
			if e.ID == entry.ID {
				entries = append(entries, entry)
				replaced = true
				continue
			}
			entries = append(entries, e)
		}
		if !replaced {
			entries = append(entries, entry)
		}
		next.logs[entry.TaskID] = entries
	})
}

// RemoveLog drops a log entry
func (s *Store) RemoveLog(logID uint64) {
	s.mutate(func(next *Snapshot) {
		for taskID, list := range next.logs {
			entries := make([]dto.TimeLogDTO, 0, len(list))
			for _, e := range list {
				if e.ID != logID {
					entries = append(entries, e)
				}
			}
			if len(entries) != len(list) {
				next.logs[taskID] = entries
			}
		}
	})
}

// ReplaceLogs installs the complete log list of a task.
func (s *Store) ReplaceLogs(taskID uint64, entries []dto.TimeLogDTO) {
	s.mutate(func(next *Snapshot) {
		next.logs[taskID] = append([]dto.TimeLogDTO(nil), entries...)
	})
}

// ReplaceLogSets installs the complete log lists of several tasks at once.
// Tasks no longer on the board are skipped.
func (s *Store) ReplaceLogSets(sets map[uint64][]dto.TimeLogDTO) {
	s.mutate(func(next *Snapshot) {
		for taskID, entries := range sets {
			if _, ok := next.tasks[taskID]; !ok {
				continue
			}
			next.logs[taskID] = append([]dto.TimeLogDTO(nil), entries...)
		}
	})
}

// Reset forgets the loaded project.
func (s *Store) Reset() {
	s.mu.Lock()
	s.cur.Store(emptySnapshot)
	s.mu.Unlock()
}

func cloneTask(t dto.TaskDTO) dto.TaskDTO {
	if t.TaskDate != nil {
		d := *t.TaskDate
		t.TaskDate = &d
	}
	return t
}

func sameTask(a, b dto.TaskDTO) bool {
	return a.ID == b.ID && a.Title == b.Title && a.Description == b.Description &&
		a.Status == b.Status && a.EstimationTime == b.EstimationTime &&
		models.SameDate(a.TaskDate, b.TaskDate) && a.UserID == b.UserID && a.ProjectID == b.ProjectID
}

// sumHours adds the entries from scratch and rounds away float noise.
func sumHours(entries []dto.TimeLogDTO) float64 {
	var total float64
	for _, e := range entries {
		total += e.LogTime
	}
	return math.Round(total*1e6) / 1e6
}
