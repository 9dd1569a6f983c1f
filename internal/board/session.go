package board

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/yukikurage/standup-board/internal/dto"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
	"github.com/yukikurage/standup-board/internal/models"
)

// Session is the board of one acting user on one project. Open loads a
// project; Close cancels everything still in flight and forgets the state.
type Session struct {
	api      API
	actorID  uint64
	mode     Mode
	clock    func() time.Time
	logger   *log.Logger
	notifier Notifier

	store      *Store
	guard      *Guard
	engine     *Engine
	ledger     *Ledger
	catalog    *Catalog
	controller *Controller

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithMode sets the board mode, standup by default
func WithMode(mode Mode) SessionOption {
	return func(s *Session) { s.mode = mode }
}

// WithClock sets the clock the viewer date is taken from.
func WithClock(clock func() time.Time) SessionOption {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger shared by the session components
func WithLogger(logger *log.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotifier sets where drop notices go
func WithNotifier(n Notifier) SessionOption {
	return func(s *Session) {
		if n != nil {
			s.notifier = n
		}
	}
}

// NewSession creates a closed Session for the acting user
func NewSession(api API, actorID uint64, opts ...SessionOption) *Session {
	s := &Session{
		api:      api,
		actorID:  actorID,
		clock:    time.Now,
		logger:   log.New(io.Discard, "", 0),
		notifier: discardNotifier{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = NewStore(api, s.clock)
	s.guard = NewGuard()
	s.engine = NewEngine(api, s.store, s.guard, actorID, s.logger)
	s.ledger = NewLedger(api, s.store, s.guard, s.logger)
	s.catalog = NewCatalog(api, s.logger)
	s.controller = NewController(s.engine, s.store, s.catalog, s.notifier, s.logger)
	return s
}

// ActorID returns the acting user
func (s *Session) ActorID() uint64 { return s.actorID }
func (s *Session) Mode() Mode      { return s.mode }

// Components
func (s *Session) Store() *Store           { return s.store }
func (s *Session) Engine() *Engine         { return s.engine }
func (s *Session) Ledger() *Ledger         { return s.ledger }
func (s *Session) Catalog() *Catalog       { return s.catalog }
func (s *Session) Controller() *Controller { return s.controller }

// ProjectID is the open project, zero when closed.
func (s *Session) ProjectID() uint64 {
	return s.store.Snapshot().ProjectID
}

// Projects lists the projects a session can open. It works while closed.
func (s *Session) Projects(ctx context.Context) ([]dto.ProjectDTO, error) {
	projects, err := s.api.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Open loads a project. An already open project is closed first.
func (s *Session) Open(ctx context.Context, projectID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()

	sctx, cancel := context.WithCancel(context.Background())
	opCtx, stop := mergeContext(ctx, sctx)
	defer stop()

	if err := s.store.Load(opCtx, projectID, s.mode); err != nil {
		cancel()
		s.store.Reset()
		return fmt.Errorf("failed to open project %d: %w", projectID, err)
	}
	if _, err := s.catalog.SetProject(opCtx, projectID); err != nil {
		s.logger.Printf("catalog of project %d unavailable: %v", projectID, err)
	}
	s.ctx, s.cancel = sctx, cancel
	s.controller.Refresh()
	s.logger.Printf("opened project %d for user %d (%s)", projectID, s.actorID, s.mode)
	return nil
}

// Switch closes the open project and opens another.
func (s *Session) Switch(ctx context.Context, projectID uint64) error {
	return s.Open(ctx, projectID)
}

// Close cancels in-flight calls and forgets the project
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = nil, nil
	s.store.Reset()
	s.catalog.Reset()
	s.controller.Refresh()
}

// op derives a context that also ends when the session closes.
func (s *Session) op(ctx context.Context) (context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	sctx := s.ctx
	s.mu.Unlock()
	if sctx == nil {
		return nil, nil, apierrors.ErrNoProject
	}
	merged, stop := mergeContext(ctx, sctx)
	return merged, stop, nil
}

func mergeContext(ctx, sctx context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stopAfter := context.AfterFunc(sctx, cancel)
	return merged, func() {
		stopAfter()
		cancel()
	}
}

// Reload re-reads the open project, e.g. on a background refresh.
func (s *Session) Reload(ctx context.Context) error {
	ctx, stop, err := s.op(ctx)
	if err != nil {
		return err
	}
	defer stop()
	if err := s.store.Load(ctx, s.ProjectID(), s.mode); err != nil {
		return err
	}
	if _, err := s.catalog.Reload(ctx); err != nil {
		s.logger.Printf("catalog reload failed: %v", err)
	}
	s.controller.Refresh()
	return nil
}

// Busy reports whether the task has an operation in flight.
func (s *Session) Busy(taskID uint64) bool {
	return s.guard.Busy(taskID)
}

// Snapshot returns the current board state
func (s *Session) Snapshot() *Snapshot {
	return s.store.Snapshot()
}

// Layout returns the current column layout
func (s *Session) Layout() *Layout {
	return s.controller.Layout()
}

// Place moves a task into a bucket
func (s *Session) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	ctx, stop, err := s.op(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()
	defer s.controller.Refresh()
	return s.engine.Place(ctx, req)
}

// Drop applies a drag gesture
func (s *Session) Drop(ctx context.Context, g Gesture) (*PlaceResult, error) {
	ctx, stop, err := s.op(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()
	return s.controller.Drop(ctx, g)
}

// EditTask applies a partial task edit
func (s *Session) EditTask(ctx context.Context, taskID uint64, patch TaskPatch) (*dto.TaskDTO, error) {
	ctx, stop, err := s.op(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()
	defer s.controller.Refresh()
	return s.engine.Edit(ctx, taskID, patch)
}

// CreateTask creates a task in the open project and reloads the catalog
func (s *Session) CreateTask(ctx context.Context, title string, ownerID uint64, estimation *float64) (*dto.TaskDTO, error) {
	ctx, stop, err := s.op(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()
	task, err := s.engine.Create(ctx, title, ownerID, estimation)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.Reload(ctx); err != nil {
		s.logger.Printf("catalog reload after create failed: %v", err)
	}
	s.controller.Refresh()
	return task, nil
}

// DeleteTask deletes a task with its logs
func (s *Session) DeleteTask(ctx context.Context, taskID uint64) error {
	ctx, stop, err := s.op(ctx)
	if err != nil {
		return err
	}
	defer stop()
	if err := s.engine.Delete(ctx, taskID); err != nil {
		return err
	}
	if _, err := s.catalog.Reload(ctx); err != nil {
		s.logger.Printf("catalog reload after delete failed: %v", err)
	}
	s.controller.Refresh()
	return nil
}

// LogTime records hours against a task
func (s *Session) LogTime(ctx context.Context, taskID uint64, hours float64, notes string, date *models.Date) (*dto.TimeLogDTO, error) {
	ctx, stop, err := s.op(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()
	defer s.controller.Refresh()
	return s.ledger.Create(ctx, taskID, hours, notes, date)
}

// UpdateLog changes a log entry
func (s *Session) UpdateLog(ctx context.Context, logID uint64, hours float64, notes string, date *models.Date) (*dto.TimeLogDTO, error) {
	ctx, stop, err := s.op(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()
	defer s.controller.Refresh()
	return s.ledger.Update(ctx, logID, hours, notes, date)
}

// DeleteLog removes a log entry
func (s *Session) DeleteLog(ctx context.Context, logID uint64) error {
	ctx, stop, err := s.op(ctx)
	if err != nil {
		return err
	}
	defer stop()
	defer s.controller.Refresh()
	return s.ledger.Delete(ctx, logID)
}

// Total is the stored total of a task.
func (s *Session) Total(taskID uint64) float64 {
	return s.ledger.Total(taskID)
}

// RefreshTotal re-reads the task's logs and returns the new total.
func (s *Session) RefreshTotal(ctx context.Context, taskID uint64) (float64, error) {
	ctx, stop, err := s.op(ctx)
	if err != nil {
		return 0, err
	}
	defer stop()
	return s.ledger.Refresh(ctx, taskID)
}

// catalogOp runs a catalog change and refreshes the layout when it lands.
func (s *Session) catalogOp(ctx context.Context, fn func(context.Context) (*dto.TaskPageDTO, error)) (*dto.TaskPageDTO, error) {
	ctx, stop, err := s.op(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()
	page, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	s.controller.Refresh()
	return page, nil
}

// Search filters the catalog by title
func (s *Session) Search(ctx context.Context, query string) (*dto.TaskPageDTO, error) {
	return s.catalogOp(ctx, func(ctx context.Context) (*dto.TaskPageDTO, error) {
		return s.catalog.SetQuery(ctx, query)
	})
}

// GoToPage shows a catalog page
func (s *Session) GoToPage(ctx context.Context, page int) (*dto.TaskPageDTO, error) {
	return s.catalogOp(ctx, func(ctx context.Context) (*dto.TaskPageDTO, error) {
		return s.catalog.SetPage(ctx, page)
	})
}

func (s *Session) NextPage(ctx context.Context) (*dto.TaskPageDTO, error) {
	return s.catalogOp(ctx, s.catalog.Next)
}

func (s *Session) PrevPage(ctx context.Context) (*dto.TaskPageDTO, error) {
	return s.catalogOp(ctx, s.catalog.Prev)
}

// FilterUser restricts the catalog to one owner
func (s *Session) FilterUser(ctx context.Context, userID uint64) (*dto.TaskPageDTO, error) {
	return s.catalogOp(ctx, func(ctx context.Context) (*dto.TaskPageDTO, error) {
		return s.catalog.SetUser(ctx, userID)
	})
}
