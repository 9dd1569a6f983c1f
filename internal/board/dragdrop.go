package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/yukikurage/standup-board/internal/constants"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
)

// Gesture is one completed drag of a card between columns.
type Gesture struct {
	ID     string
	TaskID uint64
	From   Column
	To     Column
}

// NoticeLevel grades a user-facing notice
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
)

func (l NoticeLevel) String() string {
	if l == NoticeWarning {
		return "warning"
	}
	return "info"
}

// Notice is a user-visible message about an operation outcome.
type Notice struct {
	Level   NoticeLevel
	TaskID  uint64
	Message string
	Err     error
}

// Notifier receives the notices a drop produces
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}

// Controller turns drag gestures into placements. The layout is updated
// optimistically when the card is dropped and rebuilt from the store once
// the collaborator answered.
type Controller struct {
	engine   *Engine
	store    *Store
	catalog  *Catalog
	notifier Notifier
	logger   *log.Logger

	mu       sync.Mutex
	layout   *Layout
	gestures map[string]bool
	order    []string
}

// NewController creates a new Controller
func NewController(engine *Engine, store *Store, catalog *Catalog, notifier Notifier, logger *log.Logger) *Controller {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	c := &Controller{
		engine:   engine,
		store:    store,
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
		gestures: make(map[string]bool),
	}
	c.layout = c.build()
	return c
}

// Layout returns a copy of the current view-model.
func (c *Controller) Layout() *Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout.clone()
}

// Refresh rebuilds the layout from the store and the catalog page.
func (c *Controller) Refresh() *Layout {
	next := c.build()
	c.mu.Lock()
	c.layout = next
	c.mu.Unlock()
	return next.clone()
}

func (c *Controller) build() *Layout {
	snap := c.store.Snapshot()
	if c.catalog == nil {
		return BuildLayout(snap, nil, c.engine.guard.BusyIDs())
	}
	return BuildLayout(snap, c.catalog.Page().Tasks, c.engine.guard.BusyIDs())
}

// Drop handles a finished gesture. The same gesture may be reported more
// than once by the drag library; only the first report reaches the network.
func (c *Controller) Drop(ctx context.Context, g Gesture) (*PlaceResult, error) {
	if g.ID == "" {
		g.ID = NewMoveID()
	}
	req := PlaceRequest{
		MoveID:    g.ID,
		TaskID:    g.TaskID,
		Target:    g.To.Bucket,
		RowUserID: g.To.UserID,
	}
	if g.To.Kind == KindCatalog {
		req.Target = BucketPool
		req.RowUserID = 0
	}

	c.mu.Lock()
	noop := g.From == g.To
	if wasNoop, dup := c.gestures[g.ID]; dup {
		c.mu.Unlock()
		if wasNoop {
			return &PlaceResult{From: g.From.Bucket, Bucket: g.From.Bucket, NoOp: true, Duplicate: true}, nil
		}
		return c.engine.Place(ctx, req)
	}
	c.remember(g.ID, noop)
	if noop {
		c.mu.Unlock()
		return &PlaceResult{From: g.From.Bucket, Bucket: g.From.Bucket, NoOp: true}, nil
	}
	c.layout.apply(g)
	c.mu.Unlock()

	res, err := c.engine.Place(ctx, req)
	c.Refresh()

	var conflict *apierrors.ConflictError
	switch {
	case err == nil:
	case errors.As(err, &conflict):
		c.notifier.Notify(Notice{
			Level:   NoticeInfo,
			TaskID:  g.TaskID,
			Message: fmt.Sprintf("Task moved to %s by the server", conflict.Actual),
			Err:     err,
		})
	default:
		c.logger.Printf("drop of task %d into %s failed: %v", g.TaskID, g.To.Bucket, err)
		c.notifier.Notify(Notice{
			Level:   NoticeWarning,
			TaskID:  g.TaskID,
			Message: dropFailureMessage(err),
			Err:     err,
		})
	}
	return res, err
}

func dropFailureMessage(err error) string {
	switch {
	case apierrors.IsAuthorization(err):
		return "You can only plan your own tasks"
	case apierrors.IsBusy(err):
		return "Task is still being saved"
	case apierrors.IsValidation(err):
		return err.Error()
	}
	var netErr *apierrors.NetworkError
	if errors.As(err, &netErr) && netErr.Timeout {
		return "The server did not answer in time; the move was undone"
	}
	return "Could not move the task; the move was undone"
}

// remember records a gesture id, forgetting the oldest past the limit.
// Callers hold c.mu.
func (c *Controller) remember(id string, noop bool) {
	c.gestures[id] = noop
	c.order = append(c.order, id)
	if len(c.order) > constants.MaxRememberedMoves {
		delete(c.gestures, c.order[0])
		c.order = c.order[1:]
	}
}
