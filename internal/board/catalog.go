package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/yukikurage/standup-board/internal/constants"
	"github.com/yukikurage/standup-board/internal/dto"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
)

// CatalogState is the query the catalog currently shows.
type CatalogState struct {
	ProjectID uint64
	Page      int
	Query     string
	UserID    uint64
}

// Catalog pages through the task list of a project. Only the answer to the
// most recent request is kept; answers to superseded requests are dropped
// with ErrStalePage. The catalog never writes the board store.
type Catalog struct {
	api    API
	logger *log.Logger

	mu      sync.Mutex
	state   CatalogState
	seq     uint64
	current dto.TaskPageDTO
}

// NewCatalog creates a new Catalog
func NewCatalog(api API, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Catalog{api: api, logger: logger, state: CatalogState{Page: constants.MinPage}}
}

// State returns the query of the last accepted page
func (c *Catalog) State() CatalogState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Page returns the last page accepted.
func (c *Catalog) Page() dto.TaskPageDTO {
	c.mu.Lock()
	defer c.mu.Unlock()
	page := c.current
	page.Tasks = append([]dto.TaskDTO(nil), c.current.Tasks...)
	return page
}

// SetProject switches the catalog to a project and shows its first page.
func (c *Catalog) SetProject(ctx context.Context, projectID uint64) (*dto.TaskPageDTO, error) {
	return c.fetch(ctx, func(s *CatalogState) {
		*s = CatalogState{ProjectID: projectID, Page: constants.MinPage}
	})
}

// SetPage shows page n. Pages below one are clamped.
func (c *Catalog) SetPage(ctx context.Context, n int) (*dto.TaskPageDTO, error) {
	return c.fetch(ctx, func(s *CatalogState) { s.Page = n })
}

// Next shows the following page
func (c *Catalog) Next(ctx context.Context) (*dto.TaskPageDTO, error) {
	return c.fetch(ctx, func(s *CatalogState) { s.Page++ })
}

// Prev shows the preceding page
func (c *Catalog) Prev(ctx context.Context) (*dto.TaskPageDTO, error) {
	return c.fetch(ctx, func(s *CatalogState) { s.Page-- })
}

// SetQuery searches titles and goes back to the first page.
func (c *Catalog) SetQuery(ctx context.Context, query string) (*dto.TaskPageDTO, error) {
	return c.fetch(ctx, func(s *CatalogState) {
		s.Query = strings.TrimSpace(query)
		s.Page = constants.MinPage
	})
}

// SetUser restricts the catalog to one owner; zero shows everyone.
func (c *Catalog) SetUser(ctx context.Context, userID uint64) (*dto.TaskPageDTO, error) {
	return c.fetch(ctx, func(s *CatalogState) {
		s.UserID = userID
		s.Page = constants.MinPage
	})
}

// Reload fetches the current page again.
func (c *Catalog) Reload(ctx context.Context) (*dto.TaskPageDTO, error) {
	return c.fetch(ctx, func(*CatalogState) {})
}

// Reset forgets the project. In-flight answers become stale.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.state = CatalogState{Page: constants.MinPage}
	c.current = dto.TaskPageDTO{}
}

// fetch applies change to a copy of the state and commits it only once the
// answer is accepted. A failed project switch still commits the project so
// Reload can retry it.
func (c *Catalog) fetch(ctx context.Context, change func(*CatalogState)) (*dto.TaskPageDTO, error) {
	c.mu.Lock()
	state := c.state
	change(&state)
	if state.Page < constants.MinPage {
		state.Page = constants.MinPage
	}
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	if state.ProjectID == 0 {
		return nil, apierrors.ErrNoProject
	}

	resp, err := c.api.ListTasks(ctx, state.ProjectID, dto.TaskQuery{
		Page:   state.Page,
		Search: state.Query,
		UserID: state.UserID,
	})
	if err != nil && pastTheEnd(err, state.Page) {
		resp, err = &dto.TaskPageDTO{CurrentPage: state.Page, HasPrevious: true}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.logger.Printf("dropping catalog page %d of project %d: superseded", state.Page, state.ProjectID)
		return nil, apierrors.ErrStalePage
	}
	if err != nil {
		if state.ProjectID != c.state.ProjectID {
			c.state = state
			c.current = dto.TaskPageDTO{}
		}
		return nil, fmt.Errorf("failed to fetch catalog page %d: %w", state.Page, err)
	}

	page := normalizePage(*resp, state.Page)
	c.state = state
	c.current = page
	out := page
	out.Tasks = append([]dto.TaskDTO(nil), page.Tasks...)
	return &out, nil
}

// pastTheEnd reports a not-found answer for a page beyond the first, which
// some collaborators send instead of an empty page.
func pastTheEnd(err error, page int) bool {
	var netErr *apierrors.NetworkError
	return page > constants.MinPage && errors.As(err, &netErr) && netErr.Status == http.StatusNotFound
}

func normalizePage(page dto.TaskPageDTO, requested int) dto.TaskPageDTO {
	if page.CurrentPage < constants.MinPage {
		page.CurrentPage = requested
	}
	if page.TotalPages > 0 && requested > page.TotalPages {
		page.CurrentPage = requested
		page.Tasks = nil
		page.HasNext = false
		page.HasPrevious = true
	}
	if page.Tasks == nil {
		page.Tasks = []dto.TaskDTO{}
	}
	return page
}
