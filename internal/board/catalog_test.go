package board

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/yukikurage/standup-board/internal/dto"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
	"github.com/yukikurage/standup-board/internal/models"
)

type CatalogTestSuite struct {
	suite.Suite
	api     *fakeAPI
	catalog *Catalog
}

func (s *CatalogTestSuite) SetupTest() {
	s.api = seedScenario()
	for i := uint64(0); i < 23; i++ {
		owner := uint64(7)
		if i%2 == 1 {
			owner = 8
		}
		s.api.addTask(dto.TaskDTO{ID: 100 + i, Title: fmt.Sprintf("Backlog item %d", i), Status: models.TaskStatusTodo, UserID: owner, ProjectID: 1})
	}
	s.catalog = NewCatalog(s.api, nil)
}

func TestCatalogTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogTestSuite))
}

func (s *CatalogTestSuite) TestPaging() {
	ctx := context.Background()
	page, err := s.catalog.SetProject(ctx, 1)
	require.NoError(s.T(), err)
	assert.Len(s.T(), page.Tasks, 10)
	assert.Equal(s.T(), 1, page.CurrentPage)
	assert.Equal(s.T(), 3, page.TotalPages)
	assert.False(s.T(), page.HasPrevious)
	assert.True(s.T(), page.HasNext)

	page, err = s.catalog.Next(ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, page.CurrentPage)

	page, err = s.catalog.Next(ctx)
	require.NoError(s.T(), err)
	assert.Len(s.T(), page.Tasks, 5)
	assert.False(s.T(), page.HasNext)

	page, err = s.catalog.Prev(ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, page.CurrentPage)
	assert.Equal(s.T(), 2, s.catalog.State().Page)
}

func (s *CatalogTestSuite) TestOutOfRangePages_NeverError() {
	ctx := context.Background()
	_, err := s.catalog.SetProject(ctx, 1)
	require.NoError(s.T(), err)

	page, err := s.catalog.SetPage(ctx, 0)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, page.CurrentPage)

	page, err = s.catalog.SetPage(ctx, -4)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, page.CurrentPage)

	page, err = s.catalog.SetPage(ctx, 99)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), page.Tasks)
	assert.False(s.T(), page.HasNext)
	assert.Equal(s.T(), 99, page.CurrentPage)

	page, err = s.catalog.Prev(ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 98, page.CurrentPage)
	assert.Empty(s.T(), page.Tasks)
}

func (s *CatalogTestSuite) TestSearchAndUserFilter() {
	ctx := context.Background()
	_, err := s.catalog.SetProject(ctx, 1)
	require.NoError(s.T(), err)
	_, err = s.catalog.SetPage(ctx, 2)
	require.NoError(s.T(), err)

	page, err := s.catalog.SetQuery(ctx, "  WRITE ")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, page.CurrentPage, "a new query starts on the first page")
	require.Len(s.T(), page.Tasks, 1)
	assert.Equal(s.T(), uint64(42), page.Tasks[0].ID)
	assert.Equal(s.T(), "WRITE", s.catalog.State().Query)

	_, err = s.catalog.SetQuery(ctx, "")
	require.NoError(s.T(), err)
	page, err = s.catalog.SetUser(ctx, 8)
	require.NoError(s.T(), err)
	for _, t := range page.Tasks {
		assert.Equal(s.T(), uint64(8), t.UserID)
	}
}

func (s *CatalogTestSuite) TestFailedFetch_KeepsPreviousPage() {
	ctx := context.Background()
	first, err := s.catalog.SetProject(ctx, 1)
	require.NoError(s.T(), err)

	s.api.failNext("ListTasks", &apierrors.NetworkError{Status: 500})
	_, err = s.catalog.Next(ctx)
	require.Error(s.T(), err)
	assert.Equal(s.T(), first.Tasks, s.catalog.Page().Tasks)
}

func (s *CatalogTestSuite) TestFailedNext_DoesNotSkipAPage() {
	ctx := context.Background()
	_, err := s.catalog.SetProject(ctx, 1)
	require.NoError(s.T(), err)

	s.api.failNext("ListTasks", &apierrors.NetworkError{Status: 500})
	_, err = s.catalog.Next(ctx)
	require.Error(s.T(), err)
	assert.Equal(s.T(), 1, s.catalog.State().Page)
	assert.Equal(s.T(), 1, s.catalog.Page().CurrentPage)

	page, err := s.catalog.Next(ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, page.CurrentPage)
	assert.Equal(s.T(), 2, s.catalog.State().Page)
}

func (s *CatalogTestSuite) TestFailedProjectSwitch_CanBeReloaded() {
	ctx := context.Background()
	s.api.failNext("ListTasks", &apierrors.NetworkError{Status: 500})
	_, err := s.catalog.SetProject(ctx, 1)
	require.Error(s.T(), err)
	assert.Equal(s.T(), uint64(1), s.catalog.State().ProjectID)

	page, err := s.catalog.Reload(ctx)
	require.NoError(s.T(), err)
	assert.Len(s.T(), page.Tasks, 10)
}

func (s *CatalogTestSuite) TestStaleResponse_IsDiscarded() {
	ctx := context.Background()
	_, err := s.catalog.SetProject(ctx, 1)
	require.NoError(s.T(), err)

	entered := make(chan struct{})
	release := make(chan struct{})
	s.api.mu.Lock()
	s.api.onList = func(q dto.TaskQuery) {
		if q.Search == "slow" {
			close(entered)
			<-release
		}
	}
	s.api.mu.Unlock()

	slow := make(chan error, 1)
	go func() {
		_, err := s.catalog.SetQuery(ctx, "slow")
		slow <- err
	}()
	<-entered

	page, err := s.catalog.SetQuery(ctx, "review")
	require.NoError(s.T(), err)
	require.Len(s.T(), page.Tasks, 1)

	close(release)
	assert.True(s.T(), errors.Is(<-slow, apierrors.ErrStalePage))
	assert.Equal(s.T(), "review", s.catalog.State().Query)
	assert.Equal(s.T(), uint64(43), s.catalog.Page().Tasks[0].ID)
}

func (s *CatalogTestSuite) TestNoProject() {
	_, err := s.catalog.Next(context.Background())
	assert.True(s.T(), errors.Is(err, apierrors.ErrNoProject))

	_, err = s.catalog.SetProject(context.Background(), 1)
	require.NoError(s.T(), err)
	s.catalog.Reset()
	assert.Empty(s.T(), s.catalog.Page().Tasks)
	assert.Equal(s.T(), uint64(0), s.catalog.State().ProjectID)
}
