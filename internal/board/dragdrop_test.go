package board

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/yukikurage/standup-board/internal/dto"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
	"github.com/yukikurage/standup-board/internal/models"
)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recordingNotifier) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) all() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

type DragDropTestSuite struct {
	suite.Suite
	api        *fakeAPI
	store      *Store
	catalog    *Catalog
	notices    *recordingNotifier
	controller *Controller
}

func (s *DragDropTestSuite) SetupTest() {
	s.api = seedScenario()
	s.api.addTask(dto.TaskDTO{ID: 45, Title: "Standup notes", Status: models.TaskStatusTodo, TaskDate: testToday.Ptr(), UserID: 7, ProjectID: 1})
	s.store = NewStore(s.api, testClock)
	require.NoError(s.T(), s.store.Load(context.Background(), 1, ModeStandup))
	s.catalog = NewCatalog(s.api, nil)
	_, err := s.catalog.SetProject(context.Background(), 1)
	require.NoError(s.T(), err)

	guard := NewGuard()
	engine := NewEngine(s.api, s.store, guard, 7, nil)
	s.notices = &recordingNotifier{}
	s.controller = NewController(engine, s.store, s.catalog, s.notices, nil)
}

func TestDragDropTestSuite(t *testing.T) {
	suite.Run(t, new(DragDropTestSuite))
}

func ids(cards []Card) []uint64 {
	out := []uint64{}
	for _, c := range cards {
		out = append(out, c.TaskID)
	}
	return out
}

func (s *DragDropTestSuite) TestInitialLayout() {
	layout := s.controller.Layout()
	assert.Equal(s.T(), []uint64{42, 43, 45}, ids(layout.Cards(CatalogColumn)))
	assert.Equal(s.T(), []uint64{45}, ids(layout.Cards(Column{Bucket: BucketToday, UserID: 7})))
	assert.Empty(s.T(), layout.Cards(Column{Bucket: BucketToday, UserID: 8}))
	assert.Contains(s.T(), layout.Columns, Column{Bucket: BucketYesterday, UserID: 8})
}

func (s *DragDropTestSuite) TestDragFromCatalog_ClonesCard() {
	today := Column{Bucket: BucketToday, UserID: 7}
	res, err := s.controller.Drop(context.Background(), Gesture{ID: "g1", TaskID: 42, From: CatalogColumn, To: today})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), BucketToday, res.Bucket)

	layout := s.controller.Layout()
	assert.Equal(s.T(), []uint64{42, 45}, ids(layout.Cards(today)))
	assert.Contains(s.T(), ids(layout.Cards(CatalogColumn)), uint64(42), "catalog keeps its card")
	assert.Empty(s.T(), s.notices.all())
}

func (s *DragDropTestSuite) TestDragBetweenAssignments_MovesCard() {
	today := Column{Bucket: BucketToday, UserID: 7}
	yesterday := Column{Bucket: BucketYesterday, UserID: 7}

	_, err := s.controller.Drop(context.Background(), Gesture{TaskID: 45, From: today, To: yesterday})
	require.NoError(s.T(), err)

	layout := s.controller.Layout()
	assert.Empty(s.T(), layout.Cards(today))
	assert.Equal(s.T(), []uint64{45}, ids(layout.Cards(yesterday)))
}

func (s *DragDropTestSuite) TestDropOnCatalog_Unschedules() {
	today := Column{Bucket: BucketToday, UserID: 7}
	res, err := s.controller.Drop(context.Background(), Gesture{TaskID: 45, From: today, To: CatalogColumn})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), BucketPool, res.Bucket)

	layout := s.controller.Layout()
	assert.Empty(s.T(), layout.Cards(today))
	assert.Nil(s.T(), s.api.task(45).TaskDate)
	assert.Equal(s.T(), 3, len(layout.Cards(CatalogColumn)))
}

func (s *DragDropTestSuite) TestDuplicateGesture_OneRequest() {
	g := Gesture{ID: "same-gesture", TaskID: 42, From: CatalogColumn, To: Column{Bucket: BucketToday, UserID: 7}}
	_, err := s.controller.Drop(context.Background(), g)
	require.NoError(s.T(), err)

	res, err := s.controller.Drop(context.Background(), g)
	require.NoError(s.T(), err)
	assert.True(s.T(), res.Duplicate)
	assert.Equal(s.T(), 1, s.api.callCount("UpdatePlacement"))
}

func (s *DragDropTestSuite) TestDropOnOrigin_IsNoOp() {
	today := Column{Bucket: BucketToday, UserID: 7}
	res, err := s.controller.Drop(context.Background(), Gesture{TaskID: 45, From: today, To: today})
	require.NoError(s.T(), err)
	assert.True(s.T(), res.NoOp)
	assert.Equal(s.T(), 0, s.api.callCount("UpdatePlacement"))
}

func (s *DragDropTestSuite) TestFailedDrop_RevertsAndWarns() {
	s.api.failNext("UpdatePlacement", &apierrors.NetworkError{Method: http.MethodPost, Path: "/placement/update", Status: http.StatusBadGateway})
	before := s.controller.Layout()

	today := Column{Bucket: BucketToday, UserID: 7}
	_, err := s.controller.Drop(context.Background(), Gesture{TaskID: 42, From: CatalogColumn, To: today})
	require.Error(s.T(), err)

	after := s.controller.Layout()
	assert.Equal(s.T(), ids(before.Cards(today)), ids(after.Cards(today)))

	notices := s.notices.all()
	require.Len(s.T(), notices, 1)
	assert.Equal(s.T(), NoticeWarning, notices[0].Level)
	assert.Equal(s.T(), uint64(42), notices[0].TaskID)
}

func (s *DragDropTestSuite) TestDropIntoOtherUsersRow_Warns() {
	bobToday := Column{Bucket: BucketToday, UserID: 8}
	_, err := s.controller.Drop(context.Background(), Gesture{TaskID: 42, From: CatalogColumn, To: bobToday})
	assert.True(s.T(), apierrors.IsAuthorization(err))
	assert.Empty(s.T(), s.controller.Layout().Cards(bobToday))

	notices := s.notices.all()
	require.Len(s.T(), notices, 1)
	assert.Equal(s.T(), "You can only plan your own tasks", notices[0].Message)
}

func (s *DragDropTestSuite) TestConflict_InfoNotice() {
	s.api.placed = func(t dto.TaskDTO) dto.TaskDTO {
		t.TaskDate = testToday.AddDays(-1).Ptr()
		return t
	}
	_, err := s.controller.Drop(context.Background(), Gesture{TaskID: 42, From: CatalogColumn, To: Column{Bucket: BucketToday, UserID: 7}})
	assert.True(s.T(), apierrors.IsConflict(err))

	layout := s.controller.Layout()
	assert.Equal(s.T(), []uint64{42}, ids(layout.Cards(Column{Bucket: BucketYesterday, UserID: 7})))
	notices := s.notices.all()
	require.Len(s.T(), notices, 1)
	assert.Equal(s.T(), NoticeInfo, notices[0].Level)
}

func (s *DragDropTestSuite) TestVisible_FiltersWithoutDiscarding() {
	layout := s.controller.Layout()
	visible := layout.Visible("REVIEW")
	assert.Equal(s.T(), []uint64{43}, ids(visible[CatalogColumn]))
	assert.Empty(s.T(), visible[Column{Bucket: BucketToday, UserID: 7}])
	assert.Len(s.T(), layout.Cards(CatalogColumn), 3)
}

func TestLayoutApply(t *testing.T) {
	snap := &Snapshot{
		ProjectID:   1,
		ViewerToday: testToday,
		users:       []dto.UserDTO{{ID: 7}},
		tasks: map[uint64]dto.TaskDTO{
			1: {ID: 1, Title: "a", UserID: 7, TaskDate: testToday.Ptr()},
			2: {ID: 2, Title: "b", UserID: 7},
		},
		logs: map[uint64][]dto.TimeLogDTO{},
	}
	layout := BuildLayout(snap, []dto.TaskDTO{{ID: 1}, {ID: 2}}, []uint64{2})
	today := Column{Bucket: BucketToday, UserID: 7}

	layout.apply(Gesture{TaskID: 2, From: CatalogColumn, To: today})
	assert.Equal(t, []uint64{1, 2}, ids(layout.Cards(today)))
	assert.Len(t, layout.Cards(CatalogColumn), 2)
	cards := layout.Cards(today)
	assert.True(t, cards[1].Busy)

	layout.apply(Gesture{TaskID: 1, From: today, To: CatalogColumn})
	assert.Equal(t, []uint64{2}, ids(layout.Cards(today)))
	assert.Len(t, layout.Cards(CatalogColumn), 2)

	col, ok := layout.Find(2)
	assert.True(t, ok)
	assert.Equal(t, today, col)
}

func TestMatchesQuery(t *testing.T) {
	assert.True(t, MatchesQuery("Write runbook", ""))
	assert.True(t, MatchesQuery("Write runbook", "RUNBOOK"))
	assert.False(t, MatchesQuery("Write runbook", "review"))
}
