package board

import (
	"strings"

	"github.com/yukikurage/standup-board/internal/dto"
	"github.com/yukikurage/standup-board/internal/models"
)

// ColumnKind tells what dropping onto or dragging out of a column means.
type ColumnKind int

const (
	// KindAssignment columns hold placed tasks; dragging out moves the card.
	KindAssignment ColumnKind = iota
	// KindCatalog columns list the catalog; dragging out clones the card
	// and dropping in clears the placement.
	KindCatalog
)

func (k ColumnKind) String() string {
	if k == KindCatalog {
		return "catalog"
	}
	return "assignment"
}

// Column is one rendered bucket. UserID is the row owner for per-user
// columns and zero for shared ones.
type Column struct {
	Bucket Bucket
	UserID uint64
	Kind   ColumnKind
}

// CatalogColumn is the single catalog column of a board.
var CatalogColumn = Column{Bucket: BucketPool, Kind: KindCatalog}

// Card is one task as shown in a column
type Card struct {
	TaskID   uint64
	Title    string
	Status   models.TaskStatus
	TaskDate *models.Date
	OwnerID  uint64
	Hours    float64
	Busy     bool
}

// Layout is the board view-model a renderer draws. It is a value built from
// store snapshots; it never feeds back into the store.
type Layout struct {
	Columns []Column
	cards   map[Column][]Card
}

func newLayout() *Layout {
	return &Layout{cards: make(map[Column][]Card)}
}

// BuildLayout lays out a snapshot plus the visible catalog page.
func BuildLayout(snap *Snapshot, catalog []dto.TaskDTO, busy []uint64) *Layout {
	l := newLayout()
	busySet := make(map[uint64]bool, len(busy))
	for _, id := range busy {
		busySet[id] = true
	}

	l.addColumn(CatalogColumn)
	if snap.Mode == ModeKanban {
		for _, b := range []Bucket{BucketStatusTodo, BucketStatusInProgress, BucketStatusDone, BucketBlocker} {
			l.addColumn(Column{Bucket: b})
		}
	} else {
		for _, u := range snap.Users() {
			for _, b := range []Bucket{BucketYesterday, BucketToday, BucketBlocker} {
				l.addColumn(Column{Bucket: b, UserID: u.ID})
			}
		}
	}

	for _, t := range catalog {
		if stored, ok := snap.Task(t.ID); ok {
			t = stored
		}
		l.cards[CatalogColumn] = append(l.cards[CatalogColumn], newCard(snap, t, busySet))
	}
	for _, t := range snap.Tasks() {
		col, ok := ColumnOf(snap, t)
		if !ok {
			continue
		}
		l.addColumn(col)
		l.cards[col] = append(l.cards[col], newCard(snap, t, busySet))
	}
	return l
}

// ColumnOf is the assignment column a task renders in. Pool tasks only show
// in the catalog.
func ColumnOf(snap *Snapshot, t dto.TaskDTO) (Column, bool) {
	b := snap.Bucket(t)
	if snap.Mode == ModeKanban {
		return Column{Bucket: b}, true
	}
	if b == BucketPool {
		return Column{}, false
	}
	return Column{Bucket: b, UserID: t.UserID}, true
}

func newCard(snap *Snapshot, t dto.TaskDTO, busy map[uint64]bool) Card {
	return Card{
		TaskID:   t.ID,
		Title:    t.Title,
		Status:   t.Status,
		TaskDate: t.TaskDate,
		OwnerID:  t.UserID,
		Hours:    snap.Total(t.ID),
		Busy:     busy[t.ID],
	}
}

func (l *Layout) addColumn(col Column) {
	if _, ok := l.cards[col]; ok {
		return
	}
	l.Columns = append(l.Columns, col)
	l.cards[col] = nil
}

// Cards returns the cards of a column
func (l *Layout) Cards(col Column) []Card {
	return append([]Card(nil), l.cards[col]...)
}

// Find returns the first column holding the task, catalog last.
func (l *Layout) Find(taskID uint64) (Column, bool) {
	for _, col := range l.Columns {
		if col.Kind == KindCatalog {
			continue
		}
		for _, c := range l.cards[col] {
			if c.TaskID == taskID {
				return col, true
			}
		}
	}
	for _, c := range l.cards[CatalogColumn] {
		if c.TaskID == taskID {
			return CatalogColumn, true
		}
	}
	return Column{}, false
}

// Visible returns the cards per column whose title matches query. Hidden
// cards stay in the layout.
func (l *Layout) Visible(query string) map[Column][]Card {
	out := make(map[Column][]Card, len(l.Columns))
	for _, col := range l.Columns {
		var cards []Card
		for _, c := range l.cards[col] {
			if MatchesQuery(c.Title, query) {
				cards = append(cards, c)
			}
		}
		out[col] = cards
	}
	return out
}

func (l *Layout) clone() *Layout {
	next := &Layout{
		Columns: append([]Column(nil), l.Columns...),
		cards:   make(map[Column][]Card, len(l.cards)),
	}
	for col, cards := range l.cards {
		next.cards[col] = append([]Card(nil), cards...)
	}
	return next
}

func (l *Layout) take(col Column, taskID uint64) (Card, bool) {
	cards := l.cards[col]
	for i, c := range cards {
		if c.TaskID == taskID {
			l.cards[col] = append(cards[:i:i], cards[i+1:]...)
			return c, true
		}
	}
	return Card{}, false
}

func (l *Layout) peek(col Column, taskID uint64) (Card, bool) {
	for _, c := range l.cards[col] {
		if c.TaskID == taskID {
			return c, true
		}
	}
	return Card{}, false
}

// apply performs a drag on the layout: cards leaving the catalog are
// cloned, cards leaving an assignment column are moved, and the catalog
// never gains cards.
func (l *Layout) apply(g Gesture) {
	var (
		card Card
		ok   bool
	)
	if g.From.Kind == KindCatalog {
		card, ok = l.peek(g.From, g.TaskID)
	} else {
		card, ok = l.take(g.From, g.TaskID)
	}
	if !ok || g.To.Kind == KindCatalog {
		return
	}
	l.addColumn(g.To)
	if _, dup := l.peek(g.To, g.TaskID); dup {
		return
	}
	card.Busy = true
	l.cards[g.To] = append(l.cards[g.To], card)
}

// MatchesQuery is the catalog's title search applied to materialized cards:
// a case-insensitive substring match. An empty query matches everything.
func MatchesQuery(title, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(query))
}
