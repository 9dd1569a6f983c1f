package board

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// NewMoveID returns a fresh id for one logical move or gesture.
func NewMoveID() string {
	return uuid.NewString()
}

type moveRecord struct {
	done   chan struct{}
	result *PlaceResult
	err    error
}

// moveLog remembers the outcome of recent moves so a repeated signal for the
// same move returns the first outcome instead of reaching the network again.
type moveLog struct {
	mu      sync.Mutex
	limit   int
	records map[string]*moveRecord
	order   []string
}

func newMoveLog(limit int) *moveLog {
	return &moveLog{limit: limit, records: make(map[string]*moveRecord)}
}

// claim returns the record for id and whether the caller is the first to see it.
func (l *moveLog) claim(id string) (*moveRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec, ok := l.records[id]; ok {
		return rec, false
	}
	rec := &moveRecord{done: make(chan struct{})}
	l.records[id] = rec
	l.order = append(l.order, id)
	l.evict()
	return rec, true
}

func (l *moveLog) finish(rec *moveRecord, result *PlaceResult, err error) {
	l.mu.Lock()
	rec.result = result
	rec.err = err
	l.mu.Unlock()
	close(rec.done)
}

// wait blocks until the first caller finished the move.
func (l *moveLog) wait(ctx context.Context, rec *moveRecord) (*PlaceResult, error) {
	select {
	case <-rec.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec.result == nil {
		return nil, rec.err
	}
	res := *rec.result
	res.Duplicate = true
	return &res, rec.err
}

// evict drops the oldest finished records once the log is over its limit.
// Callers hold l.mu.
func (l *moveLog) evict() {
	for len(l.order) > l.limit {
		oldest := l.order[0]
		rec := l.records[oldest]
		select {
		case <-rec.done:
		default:
			return
		}
		delete(l.records, oldest)
		l.order = l.order[1:]
	}
}
