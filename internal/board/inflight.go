package board

import (
	"sync"

	apierrors "github.com/yukikurage/standup-board/internal/errors"
)

// Guard tracks tasks with a mutation on the wire. A task holds at most
// one slot; a second Acquire fails with BusyError instead of waiting.
// The placement engine and the time log ledger share one Guard.
type Guard struct {
	mu    sync.Mutex
	tasks map[uint64]struct{}
}

// NewGuard creates a new Guard
func NewGuard() *Guard {
	return &Guard{tasks: make(map[uint64]struct{})}
}

// Acquire claims the task and returns the release func.
func (f *Guard) Acquire(taskID uint64) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.tasks[taskID]; busy {
		return nil, &apierrors.BusyError{TaskID: taskID}
	}
	f.tasks[taskID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.tasks, taskID)
			f.mu.Unlock()
		})
	}, nil
}

// Busy reports whether an operation on the task is in flight
func (f *Guard) Busy(taskID uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, busy := f.tasks[taskID]
	return busy
}

// BusyIDs lists the claimed tasks.
func (f *Guard) BusyIDs() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]uint64, 0, len(f.tasks))
	for id := range f.tasks {
		ids = append(ids, id)
	}
	return ids
}
