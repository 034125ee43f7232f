package credstore

import (
	"sync"

	"github.com/google/uuid"
)

// Broadcaster is a small fan-out helper for Store implementations. It
// keeps the subscriber registry behind its own lock so stores can notify
// without holding their data locks.
type Broadcaster struct {
	mu       sync.RWMutex
	watchers map[string]func()
}

func (b *Broadcaster) Watch(fn func()) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.watchers == nil {
		b.watchers = make(map[string]func())
	}
	id := uuid.New().String()
	b.watchers[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.watchers, id)
	}
}

// Notify invokes every registered watcher. Callbacks run on the caller's
// goroutine; they must not call back into the notifying store's write
// path.
func (b *Broadcaster) Notify() {
	b.mu.RLock()
	fns := make([]func(), 0, len(b.watchers))
	for _, fn := range b.watchers {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
