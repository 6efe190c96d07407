package kv

import "sync"

// Fanout is a registry of change listeners shared by the notifier
// implementations.
//
// Dispatch calls listeners synchronously in the dispatching goroutine,
// outside the registry lock, so a listener may register or remove
// listeners (or publish) without deadlocking.
type Fanout struct {
	mu   sync.RWMutex
	next int
	fns  map[int]func(Change)
}

// Add registers fn and returns an idempotent func that removes it.
func (f *Fanout) Add(fn func(Change)) func() {
	f.mu.Lock()
	if f.fns == nil {
		f.fns = make(map[int]func(Change))
	}
	id := f.next
	f.next++
	f.fns[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.fns, id)
			f.mu.Unlock()
		})
	}
}

// Dispatch delivers c to every registered listener.
func (f *Fanout) Dispatch(c Change) {
	f.mu.RLock()
	fns := make([]func(Change), 0, len(f.fns))
	for _, fn := range f.fns {
		fns = append(fns, fn)
	}
	f.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Len returns the number of registered listeners.
func (f *Fanout) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.fns)
}
