package service

import "sync"

// leadLocks serializes Apply per lead ID. Entries are reference-counted so
// the map shrinks back when a lead is idle.
type leadLocks struct {
	mu    sync.Mutex
	locks map[string]*leadLock
}

type leadLock struct {
	mu   sync.Mutex
	refs int
}

func newLeadLocks() *leadLocks {
	return &leadLocks{locks: make(map[string]*leadLock)}
}

// acquire blocks until the caller holds the lead's lock and returns the
// release function.
func (l *leadLocks) acquire(leadID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[leadID]
	if !ok {
		entry = &leadLock{}
		l.locks[leadID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, leadID)
		}
		l.mu.Unlock()
	}
}
