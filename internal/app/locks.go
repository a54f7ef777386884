package service

import (
	"sync"

	"github.com/okian/jury/internal/domain/model"
)

// draftLocks serializes read-modify-write cycles on one draft. Entries live
// only while someone holds or waits for them.
type draftLocks struct {
	mu    sync.Mutex
	locks map[model.DraftKey]*draftLock
}

type draftLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until key is free and returns the matching unlock.
func (l *draftLocks) lock(key model.DraftKey) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[model.DraftKey]*draftLock)
	}
	dl, ok := l.locks[key]
	if !ok {
		dl = &draftLock{}
		l.locks[key] = dl
	}
	dl.refs++
	l.mu.Unlock()

	dl.mu.Lock()
	return func() {
		dl.mu.Unlock()
		l.mu.Lock()
		dl.refs--
		if dl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *draftLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
