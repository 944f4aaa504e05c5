package conflict

import "sync"

// userLocks hands out one mutex per user id so read-modify-write sequences on
// a user's conflict record are serialized in-process. Entries are reference
// counted and dropped once the last holder unlocks, keeping the map bounded
// by the number of concurrently active users.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// acquire locks the mutex for userID and returns the matching release func.
func (l *userLocks) acquire(userID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
