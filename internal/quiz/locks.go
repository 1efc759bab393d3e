package quiz

import "sync"

type attemptKey struct {
	quizID int64
	userID int64
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// attemptLocks serializes submissions per (quiz, user). Entries are dropped
// once nobody holds or waits on them.
type attemptLocks struct {
	mu      sync.Mutex
	entries map[attemptKey]*lockEntry
}

func newAttemptLocks() *attemptLocks {
	return &attemptLocks{entries: make(map[attemptKey]*lockEntry)}
}

func (l *attemptLocks) lock(key attemptKey) func() {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}

func (l *attemptLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
