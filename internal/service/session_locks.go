package service

import (
	"sync"

	"github.com/google/uuid"
)

// sessionLocks - пер-сессионные неблокирующие замки. Конкурирующий запрос к
// занятой сессии немедленно отклоняется, а не ставится в очередь.
type sessionLocks struct {
	mu     sync.Mutex
	active map[uuid.UUID]struct{}
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{active: make(map[uuid.UUID]struct{})}
}

// TryLock attempts to take the lock for a session without blocking.
func (l *sessionLocks) TryLock(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.active[id]; busy {
		return false
	}
	l.active[id] = struct{}{}
	return true
}

// Unlock releases the lock taken by TryLock.
func (l *sessionLocks) Unlock(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, id)
}
