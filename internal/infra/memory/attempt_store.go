package memory

import (
	"sync"

	"classquiz-service/internal/app"
)

// AttemptStore is an in-memory implementation of app.AttemptStore. One active
// attempt per user; putting a new one discards the old.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) Put(userID string, attempt *app.Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[userID] = attempt
}

func (s *AttemptStore) Get(userID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[userID]
	return attempt, ok
}

func (s *AttemptStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, userID)
}
