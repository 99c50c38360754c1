package memory

import (
	"context"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore. The
// (quiz, wallet) uniqueness that a relational store enforces with a
// constraint is enforced here with an index map under one lock.
type AttemptStore struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Attempt
	byWallet map[string]string // quizID+"|"+wallet -> sessionID
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		byID:     make(map[string]*domain.Attempt),
		byWallet: make(map[string]string),
	}
}

func (s *AttemptStore) Create(_ context.Context, attempt *domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := walletKey(attempt.QuizID, attempt.WalletAddress)
	if _, ok := s.byWallet[key]; ok {
		return domain.ErrAlreadyAttempted
	}
	s.byWallet[key] = attempt.SessionID
	s.byID[attempt.SessionID] = cloneAttempt(attempt)
	return nil
}

func (s *AttemptStore) Get(_ context.Context, sessionID string) (*domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.byID[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	// Callers mutate the returned attempt before Update; hand out a copy so
	// an abandoned mutation leaves the stored state untouched.
	return cloneAttempt(attempt), nil
}

func (s *AttemptStore) Update(_ context.Context, attempt *domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[attempt.SessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	s.byID[attempt.SessionID] = cloneAttempt(attempt)
	return nil
}

func walletKey(quizID, wallet string) string {
	return quizID + "|" + wallet
}

func cloneAttempt(a *domain.Attempt) *domain.Attempt {
	c := *a
	c.QuestionOrder = append([]string(nil), a.QuestionOrder...)
	c.Answers = append([]domain.Answer(nil), a.Answers...)
	if a.EndTime != nil {
		end := *a.EndTime
		c.EndTime = &end
	}
	return &c
}
