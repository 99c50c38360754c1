package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-attempt-service/internal/domain"
)

// AttemptStore keeps each attempt as a single JSON document so an appended
// answer and its status transition always land in one SET. Uniqueness per
// (quiz, wallet) is a SETNX key claimed before the first write; a lost
// SETNX, not a pre-check, is what yields ALREADY_ATTEMPTED.
// Keys:
//
//	attempt:{quizID}:{wallet}  -> sessionID   (uniqueness claim, no TTL)
//	session:{sessionID}        -> attempt doc
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl}
}

func (s *AttemptStore) Create(ctx context.Context, attempt *domain.Attempt) error {
	claimed, err := s.client.SetNX(ctx, s.walletKey(attempt.QuizID, attempt.WalletAddress), attempt.SessionID, 0).Result()
	if err != nil {
		return fmt.Errorf("claim attempt: %w", err)
	}
	if !claimed {
		return domain.ErrAlreadyAttempted
	}
	return s.write(ctx, attempt)
}

func (s *AttemptStore) Get(ctx context.Context, sessionID string) (*domain.Attempt, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return nil, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return &attempt, nil
}

func (s *AttemptStore) Update(ctx context.Context, attempt *domain.Attempt) error {
	return s.write(ctx, attempt)
}

func (s *AttemptStore) write(ctx context.Context, attempt *domain.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(attempt.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (s *AttemptStore) walletKey(quizID, wallet string) string {
	return "attempt:" + quizID + ":" + wallet
}
