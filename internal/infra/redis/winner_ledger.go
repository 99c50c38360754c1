package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quiz-attempt-service/internal/domain"
)

// claimSlotScript increments the winner counter only while it is below the
// limit and returns the new value; 0 means the slots are exhausted. Running
// it as one script is what makes concurrent completions safe: no two
// callers can observe the same pre-increment value.
var claimSlotScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
  return 0
end
return redis.call('INCR', KEYS[1])
`)

// WinnerLedger implements app.WinnerLedger on Redis.
// Keys:
//
//	quiz:{quizID}:winnercount -> counter
//	quiz:{quizID}:winners     -> list of winner docs
//	quiz:{quizID}:claims      -> list of pending claim docs
type WinnerLedger struct {
	client *redis.Client
}

func NewWinnerLedger(client *redis.Client) *WinnerLedger {
	return &WinnerLedger{client: client}
}

func (l *WinnerLedger) ClaimSlot(ctx context.Context, quizID string, winnerLimit int) (int, bool, error) {
	rank, err := claimSlotScript.Run(ctx, l.client, []string{l.countKey(quizID)}, winnerLimit).Int()
	if err != nil {
		return 0, false, fmt.Errorf("claim winner slot: %w", err)
	}
	if rank == 0 {
		return 0, false, nil
	}
	return rank, true, nil
}

func (l *WinnerLedger) WinnerCount(ctx context.Context, quizID string) (int, error) {
	count, err := l.client.Get(ctx, l.countKey(quizID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("winner count: %w", err)
	}
	return count, nil
}

func (l *WinnerLedger) RecordWinner(ctx context.Context, winner domain.Winner, claim domain.RewardClaim) error {
	winnerDoc, err := json.Marshal(winner)
	if err != nil {
		return fmt.Errorf("marshal winner: %w", err)
	}
	claimDoc, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("marshal claim: %w", err)
	}
	pipe := l.client.Pipeline()
	pipe.RPush(ctx, l.winnersKey(winner.QuizID), winnerDoc)
	pipe.RPush(ctx, l.claimsKey(claim.QuizID), claimDoc)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record winner: %w", err)
	}
	return nil
}

// SeedCount initializes the counter for quizzes loaded with prior winners.
func (l *WinnerLedger) SeedCount(ctx context.Context, quizID string, count int) error {
	return l.client.SetNX(ctx, l.countKey(quizID), count, 0).Err()
}

func (l *WinnerLedger) countKey(quizID string) string {
	return "quiz:" + quizID + ":winnercount"
}

func (l *WinnerLedger) winnersKey(quizID string) string {
	return "quiz:" + quizID + ":winners"
}

func (l *WinnerLedger) claimsKey(quizID string) string {
	return "quiz:" + quizID + ":claims"
}
