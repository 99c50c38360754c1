package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-attempt-service/internal/domain"
)

// WinnerLedger implements the atomic slot claim as a single guarded UPDATE.
// The database applies the guard and the increment in one statement, so
// concurrent completions can never be handed the same rank and the counter
// can never pass the limit.
type WinnerLedger struct {
	pool *pgxpool.Pool
}

func NewWinnerLedger(pool *pgxpool.Pool) *WinnerLedger {
	return &WinnerLedger{pool: pool}
}

// ClaimSlot ignores the caller's winnerLimit: the quizzes row carries the
// authoritative limit and the statement guards against it directly.
func (l *WinnerLedger) ClaimSlot(ctx context.Context, quizID string, _ int) (int, bool, error) {
	var rank int
	err := l.pool.QueryRow(ctx,
		`UPDATE quizzes
		 SET current_winners = current_winners + 1
		 WHERE id = $1 AND current_winners < winner_limit
		 RETURNING current_winners`,
		quizID).Scan(&rank)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("claim winner slot: %w", err)
	}
	return rank, true, nil
}

func (l *WinnerLedger) WinnerCount(ctx context.Context, quizID string) (int, error) {
	var count int
	err := l.pool.QueryRow(ctx,
		`SELECT current_winners FROM quizzes WHERE id = $1`, quizID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("winner count: %w", err)
	}
	return count, nil
}

func (l *WinnerLedger) RecordWinner(ctx context.Context, winner domain.Winner, claim domain.RewardClaim) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin record winner: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO winners (quiz_id, wallet_address, rank, completion_time_ms, reward_amount, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		winner.QuizID, winner.WalletAddress, winner.Rank, winner.CompletionTimeMs, winner.RewardAmount, winner.CreatedAt); err != nil {
		return fmt.Errorf("insert winner: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO reward_claims (quiz_id, wallet_address, pool_tier, rank_in_pool, amount, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		claim.QuizID, claim.WalletAddress, claim.PoolTier, claim.RankInPool, claim.Amount, claim.Status); err != nil {
		return fmt.Errorf("insert reward claim: %w", err)
	}
	return tx.Commit(ctx)
}
