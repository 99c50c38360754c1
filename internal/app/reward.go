package app

import "quiz-attempt-service/internal/domain"

// rewardOutcome is the resolved payout for one claimed winner rank.
type rewardOutcome struct {
	Amount     int64
	PoolTier   int
	RankInPool int
	// Fallback marks the flat-split path taken when no configured pool
	// covers the rank; the resulting claim is flagged for operator review.
	Fallback bool
}

// resolveReward locates the pool whose cumulative rank band contains rank
// and computes the per-winner amount with integer floors. Ordered pools
// cover ranks [prior+1, prior+winnerCount]; a rank outside every band falls
// back to an even split of the total across the winner limit.
func resolveReward(quiz domain.Quiz, rank int) rewardOutcome {
	prior := 0
	for _, pool := range quiz.RewardPools {
		lo, hi := prior+1, prior+pool.WinnerCount
		if rank >= lo && rank <= hi {
			poolAmount := quiz.RewardAmountTotal * int64(pool.Percentage) / 100
			return rewardOutcome{
				Amount:     poolAmount / int64(pool.WinnerCount),
				PoolTier:   pool.Tier,
				RankInPool: rank - prior,
			}
		}
		prior = hi
	}
	return rewardOutcome{
		Amount:     quiz.RewardAmountTotal / int64(quiz.WinnerLimit),
		RankInPool: rank,
		Fallback:   true,
	}
}
