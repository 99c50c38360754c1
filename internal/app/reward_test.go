package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-attempt-service/internal/domain"
)

func tieredQuiz() domain.Quiz {
	return domain.Quiz{
		ID:                "quiz-1",
		RewardAmountTotal: 1000,
		WinnerLimit:       10,
		RewardPools: []domain.RewardPool{
			{Tier: 1, WinnerCount: 1, Percentage: 40},
			{Tier: 2, WinnerCount: 3, Percentage: 35},
			{Tier: 3, WinnerCount: 6, Percentage: 25},
		},
	}
}

func TestResolveRewardBands(t *testing.T) {
	quiz := tieredQuiz()

	cases := []struct {
		rank       int
		tier       int
		rankInPool int
		amount     int64
	}{
		{rank: 1, tier: 1, rankInPool: 1, amount: 400},       // 40% of 1000 / 1
		{rank: 2, tier: 2, rankInPool: 1, amount: 116},       // floor(350/3)
		{rank: 4, tier: 2, rankInPool: 3, amount: 116},
		{rank: 5, tier: 3, rankInPool: 1, amount: 41},        // floor(250/6)
		{rank: 10, tier: 3, rankInPool: 6, amount: 41},
	}
	for _, tc := range cases {
		out := resolveReward(quiz, tc.rank)
		require.False(t, out.Fallback, "rank %d", tc.rank)
		assert.Equal(t, tc.tier, out.PoolTier, "rank %d", tc.rank)
		assert.Equal(t, tc.rankInPool, out.RankInPool, "rank %d", tc.rank)
		assert.Equal(t, tc.amount, out.Amount, "rank %d", tc.rank)
	}
}

func TestResolveRewardCoversEveryRankOnce(t *testing.T) {
	quiz := tieredQuiz()

	var paid int64
	for rank := 1; rank <= quiz.WinnerLimit; rank++ {
		out := resolveReward(quiz, rank)
		require.False(t, out.Fallback, "rank %d should map to a configured tier", rank)
		paid += out.Amount
	}
	// Integer floors may leave dust, but never overpay.
	assert.LessOrEqual(t, paid, quiz.RewardAmountTotal)
}

func TestResolveRewardFallbackFlatSplit(t *testing.T) {
	quiz := tieredQuiz()
	// Misconfigured pools that cover only 4 of 10 ranks.
	quiz.RewardPools = quiz.RewardPools[:2]

	out := resolveReward(quiz, 7)
	require.True(t, out.Fallback)
	assert.Equal(t, int64(100), out.Amount) // 1000 / 10
}

func TestResolveRewardNoPools(t *testing.T) {
	quiz := tieredQuiz()
	quiz.RewardPools = nil

	out := resolveReward(quiz, 3)
	require.True(t, out.Fallback)
	assert.Equal(t, int64(100), out.Amount)
}
