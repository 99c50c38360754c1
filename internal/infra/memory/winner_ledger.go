package memory

import (
	"context"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// WinnerLedger is an in-memory implementation of app.WinnerLedger. The
// guarded increment runs under one lock, mirroring the conditional
// UPDATE..RETURNING a relational store would issue.
type WinnerLedger struct {
	mu       sync.Mutex
	counters map[string]int
	winners  []domain.Winner
	claims   []domain.RewardClaim
}

func NewWinnerLedger() *WinnerLedger {
	return &WinnerLedger{counters: make(map[string]int)}
}

// SeedCount sets a quiz's winner counter, for quizzes loaded with prior winners.
func (l *WinnerLedger) SeedCount(quizID string, count int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counters[quizID] = count
}

func (l *WinnerLedger) ClaimSlot(_ context.Context, quizID string, winnerLimit int) (int, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counters[quizID] >= winnerLimit {
		return 0, false, nil
	}
	l.counters[quizID]++
	return l.counters[quizID], true, nil
}

func (l *WinnerLedger) WinnerCount(_ context.Context, quizID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counters[quizID], nil
}

func (l *WinnerLedger) RecordWinner(_ context.Context, winner domain.Winner, claim domain.RewardClaim) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.winners = append(l.winners, winner)
	l.claims = append(l.claims, claim)
	return nil
}

// Winners returns the recorded winners for a quiz, for inspection in tests
// and the demo path.
func (l *WinnerLedger) Winners(quizID string) []domain.Winner {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Winner, 0, len(l.winners))
	for _, w := range l.winners {
		if w.QuizID == quizID {
			out = append(out, w)
		}
	}
	return out
}

// Claims returns the recorded reward claims for a quiz.
func (l *WinnerLedger) Claims(quizID string) []domain.RewardClaim {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.RewardClaim, 0, len(l.claims))
	for _, c := range l.claims {
		if c.QuizID == quizID {
			out = append(out, c)
		}
	}
	return out
}
