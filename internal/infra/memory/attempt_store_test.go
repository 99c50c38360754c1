package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func sampleAttempt() *domain.Attempt {
	return &domain.Attempt{
		SessionID:     "session-1",
		QuizID:        "quiz-1",
		WalletAddress: "0xwalletA",
		StartTime:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		QuestionOrder: []string{"q1", "q2"},
		Status:        domain.AttemptActive,
	}
}

func TestAttemptStoreEnforcesWalletUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	if err := store.Create(ctx, sampleAttempt()); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := sampleAttempt()
	dup.SessionID = "session-2"
	if err := store.Create(ctx, dup); !errors.Is(err, domain.ErrAlreadyAttempted) {
		t.Fatalf("expected already attempted, got %v", err)
	}

	other := sampleAttempt()
	other.SessionID = "session-3"
	other.WalletAddress = "0xwalletB"
	if err := store.Create(ctx, other); err != nil {
		t.Fatalf("other wallet: %v", err)
	}
}

func TestAttemptStoreGetIsolatesMutations(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	if err := store.Create(ctx, sampleAttempt()); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := store.Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// A mutation that is never Updated must not leak into the store.
	loaded.Status = domain.AttemptFailed
	loaded.Answers = append(loaded.Answers, domain.Answer{QuestionID: "q1"})

	fresh, err := store.Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("get fresh: %v", err)
	}
	if fresh.Status != domain.AttemptActive || len(fresh.Answers) != 0 {
		t.Fatalf("abandoned mutation leaked: %+v", fresh)
	}

	// After Update the new state is visible.
	if err := store.Update(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}
	fresh, _ = store.Get(ctx, "session-1")
	if fresh.Status != domain.AttemptFailed || len(fresh.Answers) != 1 {
		t.Fatalf("update not applied: %+v", fresh)
	}
}

func TestAttemptStoreUnknownSession(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Update(ctx, sampleAttempt()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
}
