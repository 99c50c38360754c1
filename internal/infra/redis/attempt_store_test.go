package redis

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func sampleAttempt() *domain.Attempt {
	return &domain.Attempt{
		SessionID:     "c2a7cbee-95c1-4a7e-a193-26694b58d0b3",
		QuizID:        "quiz-1",
		WalletAddress: "0xwalletA",
		StartTime:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		QuestionOrder: []string{"q2", "q1"},
		Answers:       []domain.Answer{},
		Status:        domain.AttemptActive,
	}
}

func TestAttemptStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore(newTestClient(t), time.Hour)

	attempt := sampleAttempt()
	if err := store.Create(ctx, attempt); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := store.Get(ctx, attempt.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(attempt, loaded) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", attempt, loaded)
	}

	loaded.Answers = append(loaded.Answers, domain.Answer{QuestionID: "q2", SelectedIndex: 1, Correct: true})
	loaded.Status = domain.AttemptFailed
	if err := store.Update(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}
	fresh, err := store.Get(ctx, attempt.SessionID)
	if err != nil {
		t.Fatalf("get fresh: %v", err)
	}
	if fresh.Status != domain.AttemptFailed || len(fresh.Answers) != 1 {
		t.Fatalf("update lost: %+v", fresh)
	}
}

func TestAttemptStoreWalletUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore(newTestClient(t), time.Hour)

	if err := store.Create(ctx, sampleAttempt()); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := sampleAttempt()
	dup.SessionID = "11111111-2222-3333-4444-555555555555"
	if err := store.Create(ctx, dup); !errors.Is(err, domain.ErrAlreadyAttempted) {
		t.Fatalf("expected already attempted, got %v", err)
	}

	other := sampleAttempt()
	other.SessionID = "66666666-7777-8888-9999-000000000000"
	other.WalletAddress = "0xwalletB"
	if err := store.Create(ctx, other); err != nil {
		t.Fatalf("other wallet: %v", err)
	}
}

func TestAttemptStoreUnknownSession(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore(newTestClient(t), time.Hour)

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
