package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-attempt-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store). Question
// content is immutable once a quiz is active, so implementations may cache;
// the live winner counter is never served from here.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptStore abstracts how attempts are stored (in-memory, Redis, etc).
type AttemptStore interface {
	// Create persists a new attempt. It returns domain.ErrAlreadyAttempted
	// when the (quiz, wallet) pair already holds one; the store's uniqueness
	// guarantee, not a pre-check, is the canonical source of that outcome.
	Create(ctx context.Context, attempt *domain.Attempt) error
	Get(ctx context.Context, sessionID string) (*domain.Attempt, error)
	// Update replaces the attempt state in a single write, so an appended
	// answer and its status transition land together or not at all.
	Update(ctx context.Context, attempt *domain.Attempt) error
}

// WinnerLedger owns the only cross-attempt state: the per-quiz winner
// counter and the winner/claim records.
type WinnerLedger interface {
	// ClaimSlot increments the quiz's winner counter only if it is below
	// winnerLimit and returns the new value as the claimed rank. The
	// increment and the guard must be one atomic storage operation.
	ClaimSlot(ctx context.Context, quizID string, winnerLimit int) (rank int, won bool, err error)
	RecordWinner(ctx context.Context, winner domain.Winner, claim domain.RewardClaim) error
	// WinnerCount reads the live counter without claiming. Session admission
	// gates on this, not on a possibly cached quiz document.
	WinnerCount(ctx context.Context, quizID string) (int, error)
}

// SessionStart is the response to a successful StartSession.
type SessionStart struct {
	SessionID          string                  `json:"sessionId"`
	Questions          []domain.PublicQuestion `json:"questions"`
	TimePerQuestionSec int                     `json:"timePerQuestionSec"`
	// ServerTime lets clients display clock skew; it is never an input to
	// any deadline decision.
	ServerTime time.Time `json:"serverTime"`
}

// AttemptResult summarizes a finished attempt.
type AttemptResult struct {
	Status           domain.AttemptStatus `json:"status"`
	Score            int                  `json:"score"`
	TotalQuestions   int                  `json:"totalQuestions"`
	CompletionTimeMs int64                `json:"completionTimeMs"`
	IsWinner         bool                 `json:"isWinner"`
	Rank             int                  `json:"rank,omitempty"`
	RewardAmount     int64                `json:"rewardAmount,omitempty"`
}

// SubmitResult is the outcome of one answer submission.
type SubmitResult struct {
	Correct      bool                   `json:"correct"`
	IsComplete   bool                   `json:"isComplete"`
	TimedOut     bool                   `json:"timedOut,omitempty"`
	NextQuestion *domain.PublicQuestion `json:"nextQuestion,omitempty"`
	Result       *AttemptResult         `json:"result,omitempty"`
}

// AttemptService contains the attempt lifecycle use cases: session
// initiation, answer processing, and winner rank assignment.
type AttemptService struct {
	quizzes  QuizRepository
	attempts AttemptStore
	ledger   WinnerLedger
	now      func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// Option customizes an AttemptService, mainly for deterministic tests.
type Option func(*AttemptService)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *AttemptService) { s.now = now }
}

// WithShuffleSeed makes question shuffling deterministic.
func WithShuffleSeed(seed int64) Option {
	return func(s *AttemptService) { s.rnd = rand.New(rand.NewSource(seed)) }
}

func NewAttemptService(quizzes QuizRepository, attempts AttemptStore, ledger WinnerLedger, opts ...Option) *AttemptService {
	s := &AttemptService{
		quizzes:  quizzes,
		attempts: attempts,
		ledger:   ledger,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession creates the wallet's single attempt for a quiz: it shuffles
// the question order, anchors the authoritative start time, and returns the
// questions with correct indexes stripped.
func (s *AttemptService) StartSession(ctx context.Context, quizID, walletAddress string) (SessionStart, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return SessionStart{}, err
	}
	if quiz.Status != domain.QuizActive {
		return SessionStart{}, domain.ErrQuizClosed
	}
	if quiz.CurrentWinners >= quiz.WinnerLimit {
		return SessionStart{}, domain.ErrQuizClosed
	}
	// The quiz document may come from a cache whose counter lags; the ledger
	// holds the live count.
	count, err := s.ledger.WinnerCount(ctx, quiz.ID)
	if err != nil {
		return SessionStart{}, err
	}
	if count >= quiz.WinnerLimit {
		return SessionStart{}, domain.ErrQuizClosed
	}

	s.rndMu.Lock()
	order := shuffledOrder(quiz.Questions, s.rnd)
	s.rndMu.Unlock()

	now := s.now()
	attempt := &domain.Attempt{
		SessionID:     uuid.NewString(),
		QuizID:        quiz.ID,
		WalletAddress: walletAddress,
		StartTime:     now,
		QuestionOrder: order,
		Status:        domain.AttemptActive,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return SessionStart{}, err
	}

	questions := make([]domain.PublicQuestion, 0, len(order))
	for _, id := range order {
		q, _ := quiz.QuestionByID(id)
		questions = append(questions, q.Public())
	}
	return SessionStart{
		SessionID:          attempt.SessionID,
		Questions:          questions,
		TimePerQuestionSec: quiz.TimePerQuestionSec,
		ServerTime:         now,
	}, nil
}

// SubmitAnswer records one answer and decides correctness and termination.
// Deadlines are checked against the service clock at receipt; the client
// timestamp is persisted for audit only.
func (s *AttemptService) SubmitAnswer(ctx context.Context, sessionID, walletAddress, questionID string, selectedIndex int, clientTimestamp time.Time) (SubmitResult, error) {
	attempt, err := s.attempts.Get(ctx, sessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	if attempt.Status.Terminal() {
		return SubmitResult{}, domain.ErrSessionNotFound
	}
	if attempt.WalletAddress != walletAddress {
		return SubmitResult{}, domain.ErrUnauthorized
	}
	if attempt.HasAnswered(questionID) {
		return SubmitResult{}, domain.ErrAlreadyAnswered
	}

	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return SubmitResult{}, err
	}

	// The ordinal is derived from the engine's own append order; a
	// client-supplied position is never trusted.
	ordinal := len(attempt.Answers)
	serverTime := s.now()

	if serverTime.After(attempt.Deadline(ordinal, quiz.TimePerQuestion())) {
		attempt.Answers = append(attempt.Answers, domain.Answer{
			QuestionID:      questionID,
			SelectedIndex:   domain.TimeoutSentinel,
			ClientTimestamp: clientTimestamp,
			ServerTimestamp: serverTime,
		})
		s.finish(attempt, domain.AttemptTimeout, serverTime)
		if err := s.attempts.Update(ctx, attempt); err != nil {
			return SubmitResult{}, err
		}
		// Correctness is not revealed on a missed deadline.
		return SubmitResult{
			IsComplete: true,
			TimedOut:   true,
			Result:     s.result(attempt, quiz),
		}, nil
	}

	question, ok := quiz.QuestionByID(questionID)
	if !ok {
		return SubmitResult{}, domain.ErrQuestionNotFound
	}

	correct := selectedIndex == question.CorrectIndex
	attempt.Answers = append(attempt.Answers, domain.Answer{
		QuestionID:      questionID,
		SelectedIndex:   selectedIndex,
		Correct:         correct,
		ClientTimestamp: clientTimestamp,
		ServerTimestamp: serverTime,
	})

	if !correct {
		s.finish(attempt, domain.AttemptFailed, serverTime)
		if err := s.attempts.Update(ctx, attempt); err != nil {
			return SubmitResult{}, err
		}
		return SubmitResult{IsComplete: true, Result: s.result(attempt, quiz)}, nil
	}

	if ordinal+1 < len(attempt.QuestionOrder) {
		attempt.Score = correctCount(attempt.Answers)
		if err := s.attempts.Update(ctx, attempt); err != nil {
			return SubmitResult{}, err
		}
		next, _ := quiz.QuestionByID(attempt.QuestionOrder[ordinal+1])
		public := next.Public()
		return SubmitResult{Correct: true, NextQuestion: &public}, nil
	}

	// Last question answered correctly: the attempt completes and races the
	// other completions for a winner slot. The terminal state is persisted
	// before the claim so a write failure anywhere in this sequence leaves
	// either no claimed slot or a terminal attempt a retry cannot re-run;
	// it can never hand the same wallet a second slot.
	s.finish(attempt, domain.AttemptCompleted, serverTime)
	attempt.CompletionTimeMs = serverTime.Sub(attempt.StartTime).Milliseconds()
	if err := s.attempts.Update(ctx, attempt); err != nil {
		return SubmitResult{}, err
	}
	if err := s.assignWinnerRank(ctx, quiz, attempt, serverTime); err != nil {
		return SubmitResult{}, err
	}
	if attempt.IsWinner {
		if err := s.attempts.Update(ctx, attempt); err != nil {
			return SubmitResult{}, err
		}
	}
	return SubmitResult{Correct: true, IsComplete: true, Result: s.result(attempt, quiz)}, nil
}

// assignWinnerRank claims a slot against the live winner counter and, on a
// win, resolves the reward tier and persists the winner and pending claim.
// Losing the race is not an error: the attempt stays completed with no
// reward.
func (s *AttemptService) assignWinnerRank(ctx context.Context, quiz domain.Quiz, attempt *domain.Attempt, at time.Time) error {
	rank, won, err := s.ledger.ClaimSlot(ctx, quiz.ID, quiz.WinnerLimit)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	outcome := resolveReward(quiz, rank)
	status := domain.ClaimPending
	if outcome.Fallback {
		status = domain.ClaimReview
		log.Printf("quiz %s: no reward pool covers rank %d, flat split applied", quiz.ID, rank)
	}

	winner := domain.Winner{
		QuizID:           quiz.ID,
		WalletAddress:    attempt.WalletAddress,
		Rank:             rank,
		CompletionTimeMs: attempt.CompletionTimeMs,
		RewardAmount:     outcome.Amount,
		CreatedAt:        at,
	}
	claim := domain.RewardClaim{
		QuizID:        quiz.ID,
		WalletAddress: attempt.WalletAddress,
		PoolTier:      outcome.PoolTier,
		RankInPool:    outcome.RankInPool,
		Amount:        outcome.Amount,
		Status:        status,
	}
	if err := s.ledger.RecordWinner(ctx, winner, claim); err != nil {
		return err
	}

	attempt.IsWinner = true
	attempt.Rank = rank
	attempt.RewardAmount = outcome.Amount
	return nil
}

// finish applies a terminal transition: status, end time, and final score.
func (s *AttemptService) finish(attempt *domain.Attempt, status domain.AttemptStatus, at time.Time) {
	attempt.Status = status
	end := at
	attempt.EndTime = &end
	attempt.Score = correctCount(attempt.Answers)
}

func (s *AttemptService) result(attempt *domain.Attempt, quiz domain.Quiz) *AttemptResult {
	return &AttemptResult{
		Status:           attempt.Status,
		Score:            attempt.Score,
		TotalQuestions:   len(quiz.Questions),
		CompletionTimeMs: attempt.CompletionTimeMs,
		IsWinner:         attempt.IsWinner,
		Rank:             attempt.Rank,
		RewardAmount:     attempt.RewardAmount,
	}
}

func correctCount(answers []domain.Answer) int {
	n := 0
	for i := range answers {
		if answers[i].Correct {
			n++
		}
	}
	return n
}
