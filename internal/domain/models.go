package domain

import "time"

// QuizStatus is the lifecycle state of a quiz.
type QuizStatus string

const (
	QuizDraft     QuizStatus = "draft"
	QuizActive    QuizStatus = "active"
	QuizCompleted QuizStatus = "completed"
	QuizCancelled QuizStatus = "cancelled"
)

// AttemptStatus is the lifecycle state of a single wallet's attempt.
// Every state except AttemptActive is terminal.
type AttemptStatus string

const (
	AttemptActive    AttemptStatus = "active"
	AttemptCompleted AttemptStatus = "completed"
	AttemptFailed    AttemptStatus = "failed"
	AttemptTimeout   AttemptStatus = "timeout"
)

// Terminal reports whether the status rejects further submissions.
func (s AttemptStatus) Terminal() bool {
	return s != AttemptActive
}

// Question models an MCQ question with a single correct option index.
// Immutable once the quiz is active; CorrectIndex never leaves the server.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Public strips the answer from a question for client delivery.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{ID: q.ID, Text: q.Text, Options: q.Options}
}

// PublicQuestion is the client-facing projection of a Question.
type PublicQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// RewardPool is a contiguous band of winner ranks sharing a percentage of
// the total reward.
type RewardPool struct {
	Tier        int `json:"tier"`
	WinnerCount int `json:"winnerCount"`
	Percentage  int `json:"percentage"`
}

// Quiz is the authoritative quiz definition plus its live winner counter.
type Quiz struct {
	ID                 string       `json:"id"`
	Title              string       `json:"title"`
	Questions          []Question   `json:"questions"`
	RewardToken        string       `json:"rewardToken"`
	RewardAmountTotal  int64        `json:"rewardAmountTotal"` // smallest currency unit
	WinnerLimit        int          `json:"winnerLimit"`
	CurrentWinners     int          `json:"currentWinners"`
	TimePerQuestionSec int          `json:"timePerQuestionSec"`
	RewardPools        []RewardPool `json:"rewardPools,omitempty"`
	Status             QuizStatus   `json:"status"`
}

// QuestionByID resolves a question from the authoritative set.
func (q Quiz) QuestionByID(id string) (Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return q.Questions[i], true
		}
	}
	return Question{}, false
}

// TimePerQuestion returns the per-question allowance as a duration.
func (q Quiz) TimePerQuestion() time.Duration {
	return time.Duration(q.TimePerQuestionSec) * time.Second
}

// TimeoutSentinel is the SelectedIndex recorded when a deadline is missed.
const TimeoutSentinel = -1

// Answer is one recorded submission. ServerTimestamp is captured by the
// engine at receipt and is the only timestamp used for deadline decisions;
// ClientTimestamp is kept for audit only.
type Answer struct {
	QuestionID      string    `json:"questionId"`
	SelectedIndex   int       `json:"selectedIndex"`
	Correct         bool      `json:"correct"`
	ClientTimestamp time.Time `json:"clientTimestamp"`
	ServerTimestamp time.Time `json:"serverTimestamp"`
}

// Attempt is one wallet's single run through a quiz. Answers are
// append-only; the next question's position is always the count of answers
// already recorded.
type Attempt struct {
	SessionID        string        `json:"sessionId"`
	QuizID           string        `json:"quizId"`
	WalletAddress    string        `json:"walletAddress"`
	StartTime        time.Time     `json:"startTime"` // server clock at creation, set once
	QuestionOrder    []string      `json:"questionOrder"`
	Answers          []Answer      `json:"answers"`
	Status           AttemptStatus `json:"status"`
	Score            int           `json:"score"`
	EndTime          *time.Time    `json:"endTime,omitempty"`
	CompletionTimeMs int64         `json:"completionTimeMs,omitempty"`
	IsWinner         bool          `json:"isWinner"`
	Rank             int           `json:"rank,omitempty"`
	RewardAmount     int64         `json:"rewardAmount,omitempty"`
}

// HasAnswered reports whether a question id is already recorded.
func (a *Attempt) HasAnswered(questionID string) bool {
	for i := range a.Answers {
		if a.Answers[i].QuestionID == questionID {
			return true
		}
	}
	return false
}

// Deadline computes the server-anchored deadline for the question at the
// given ordinal position in the shuffled order.
func (a *Attempt) Deadline(ordinal int, perQuestion time.Duration) time.Time {
	return a.StartTime.Add(time.Duration(ordinal+1) * perQuestion)
}

// Winner is a successful completion that claimed a reward slot.
type Winner struct {
	QuizID           string    `json:"quizId"`
	WalletAddress    string    `json:"walletAddress"`
	Rank             int       `json:"rank"`
	CompletionTimeMs int64     `json:"completionTimeMs"`
	RewardAmount     int64     `json:"rewardAmount"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ClaimStatus tracks a reward claim through settlement.
type ClaimStatus string

const (
	ClaimPending ClaimStatus = "pending"
	// ClaimReview marks claims created through the flat-split fallback when
	// no configured pool covered the rank; operators resolve these manually.
	ClaimReview ClaimStatus = "review"
)

// RewardClaim is handed to the on-chain settlement collaborator.
type RewardClaim struct {
	QuizID        string      `json:"quizId"`
	WalletAddress string      `json:"walletAddress"`
	PoolTier      int         `json:"poolTier"`
	RankInPool    int         `json:"rankInPool"`
	Amount        int64       `json:"amount"`
	Status        ClaimStatus `json:"status"`
}
