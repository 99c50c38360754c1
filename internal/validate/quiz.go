// Package validate checks quiz definitions before they become playable.
// Every rule runs independently so callers can show all violations at once.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"quiz-attempt-service/internal/domain"
)

const (
	MinOptions = 2
	MaxOptions = 6

	MinWinnerLimit = 1
	MaxWinnerLimit = 10000

	MinTimePerQuestionSec = 5
	MaxTimePerQuestionSec = 300

	maxTitleLen = 100
)

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	amountPattern  = regexp.MustCompile(`^[0-9]+$`)
)

// ValidationErrors aggregates every violated rule.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, "; ")
}

// OrNil returns the list as an error, or nil when no rule was violated.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// QuizConfig is the raw quiz definition submitted by the creation flow.
// Amounts arrive as decimal strings in the token's smallest unit.
type QuizConfig struct {
	Title              string              `json:"title"`
	Questions          []domain.Question   `json:"questions"`
	RewardToken        string              `json:"rewardToken"`
	RewardAmount       string              `json:"rewardAmount"`
	WinnerLimit        int                 `json:"winnerLimit"`
	TimePerQuestionSec int                 `json:"timePerQuestionSec,omitempty"`
	RewardPools        []domain.RewardPool `json:"rewardPools,omitempty"`
	StakeToken         string              `json:"stakeToken,omitempty"`
	StakeAmount        string              `json:"stakeAmount,omitempty"`
	StartTime          *time.Time          `json:"startTime,omitempty"`
	EndTime            *time.Time          `json:"endTime,omitempty"`
}

// Question checks a single question's shape.
func Question(q domain.Question) ValidationErrors {
	var errs ValidationErrors

	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		errs = append(errs, fmt.Sprintf("question %q: needs %d-%d options, has %d", q.ID, MinOptions, MaxOptions, len(q.Options)))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			errs = append(errs, fmt.Sprintf("question %q: option %d is empty", q.ID, i))
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		errs = append(errs, fmt.Sprintf("question %q: correct index %d out of range [0,%d)", q.ID, q.CorrectIndex, len(q.Options)))
	}
	return errs
}

// QuizConfigErrors checks the whole definition. No rule short-circuits
// another; the result lists every violation.
func QuizConfigErrors(cfg QuizConfig) ValidationErrors {
	var errs ValidationErrors

	title := strings.TrimSpace(cfg.Title)
	if title == "" {
		errs = append(errs, "title is required")
	} else if len(title) > maxTitleLen {
		errs = append(errs, fmt.Sprintf("title exceeds %d characters", maxTitleLen))
	}

	if len(cfg.Questions) == 0 {
		errs = append(errs, "at least one question is required")
	}
	for _, q := range cfg.Questions {
		errs = append(errs, Question(q)...)
	}

	if !addressPattern.MatchString(cfg.RewardToken) {
		errs = append(errs, "reward token is not a valid address")
	}
	if !positiveAmount(cfg.RewardAmount) {
		errs = append(errs, "reward amount must be a positive numeric string")
	}

	if cfg.WinnerLimit < MinWinnerLimit || cfg.WinnerLimit > MaxWinnerLimit {
		errs = append(errs, fmt.Sprintf("winner limit must be in [%d,%d]", MinWinnerLimit, MaxWinnerLimit))
	}

	if cfg.TimePerQuestionSec != 0 && (cfg.TimePerQuestionSec < MinTimePerQuestionSec || cfg.TimePerQuestionSec > MaxTimePerQuestionSec) {
		errs = append(errs, fmt.Sprintf("time per question must be in [%d,%d] seconds", MinTimePerQuestionSec, MaxTimePerQuestionSec))
	}

	if len(cfg.RewardPools) > 0 {
		errs = append(errs, rewardPoolErrors(cfg.RewardPools, cfg.WinnerLimit)...)
	}

	if cfg.StakeToken != "" || cfg.StakeAmount != "" {
		if !addressPattern.MatchString(cfg.StakeToken) {
			errs = append(errs, "stake token is not a valid address")
		}
		if !positiveAmount(cfg.StakeAmount) {
			errs = append(errs, "stake amount must be a positive numeric string")
		}
	}

	if cfg.StartTime != nil && cfg.EndTime != nil && !cfg.EndTime.After(*cfg.StartTime) {
		errs = append(errs, "end time must be after start time")
	}

	return errs
}

// rewardPoolErrors enforces the pool shape: percentages cover the whole
// reward and winner counts cover the whole winner limit.
func rewardPoolErrors(pools []domain.RewardPool, winnerLimit int) ValidationErrors {
	var errs ValidationErrors
	sumPct, sumWinners := 0, 0
	for _, p := range pools {
		if p.WinnerCount <= 0 {
			errs = append(errs, fmt.Sprintf("pool tier %d: winner count must be positive", p.Tier))
		}
		if p.Percentage <= 0 {
			errs = append(errs, fmt.Sprintf("pool tier %d: percentage must be positive", p.Tier))
		}
		sumPct += p.Percentage
		sumWinners += p.WinnerCount
	}
	if sumPct != 100 {
		errs = append(errs, fmt.Sprintf("pool percentages sum to %d, want 100", sumPct))
	}
	if sumWinners != winnerLimit {
		errs = append(errs, fmt.Sprintf("pool winner counts sum to %d, want winner limit %d", sumWinners, winnerLimit))
	}
	return errs
}

func positiveAmount(s string) bool {
	if !amountPattern.MatchString(s) {
		return false
	}
	return strings.Trim(s, "0") != ""
}
