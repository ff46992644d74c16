// Package check models multi-step "chained" skill checks as a small
// per-attempt state machine: Pending -> InProgress -> one of Success,
// Failed, or Abandoned, with per-step retry budgets.
package check

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
)

// Status is the lifecycle state of a chained check.
type Status int

const (
	Pending Status = iota
	InProgress
	Success
	Failed
	Abandoned
)

// String returns the storage key for the status.
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case InProgress:
		return "in_progress"
	case Success:
		return "success"
	case Failed:
		return "failed"
	case Abandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// ParseStatus maps a storage key back to a status.
func ParseStatus(name string) (Status, error) {
	switch name {
	case "pending":
		return Pending, nil
	case "in_progress":
		return InProgress, nil
	case "success":
		return Success, nil
	case "failed":
		return Failed, nil
	case "abandoned":
		return Abandoned, nil
	default:
		return 0, apperrors.WithMetadata(
			apperrors.CodeUnknown,
			"unknown chained check status",
			map[string]string{"status": name},
		)
	}
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == Success || s == Failed || s == Abandoned
}

// Step is one link in a check chain.
type Step struct {
	Name           string
	Skill          string
	Difficulty     int
	RetriesAllowed int
}

// State is one character's attempt at a check chain. CurrentStepIndex
// is monotonic non-decreasing until a terminal status is reached.
type State struct {
	CheckID       string
	CharacterID   string
	ChainName     string
	Steps         []Step
	CurrentStep   int
	RetriesUsed   int
	AwaitingRetry bool
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewChain starts a Pending chain attempt.
func NewChain(checkID, characterID, chainName string, steps []Step, now time.Time) (State, error) {
	if strings.TrimSpace(checkID) == "" {
		return State{}, apperrors.New(apperrors.CodeChainEmptyCheckID, "check id is required")
	}
	if strings.TrimSpace(characterID) == "" {
		return State{}, apperrors.New(apperrors.CodeChainEmptyCharacterID, "character id is required")
	}
	if len(steps) == 0 {
		return State{}, apperrors.New(apperrors.CodeChainNoSteps, "chain needs at least one step")
	}

	owned := make([]Step, len(steps))
	copy(owned, steps)

	return State{
		CheckID:     checkID,
		CharacterID: characterID,
		ChainName:   chainName,
		Steps:       owned,
		Status:      Pending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsComplete reports whether the attempt has reached a terminal
// status.
func (s *State) IsComplete() bool {
	return s.Status.Terminal()
}

// Step returns the step under attempt.
func (s *State) Step() Step {
	return s.Steps[s.CurrentStep]
}

// Begin moves a Pending attempt to InProgress.
func (s *State) Begin(now time.Time) error {
	if s.Status.Terminal() {
		return s.terminalErr()
	}
	s.Status = InProgress
	s.UpdatedAt = now
	return nil
}

// RecordStepResult applies one roll outcome to the current step. A
// success advances the chain (completing it on the last step); a
// failure either enters the awaiting-retry sub-state, if the step has
// retry budget left, or fails the whole chain.
func (s *State) RecordStepResult(success bool, now time.Time) error {
	if s.Status.Terminal() {
		return s.terminalErr()
	}
	s.Status = InProgress
	s.UpdatedAt = now

	if success {
		s.AwaitingRetry = false
		if s.CurrentStep == len(s.Steps)-1 {
			s.Status = Success
			return nil
		}
		s.CurrentStep++
		s.RetriesUsed = 0
		return nil
	}

	if s.RetriesUsed < s.Step().RetriesAllowed {
		s.AwaitingRetry = true
		return nil
	}
	s.AwaitingRetry = false
	s.Status = Failed
	return nil
}

// Retry spends one retry on the current step. It is only legal while
// the attempt is awaiting a retry decision.
func (s *State) Retry(now time.Time) error {
	if s.Status.Terminal() {
		return s.terminalErr()
	}
	if !s.AwaitingRetry {
		return apperrors.WithMetadata(
			apperrors.CodeChainNoRetries,
			"chain is not awaiting a retry",
			map[string]string{"check_id": s.CheckID},
		)
	}
	s.RetriesUsed++
	s.AwaitingRetry = false
	s.UpdatedAt = now
	return nil
}

// Abandon terminates a non-terminal attempt.
func (s *State) Abandon(now time.Time) error {
	if s.Status.Terminal() {
		return s.terminalErr()
	}
	s.Status = Abandoned
	s.AwaitingRetry = false
	s.UpdatedAt = now
	return nil
}

func (s *State) terminalErr() error {
	return apperrors.WithMetadata(
		apperrors.CodeChainTerminalState,
		"chained check already reached a terminal status",
		map[string]string{
			"check_id": s.CheckID,
			"status":   s.Status.String(),
		},
	)
}
