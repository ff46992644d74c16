package trauma

import (
	"time"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
)

// HistoryEntry is one immutable stress mutation record. Amount is the
// requested change; FinalAmount is what applied after clamping and
// caps.
type HistoryEntry struct {
	ID             string
	CharacterID    string
	Source         string
	Amount         int
	FinalAmount    int
	PreviousStress int
	NewStress      int
	CreatedAt      time.Time
}

// StressChange records one stress mutation, including threshold
// crossings the caller turns into warnings or history annotations.
type StressChange struct {
	Previous        int
	New             int
	Applied         int
	CrossedWarning  bool
	ReachedTerminal bool
	LevelBefore     StressLevel
	LevelAfter      StressLevel
}

// ApplyStress adds amount to current stress, clamped to [0,100], and
// reports threshold crossings against the configured warning and
// terminal values. Negative amounts recover stress.
func ApplyStress(cfg Config, current, amount int) StressChange {
	previous := clampStress(current)
	next := clampStress(previous + amount)

	return StressChange{
		Previous:        previous,
		New:             next,
		Applied:         next - previous,
		CrossedWarning:  previous < cfg.CriticalWarningThreshold && next >= cfg.CriticalWarningThreshold,
		ReachedTerminal: previous < cfg.TerminalTriggerThreshold && next >= cfg.TerminalTriggerThreshold,
		LevelBefore:     LevelFor(previous),
		LevelAfter:      LevelFor(next),
	}
}

// CapEnvironmental limits how much environmental stress one turn may
// apply. appliedThisTurn is the environmental stress already applied
// this turn; the return value is the portion of amount that fits under
// the cap.
func CapEnvironmental(cfg Config, appliedThisTurn, amount int) int {
	if amount <= 0 {
		return 0
	}
	remaining := cfg.MaxEnvironmentalStress - appliedThisTurn
	if remaining <= 0 {
		return 0
	}
	if amount > remaining {
		return remaining
	}
	return amount
}

// ValidateAmount rejects damage amounts the economy cannot process.
func ValidateAmount(amount int) error {
	if amount < 0 {
		return apperrors.New(apperrors.CodeStressInvalidAmount, "damage amount must be non-negative")
	}
	return nil
}

func clampStress(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
