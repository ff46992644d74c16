package corruption

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
)

// Tracker is one character's corruption state. Threshold flags are
// monotonic: once tripped they never reset, even if corruption later
// drops below the threshold.
type Tracker struct {
	CharacterID string
	Current     int
	Stage       string

	Threshold25Triggered bool
	Threshold50Triggered bool
	Threshold75Triggered bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Change records one corruption mutation, including any thresholds
// newly tripped by the change.
type Change struct {
	Previous          int
	New               int
	Applied           int
	StageBefore       string
	StageAfter        string
	ThresholdsTripped []int
	Consumed          bool
}

// NewTracker returns an uncorrupted tracker for the character.
func NewTracker(characterID string, ladder *StageLadder, now time.Time) (Tracker, error) {
	if strings.TrimSpace(characterID) == "" {
		return Tracker{}, apperrors.New(apperrors.CodeCorruptionEmptyCharacterID, "character id is required")
	}
	return Tracker{
		CharacterID: characterID,
		Stage:       ladder.StageFor(0).Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Add applies a signed corruption delta, clamps the total to [0,100],
// recomputes the stage, and trips any newly crossed threshold flags.
// Each tripped threshold signals a trauma acquisition to the caller.
func (t *Tracker) Add(amount int, source string, ladder *StageLadder, now time.Time) (Change, error) {
	if strings.TrimSpace(source) == "" {
		return Change{}, apperrors.New(apperrors.CodeCorruptionEmptySource, "corruption source is required")
	}

	previous := t.Current
	next := previous + amount
	if next < 0 {
		next = 0
	}
	if next > 100 {
		next = 100
	}

	change := Change{
		Previous:    previous,
		New:         next,
		Applied:     next - previous,
		StageBefore: t.Stage,
		Consumed:    next >= 100,
	}

	if next >= ThresholdMinor && !t.Threshold25Triggered {
		t.Threshold25Triggered = true
		change.ThresholdsTripped = append(change.ThresholdsTripped, ThresholdMinor)
	}
	if next >= ThresholdMajor && !t.Threshold50Triggered {
		t.Threshold50Triggered = true
		change.ThresholdsTripped = append(change.ThresholdsTripped, ThresholdMajor)
	}
	if next >= ThresholdSevere && !t.Threshold75Triggered {
		t.Threshold75Triggered = true
		change.ThresholdsTripped = append(change.ThresholdsTripped, ThresholdSevere)
	}

	t.Current = next
	t.Stage = ladder.StageFor(next).Name
	t.UpdatedAt = now
	change.StageAfter = t.Stage

	return change, nil
}

// IsConsumed reports whether corruption has reached the terminal
// value.
func (t *Tracker) IsConsumed() bool {
	return t.Current >= 100
}
