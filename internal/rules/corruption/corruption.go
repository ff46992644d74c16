// Package corruption tracks per-character psychological corruption:
// a 0..100 accumulator with a configurable stage ladder, one-way
// threshold flags at 25/50/75, and derived mechanical penalties.
package corruption

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
)

// Threshold values whose crossing trips a permanent flag and signals
// trauma acquisition.
const (
	ThresholdMinor  = 25
	ThresholdMajor  = 50
	ThresholdSevere = 75
)

// Stage names a sub-range of the corruption scale. Min and Max are
// inclusive.
type Stage struct {
	Name string
	Min  int
	Max  int
}

// StageLadder is a validated, ordered set of stages covering [0,100].
type StageLadder struct {
	stages []Stage
}

// DefaultStages returns the standard corruption stage ladder.
func DefaultStages() []Stage {
	return []Stage{
		{Name: "Uncorrupted", Min: 0, Max: 19},
		{Name: "Tainted", Min: 20, Max: 39},
		{Name: "Infected", Min: 40, Max: 59},
		{Name: "Blighted", Min: 60, Max: 79},
		{Name: "Corrupted", Min: 80, Max: 99},
		{Name: "Consumed", Min: 100, Max: 100},
	}
}

// NewStageLadder validates that stages partition [0,100] with no gaps
// or overlaps. Stage names are config-supplied; only the structure is
// enforced.
func NewStageLadder(stages []Stage) (*StageLadder, error) {
	if len(stages) == 0 {
		return nil, apperrors.New(apperrors.CodeRulesetInvalidStageLadder, "stage ladder is empty")
	}

	sorted := make([]Stage, len(stages))
	copy(sorted, stages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	next := 0
	for _, stage := range sorted {
		if strings.TrimSpace(stage.Name) == "" {
			return nil, apperrors.New(apperrors.CodeRulesetInvalidStageLadder, "stage name is empty")
		}
		if stage.Min != next || stage.Max < stage.Min || stage.Max > 100 {
			return nil, apperrors.WithMetadata(
				apperrors.CodeRulesetInvalidStageLadder,
				"stages must partition 0..100 without gaps or overlaps",
				map[string]string{
					"stage": stage.Name,
					"min":   fmt.Sprint(stage.Min),
					"max":   fmt.Sprint(stage.Max),
				},
			)
		}
		next = stage.Max + 1
	}
	if next != 101 {
		return nil, apperrors.WithMetadata(
			apperrors.CodeRulesetInvalidStageLadder,
			"stages must cover the full 0..100 range",
			map[string]string{"covered_to": fmt.Sprint(next - 1)},
		)
	}

	return &StageLadder{stages: sorted}, nil
}

// StageFor returns the stage containing v. Values are clamped into
// [0,100] first, so the lookup is total.
func (l *StageLadder) StageFor(v int) Stage {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	for _, stage := range l.stages {
		if v >= stage.Min && v <= stage.Max {
			return stage
		}
	}
	// Unreachable after validation.
	return l.stages[len(l.stages)-1]
}

// Stages returns the ladder in ascending order.
func (l *StageLadder) Stages() []Stage {
	out := make([]Stage, len(l.stages))
	copy(out, l.stages)
	return out
}

// MaxStatPenaltyPercent is the max-HP/AP reduction derived from the
// current corruption: 5% per full 10 points.
func MaxStatPenaltyPercent(corruption int) int {
	return (corruption / 10) * 5
}

// ResolveDicePenalty is the resolve-check dice penalty: one die per
// full 20 points.
func ResolveDicePenalty(corruption int) int {
	return corruption / 20
}

// FactionLocked reports whether corruption has grown visible enough to
// lock faction interactions.
func FactionLocked(corruption int) bool {
	return corruption >= ThresholdMajor
}

// HistoryEntry is one immutable corruption mutation record.
type HistoryEntry struct {
	ID          string
	CharacterID string
	Source      string
	Amount      int
	NewTotal    int
	CreatedAt   time.Time
}
