// Package fumble maps critical-failure outcomes to time- or
// condition-bound consequences. The consequence table is constructed
// from configuration and immutable afterwards; there is no package
// level state.
package fumble

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
)

// Type names a fumble outcome. It is an open set: types the table does
// not know fall back to the generic consequence.
type Type string

const (
	TrustShattered    Type = "trust_shattered"
	ChallengeAccepted Type = "challenge_accepted"
	LieExposed        Type = "lie_exposed"
	SubjectBroken     Type = "subject_broken"
)

// TargetPlaceholder is substituted with the target id when a blueprint
// is instantiated.
const TargetPlaceholder = "<target>"

// Blueprint is an uninstantiated consequence: what happens, how long
// it lasts, and how it can be recovered from. A nil Duration means the
// consequence never time-expires and is cleared only by satisfying the
// recovery condition or by explicit removal.
type Blueprint struct {
	Description       string
	Duration          *time.Duration
	RecoveryCondition string
}

// Consequence is one active fumble consequence applied to a character.
type Consequence struct {
	ConsequenceID     string
	CharacterID       string
	TargetID          string
	SkillID           string
	FumbleType        Type
	Description       string
	Duration          *time.Duration
	RecoveryCondition string
	IsActive          bool
	CreatedAt         time.Time
}

// IsExpired reports whether the consequence has timed out as of asOf.
// Consequences without a duration never time-expire.
func (c Consequence) IsExpired(asOf time.Time) bool {
	if c.Duration == nil {
		return false
	}
	return asOf.Sub(c.CreatedAt) >= *c.Duration
}

// Table maps fumble types to blueprints. Build a Table once at load
// time and share it; it is safe for concurrent reads.
type Table struct {
	entries map[Type]Blueprint
	generic Blueprint
}

// NewTable copies the entries so later mutation of the input map
// cannot change resolution.
func NewTable(entries map[Type]Blueprint, generic Blueprint) *Table {
	owned := make(map[Type]Blueprint, len(entries))
	for fumbleType, blueprint := range entries {
		owned[fumbleType] = blueprint
	}
	return &Table{entries: owned, generic: generic}
}

// DefaultTable returns the standard consequence catalogue.
func DefaultTable() *Table {
	return NewTable(map[Type]Blueprint{
		TrustShattered: {
			Description:       "Your attempt backfired catastrophically. " + TargetPlaceholder + " will no longer listen to your arguments.",
			RecoveryCondition: "complete_quest_for_" + TargetPlaceholder,
		},
		ChallengeAccepted: {
			Description:       "The target refuses to be cowed and turns on you, furious.",
			RecoveryCondition: "combat_ends",
		},
		LieExposed: {
			Description:       "Your lie to " + TargetPlaceholder + " was completely exposed. They will never trust your word again.",
			RecoveryCondition: "benefit_" + TargetPlaceholder,
		},
		SubjectBroken: {
			Description:       "The subject is broken beyond recovery. Nothing more can be extracted.",
			RecoveryCondition: "",
		},
	}, Blueprint{
		Description: "The failure lingers, shaking your confidence.",
		Duration:    durationPtr(10 * time.Minute),
	})
}

// Blueprint resolves a fumble type. known is false when the generic
// fallback was used.
func (t *Table) Blueprint(fumbleType Type) (blueprint Blueprint, known bool) {
	if entry, ok := t.entries[fumbleType]; ok {
		return entry, true
	}
	return t.generic, false
}

// Build instantiates a consequence for a character, substituting the
// target into the blueprint's description and recovery condition.
func (t *Table) Build(consequenceID, characterID, targetID, skillID string, fumbleType Type, now time.Time) (Consequence, error) {
	if strings.TrimSpace(consequenceID) == "" {
		return Consequence{}, apperrors.New(apperrors.CodeFumbleEmptyConsequenceID, "consequence id is required")
	}
	if strings.TrimSpace(characterID) == "" {
		return Consequence{}, apperrors.New(apperrors.CodeFumbleEmptyCharacterID, "character id is required")
	}

	blueprint, _ := t.Blueprint(fumbleType)

	var duration *time.Duration
	if blueprint.Duration != nil {
		d := *blueprint.Duration
		duration = &d
	}

	return Consequence{
		ConsequenceID:     consequenceID,
		CharacterID:       characterID,
		TargetID:          targetID,
		SkillID:           skillID,
		FumbleType:        fumbleType,
		Description:       substituteTarget(blueprint.Description, targetID),
		Duration:          duration,
		RecoveryCondition: substituteTarget(blueprint.RecoveryCondition, targetID),
		IsActive:          true,
		CreatedAt:         now,
	}, nil
}

func substituteTarget(s, targetID string) string {
	if targetID == "" {
		return s
	}
	return strings.ReplaceAll(s, TargetPlaceholder, targetID)
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}
