// Package resource implements the specialization resource meters
// (Rage, Momentum, Coherence) as pure rules over configured threshold
// tables. Callers drive gains and decay once per turn or event;
// nothing in this package performs I/O or holds global state.
package resource

import (
	"time"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
)

// Type identifies a specialization resource meter.
type Type int

const (
	Rage Type = iota
	Momentum
	Coherence
)

// String returns the canonical name used in config and storage keys.
func (t Type) String() string {
	switch t {
	case Rage:
		return "rage"
	case Momentum:
		return "momentum"
	case Coherence:
		return "coherence"
	default:
		return "unknown"
	}
}

// ParseType maps a config/storage key back to a resource type.
func ParseType(name string) (Type, error) {
	switch name {
	case "rage":
		return Rage, nil
	case "momentum":
		return Momentum, nil
	case "coherence":
		return Coherence, nil
	default:
		return 0, apperrors.WithMetadata(
			apperrors.CodeResourceUnknownType,
			"unknown resource type",
			map[string]string{"type": name},
		)
	}
}

// Types lists every resource type in declaration order.
func Types() []Type {
	return []Type{Rage, Momentum, Coherence}
}

// Meter tracks one character's current value for one resource type,
// plus the bookkeeping decay rules depend on. Value stays clamped to
// the table's [min,max] after every mutation.
type Meter struct {
	CharacterID      string
	Type             Type
	Value            int
	IdleTurns        int
	HitChainBroken   bool
	LastCombatAction time.Time
	LastUpdated      time.Time
}

// NewMeter returns a meter at the table's starting value.
func NewMeter(characterID string, table *Table, now time.Time) Meter {
	return Meter{
		CharacterID: characterID,
		Type:        table.Type(),
		Value:       table.StartingValue(),
		LastUpdated: now,
	}
}

// Set clamps v into the table range and records the update time.
func (m *Meter) Set(v int, table *Table, now time.Time) {
	m.Value = clamp(v, table.Min(), table.Max())
	m.LastUpdated = now
}

// Add applies a signed delta, clamping into the table range. It
// returns the value before and after the change.
func (m *Meter) Add(delta int, table *Table, now time.Time) (before, after int) {
	before = m.Value
	m.Set(m.Value+delta, table, now)
	return before, m.Value
}

// Tier reports the meter's active tier, if the table covers its value.
func (m *Meter) Tier(table *Table) (Tier, bool) {
	return table.Lookup(m.Value)
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
