package resource

import (
	"fmt"
	"sort"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
)

// Tier is a named sub-range of a meter's scale with its bonuses and
// behavioral flags. Min and Max are both inclusive.
type Tier struct {
	Name string
	Min  int
	Max  int

	DamageBonus    int
	AttackBonus    int
	DefensePenalty int
	CriticalChance int
	SoakBonus      int

	BonusAttacks           int
	MovementBonusPerTwenty int
	PartyStressReduction   int

	MustAttackNearest bool
	FearImmune        bool
	UltimateEnabled   bool
	HealOnKill        bool

	// CascadeRisk is a percent chance in [0,100]; Coherence only.
	CascadeRisk int
}

// Contains reports whether v falls inside the tier's closed interval.
func (t Tier) Contains(v int) bool {
	return v >= t.Min && v <= t.Max
}

// Table is a validated set of tiers partitioning a meter's range.
// Lookup preserves declaration order so an overlapping (degraded)
// config resolves to the first declared tier.
type Table struct {
	resourceType Type
	min          int
	max          int
	starting     int
	tiers        []Tier
}

// NewTable validates tiers against [min,max] and builds a lookup
// table. Tiers out of range or leaving gaps are fatal; overlaps are
// tolerated with a warning and first-declared-wins lookup. The
// returned warnings are meant to be logged at load time.
func NewTable(resourceType Type, min, max, starting int, tiers []Tier) (*Table, []string, error) {
	if min < 0 || max > 100 || min >= max {
		return nil, nil, apperrors.WithMetadata(
			apperrors.CodeRulesetInvalidRange,
			"resource range must satisfy 0 <= min < max <= 100",
			map[string]string{
				"resource": resourceType.String(),
				"min":      fmt.Sprint(min),
				"max":      fmt.Sprint(max),
			},
		)
	}
	if len(tiers) == 0 {
		return nil, nil, apperrors.WithMetadata(
			apperrors.CodeRulesetTierGap,
			"resource has no tiers",
			map[string]string{"resource": resourceType.String()},
		)
	}

	for _, tier := range tiers {
		if tier.Min < min || tier.Max > max || tier.Min > tier.Max {
			return nil, nil, apperrors.WithMetadata(
				apperrors.CodeRulesetInvalidRange,
				"tier bounds outside resource range",
				map[string]string{
					"resource": resourceType.String(),
					"tier":     tier.Name,
					"min":      fmt.Sprint(tier.Min),
					"max":      fmt.Sprint(tier.Max),
				},
			)
		}
	}

	var warnings []string

	// Coverage check runs over a sorted copy; lookup keeps declaration
	// order so overlap resolution stays first-wins.
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	covered := min
	for _, tier := range sorted {
		if tier.Min > covered {
			return nil, nil, apperrors.WithMetadata(
				apperrors.CodeRulesetTierGap,
				"tier table leaves a gap in the resource range",
				map[string]string{
					"resource": resourceType.String(),
					"gap_from": fmt.Sprint(covered),
					"gap_to":   fmt.Sprint(tier.Min - 1),
				},
			)
		}
		if tier.Min <= covered-1 && covered > min {
			warnings = append(warnings, fmt.Sprintf(
				"%s: tier %q overlaps values %d..%d; first declared tier wins",
				resourceType, tier.Name, tier.Min, minInt(tier.Max, covered-1),
			))
		}
		if tier.Max+1 > covered {
			covered = tier.Max + 1
		}
	}
	if covered <= max {
		return nil, nil, apperrors.WithMetadata(
			apperrors.CodeRulesetTierGap,
			"tier table leaves a gap in the resource range",
			map[string]string{
				"resource": resourceType.String(),
				"gap_from": fmt.Sprint(covered),
				"gap_to":   fmt.Sprint(max),
			},
		)
	}

	declared := make([]Tier, len(tiers))
	copy(declared, tiers)

	return &Table{
		resourceType: resourceType,
		min:          min,
		max:          max,
		starting:     clamp(starting, min, max),
		tiers:        declared,
	}, warnings, nil
}

// Lookup returns the tier containing v. For a valid config exactly one
// tier matches every value in [min,max]; for values outside the range
// or a degraded table, ok is false and callers must treat the result
// as "no bonuses, no flags".
func (t *Table) Lookup(v int) (Tier, bool) {
	for _, tier := range t.tiers {
		if tier.Contains(v) {
			return tier, true
		}
	}
	return Tier{}, false
}

// Type returns the resource type the table describes.
func (t *Table) Type() Type { return t.resourceType }

// Min returns the lower bound of the meter range.
func (t *Table) Min() int { return t.min }

// Max returns the upper bound of the meter range.
func (t *Table) Max() int { return t.max }

// StartingValue returns the configured initial meter value.
func (t *Table) StartingValue() int { return t.starting }

// Tiers returns the tiers in declaration order.
func (t *Table) Tiers() []Tier {
	out := make([]Tier, len(t.tiers))
	copy(out, t.tiers)
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
