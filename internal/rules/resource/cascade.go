package resource

import "github.com/louisbranch/runerust/internal/platform/random"

// CascadeEffectKind names the adverse effects a coherence cascade can
// apply.
type CascadeEffectKind int

const (
	CascadeSelfDamage CascadeEffectKind = iota
	CascadeStress
	CascadeCorruption
	CascadeSpellDisruption
)

// String returns the config key for the effect kind.
func (k CascadeEffectKind) String() string {
	switch k {
	case CascadeSelfDamage:
		return "selfDamage"
	case CascadeStress:
		return "stress"
	case CascadeCorruption:
		return "corruption"
	case CascadeSpellDisruption:
		return "spellDisruption"
	default:
		return "unknown"
	}
}

// CascadeEffect is one configured consequence of a cascade firing.
// Magnitudes are tier-specific and come from config; selection weight
// zero means the effect participates in uniform selection only.
type CascadeEffect struct {
	Kind           CascadeEffectKind
	Weight         int
	CoherenceLoss  int
	SelfDamage     int
	StressGain     int
	CorruptionGain int
	DisruptSpell   bool
}

// CascadeOutcome reports whether a cascade fired and which effect was
// selected.
type CascadeOutcome struct {
	Triggered bool
	Roll      int
	Effect    CascadeEffect
}

// ResolveCascade rolls against the tier's cascade risk and, on a hit,
// selects one effect from the configured set. Selection is weighted by
// each effect's Weight; a set with no positive weights falls back to
// uniform selection. The rng is injected so resolution is testable.
func ResolveCascade(tier Tier, effects []CascadeEffect, rng random.Source) CascadeOutcome {
	if tier.CascadeRisk <= 0 || len(effects) == 0 {
		return CascadeOutcome{}
	}

	roll := rng.IntN(100)
	if roll >= tier.CascadeRisk {
		return CascadeOutcome{Roll: roll}
	}

	total := 0
	for _, effect := range effects {
		if effect.Weight > 0 {
			total += effect.Weight
		}
	}
	if total == 0 {
		return CascadeOutcome{
			Triggered: true,
			Roll:      roll,
			Effect:    effects[rng.IntN(len(effects))],
		}
	}

	pick := rng.IntN(total)
	for _, effect := range effects {
		if effect.Weight <= 0 {
			continue
		}
		if pick < effect.Weight {
			return CascadeOutcome{Triggered: true, Roll: roll, Effect: effect}
		}
		pick -= effect.Weight
	}

	// Unreachable for a well-formed set; keep the last effect as a
	// deterministic fallback.
	return CascadeOutcome{Triggered: true, Roll: roll, Effect: effects[len(effects)-1]}
}
