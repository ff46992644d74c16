// Package trauma implements the psychological stress economy: the
// damage-to-stress conversion, environmental stress capping, rest
// recovery values, and the warning/terminal stress thresholds.
package trauma

import (
	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
	"github.com/louisbranch/runerust/internal/rules/resource"
)

// StressLevel bands the 0..100 stress scale.
type StressLevel int

const (
	Calm StressLevel = iota
	Uneasy
	Anxious
	Panicked
	Breaking
)

// String returns the display name for the level.
func (l StressLevel) String() string {
	switch l {
	case Calm:
		return "Calm"
	case Uneasy:
		return "Uneasy"
	case Anxious:
		return "Anxious"
	case Panicked:
		return "Panicked"
	case Breaking:
		return "Breaking"
	default:
		return "Unknown"
	}
}

// LevelFor bands a stress value. Values are clamped into [0,100]
// before banding.
func LevelFor(stress int) StressLevel {
	switch {
	case stress < 20:
		return Calm
	case stress < 40:
		return Uneasy
	case stress < 60:
		return Anxious
	case stress < 80:
		return Panicked
	default:
		return Breaking
	}
}

// RestType identifies the rest variants with distinct recovery rules.
type RestType int

const (
	ShortRest RestType = iota
	LongRest
	SanctuaryRest
)

// String returns the storage/config key for the rest type.
func (r RestType) String() string {
	switch r {
	case ShortRest:
		return "short"
	case LongRest:
		return "long"
	case SanctuaryRest:
		return "sanctuary"
	default:
		return "unknown"
	}
}

// ParseRestType maps a key back to a rest type.
func ParseRestType(name string) (RestType, error) {
	switch name {
	case "short":
		return ShortRest, nil
	case "long":
		return LongRest, nil
	case "sanctuary":
		return SanctuaryRest, nil
	default:
		return 0, apperrors.WithMetadata(
			apperrors.CodeStressUnknownRest,
			"unknown rest type",
			map[string]string{"rest": name},
		)
	}
}

// Config carries the trauma-economy tuning values. All values come
// from configuration; the zero value is not usable.
type Config struct {
	// DamageFormula converts post-soak damage to base stress,
	// default floor(damage / 10).
	DamageFormula          resource.Formula
	CriticalHitStressBonus int
	NearDeathStressBonus   int
	AllyDeathStressBonus   int
	// NearDeathHPPercent is the HP percentage below which a hit
	// counts as near-death, default 25.
	NearDeathHPPercent int

	ShortRestRageReset      int
	ShortRestMomentumReset  int
	LongRestCoherenceValue  int
	SanctuaryCoherenceValue int

	ApotheosisStressCost   int
	MaxEnvironmentalStress int

	CriticalWarningThreshold int
	TerminalTriggerThreshold int
	WarningMessage           string
	TerminalMessage          string
}

// DamageEvent describes one resolved hit from the stress economy's
// point of view. Damage is the post-soak amount.
type DamageEvent struct {
	Damage   int
	Critical bool
	HPBefore int
	HPMax    int
	AllyDied bool
}

// StressGainBreakdown itemizes one damage event's stress contribution.
// All bonuses are additive and independent.
type StressGainBreakdown struct {
	Base           int
	CriticalBonus  int
	NearDeathBonus int
	AllyDeathBonus int
}

// Total sums the breakdown.
func (b StressGainBreakdown) Total() int {
	return b.Base + b.CriticalBonus + b.NearDeathBonus + b.AllyDeathBonus
}

// StressGain converts a damage event to stress per the configured
// formula and flat bonuses.
func StressGain(cfg Config, event DamageEvent) StressGainBreakdown {
	breakdown := StressGainBreakdown{
		Base: cfg.DamageFormula.Evaluate(map[string]int{"damage": event.Damage}),
	}
	if event.Critical {
		breakdown.CriticalBonus = cfg.CriticalHitStressBonus
	}
	if nearDeath(event.HPBefore, event.HPMax, cfg.NearDeathHPPercent) {
		breakdown.NearDeathBonus = cfg.NearDeathStressBonus
	}
	if event.AllyDied {
		breakdown.AllyDeathBonus = cfg.AllyDeathStressBonus
	}
	return breakdown
}

func nearDeath(hpBefore, hpMax, percent int) bool {
	if hpMax <= 0 {
		return false
	}
	return hpBefore*100 < hpMax*percent
}
