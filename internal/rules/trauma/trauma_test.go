package trauma

import (
	"testing"

	"github.com/louisbranch/runerust/internal/rules/resource"
)

func testConfig() Config {
	return Config{
		DamageFormula:            resource.Formula{Input: "damage", Divisor: 10},
		CriticalHitStressBonus:   5,
		NearDeathStressBonus:     10,
		AllyDeathStressBonus:     15,
		NearDeathHPPercent:       25,
		ShortRestRageReset:       0,
		ShortRestMomentumReset:   0,
		LongRestCoherenceValue:   50,
		SanctuaryCoherenceValue:  50,
		ApotheosisStressCost:     10,
		MaxEnvironmentalStress:   5,
		CriticalWarningThreshold: 80,
		TerminalTriggerThreshold: 100,
	}
}

func TestStressGainAllBonusesAdditive(t *testing.T) {
	// 40 damage critical hit at 20% HP with an ally death:
	// floor(40/10) + 5 + 10 + 15 = 34.
	breakdown := StressGain(testConfig(), DamageEvent{
		Damage:   40,
		Critical: true,
		HPBefore: 20,
		HPMax:    100,
		AllyDied: true,
	})

	if breakdown.Base != 4 {
		t.Fatalf("Base = %d, want 4", breakdown.Base)
	}
	if breakdown.CriticalBonus != 5 || breakdown.NearDeathBonus != 10 || breakdown.AllyDeathBonus != 15 {
		t.Fatalf("bonuses = %+v, want 5/10/15", breakdown)
	}
	if breakdown.Total() != 34 {
		t.Fatalf("Total() = %d, want 34", breakdown.Total())
	}
}

func TestStressGainPlainHit(t *testing.T) {
	breakdown := StressGain(testConfig(), DamageEvent{Damage: 27, HPBefore: 80, HPMax: 100})
	if breakdown.Total() != 2 {
		t.Fatalf("Total() = %d, want floor(27/10) = 2", breakdown.Total())
	}
}

func TestStressGainNearDeathBoundary(t *testing.T) {
	cfg := testConfig()

	// 25% exactly is not below the threshold.
	at := StressGain(cfg, DamageEvent{Damage: 10, HPBefore: 25, HPMax: 100})
	if at.NearDeathBonus != 0 {
		t.Fatalf("NearDeathBonus at exactly 25%% = %d, want 0", at.NearDeathBonus)
	}

	below := StressGain(cfg, DamageEvent{Damage: 10, HPBefore: 24, HPMax: 100})
	if below.NearDeathBonus != 10 {
		t.Fatalf("NearDeathBonus below 25%% = %d, want 10", below.NearDeathBonus)
	}

	// Unknown max HP never counts as near death.
	unknown := StressGain(cfg, DamageEvent{Damage: 10, HPBefore: 5, HPMax: 0})
	if unknown.NearDeathBonus != 0 {
		t.Fatalf("NearDeathBonus with zero max HP = %d, want 0", unknown.NearDeathBonus)
	}
}

func TestStressGainMalformedFormulaContributesZero(t *testing.T) {
	cfg := testConfig()
	cfg.DamageFormula = resource.Formula{}

	breakdown := StressGain(cfg, DamageEvent{Damage: 90, Critical: true, HPBefore: 80, HPMax: 100})
	if breakdown.Base != 0 {
		t.Fatalf("Base with zero formula = %d, want 0", breakdown.Base)
	}
	if breakdown.Total() != 5 {
		t.Fatalf("Total() = %d, want critical bonus only", breakdown.Total())
	}
}

func TestApplyStressThresholds(t *testing.T) {
	cfg := testConfig()

	change := ApplyStress(cfg, 75, 10)
	if change.New != 85 {
		t.Fatalf("New = %d, want 85", change.New)
	}
	if !change.CrossedWarning {
		t.Fatal("CrossedWarning = false crossing 80, want true")
	}
	if change.ReachedTerminal {
		t.Fatal("ReachedTerminal = true at 85, want false")
	}

	// Already past the warning threshold: no repeat warning.
	again := ApplyStress(cfg, 85, 5)
	if again.CrossedWarning {
		t.Fatal("CrossedWarning = true when starting above 80, want false")
	}

	terminal := ApplyStress(cfg, 95, 20)
	if terminal.New != 100 {
		t.Fatalf("New = %d, want clamp to 100", terminal.New)
	}
	if !terminal.ReachedTerminal {
		t.Fatal("ReachedTerminal = false at 100, want true")
	}
	if terminal.Applied != 5 {
		t.Fatalf("Applied = %d, want clamped gain 5", terminal.Applied)
	}
}

func TestApplyStressRecovery(t *testing.T) {
	change := ApplyStress(testConfig(), 30, -50)
	if change.New != 0 {
		t.Fatalf("New = %d, want clamp to 0", change.New)
	}
	if change.LevelBefore != Uneasy || change.LevelAfter != Calm {
		t.Fatalf("levels = %v -> %v, want Uneasy -> Calm", change.LevelBefore, change.LevelAfter)
	}
}

func TestLevelForBands(t *testing.T) {
	tests := []struct {
		stress int
		want   StressLevel
	}{
		{0, Calm}, {19, Calm},
		{20, Uneasy}, {39, Uneasy},
		{40, Anxious}, {59, Anxious},
		{60, Panicked}, {79, Panicked},
		{80, Breaking}, {100, Breaking},
	}
	for _, tc := range tests {
		if got := LevelFor(tc.stress); got != tc.want {
			t.Fatalf("LevelFor(%d) = %v, want %v", tc.stress, got, tc.want)
		}
	}
}

func TestCapEnvironmental(t *testing.T) {
	cfg := testConfig()

	if got := CapEnvironmental(cfg, 0, 3); got != 3 {
		t.Fatalf("CapEnvironmental(0, 3) = %d, want 3", got)
	}
	if got := CapEnvironmental(cfg, 3, 4); got != 2 {
		t.Fatalf("CapEnvironmental(3, 4) = %d, want 2", got)
	}
	if got := CapEnvironmental(cfg, 5, 4); got != 0 {
		t.Fatalf("CapEnvironmental(5, 4) = %d, want 0", got)
	}
	if got := CapEnvironmental(cfg, 0, -2); got != 0 {
		t.Fatalf("CapEnvironmental(0, -2) = %d, want 0", got)
	}
}

func TestParseRestTypeRoundTrip(t *testing.T) {
	for _, rest := range []RestType{ShortRest, LongRest, SanctuaryRest} {
		parsed, err := ParseRestType(rest.String())
		if err != nil {
			t.Fatalf("ParseRestType(%q) error = %v", rest, err)
		}
		if parsed != rest {
			t.Fatalf("ParseRestType(%q) = %v, want %v", rest, parsed, rest)
		}
	}
	if _, err := ParseRestType("nap"); err == nil {
		t.Fatal("ParseRestType(nap) error = nil, want error")
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(0); err != nil {
		t.Fatalf("ValidateAmount(0) error = %v", err)
	}
	if err := ValidateAmount(-1); err == nil {
		t.Fatal("ValidateAmount(-1) error = nil, want error")
	}
}
