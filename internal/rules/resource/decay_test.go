package resource

import (
	"testing"
	"time"
)

func momentumTiers() []Tier {
	return []Tier{
		{Name: "Grounded", Min: 0, Max: 20},
		{Name: "Flowing", Min: 21, Max: 40},
		{Name: "Surging", Min: 41, Max: 60, BonusAttacks: 1},
		{Name: "Unstoppable", Min: 61, Max: 80, BonusAttacks: 1},
		{Name: "PerfectStorm", Min: 81, Max: 100, BonusAttacks: 2, HealOnKill: true},
	}
}

func TestMomentumStunFullyResets(t *testing.T) {
	table := mustTable(t, Momentum, 0, momentumTiers())
	now := time.Now()

	for _, start := range []int{100, 55, 1} {
		meter := NewMeter("char-1", table, now)
		meter.Set(start, table, now)
		meter.HitChainBroken = false

		before, after := ApplyMomentumStun(&meter, table, now)
		if before != start || after != 0 {
			t.Fatalf("ApplyMomentumStun(%d) = (%d, %d), want (%d, 0)", start, before, after, start)
		}
		if !meter.HitChainBroken {
			t.Fatal("HitChainBroken = false after stun, want true")
		}
		if meter.IdleTurns != 0 {
			t.Fatalf("IdleTurns = %d after stun, want 0", meter.IdleTurns)
		}
	}
}

func TestMomentumMissDecaysAndBreaksChain(t *testing.T) {
	table := mustTable(t, Momentum, 0, momentumTiers())
	now := time.Now()

	meter := NewMeter("char-1", table, now)
	meter.Set(60, table, now)

	before, after := ApplyMomentumMiss(&meter, table, 25, now)
	if before != 60 || after != 35 {
		t.Fatalf("ApplyMomentumMiss = (%d, %d), want (60, 35)", before, after)
	}
	if !meter.HitChainBroken {
		t.Fatal("HitChainBroken = false after miss, want true")
	}

	meter.Set(10, table, now)
	if _, after := ApplyMomentumMiss(&meter, table, 25, now); after != 0 {
		t.Fatalf("miss decay below min = %d, want clamp to 0", after)
	}
}

func TestMomentumIdleDecay(t *testing.T) {
	table := mustTable(t, Momentum, 0, momentumTiers())
	now := time.Now()

	meter := NewMeter("char-1", table, now)
	meter.Set(50, table, now)

	if _, after := ApplyMomentumIdleDecay(&meter, table, 15, false, now); after != 35 {
		t.Fatalf("idle decay = %d, want 35", after)
	}
	if meter.IdleTurns != 1 {
		t.Fatalf("IdleTurns = %d, want 1", meter.IdleTurns)
	}

	if _, after := ApplyMomentumIdleDecay(&meter, table, 15, true, now); after != 35 {
		t.Fatalf("attacking turn decayed momentum to %d, want unchanged 35", after)
	}
	if meter.IdleTurns != 0 {
		t.Fatalf("IdleTurns = %d after attack, want reset to 0", meter.IdleTurns)
	}
}

func TestRageDecayHonorsCombatAndGrace(t *testing.T) {
	table := mustTable(t, Rage, 0, rageTiers())
	cfg := RageDecayConfig{DecayPerTurn: 5, DecayMinutesBeforeNonCombat: 10}
	now := time.Now()

	meter := NewMeter("char-1", table, now)
	meter.Set(70, table, now)
	meter.LastCombatAction = now.Add(-30 * time.Minute)

	if _, after := ApplyRageDecay(&meter, table, cfg, true, now); after != 70 {
		t.Fatalf("in-combat decay = %d, want unchanged 70", after)
	}

	meter.LastCombatAction = now.Add(-2 * time.Minute)
	if _, after := ApplyRageDecay(&meter, table, cfg, false, now); after != 70 {
		t.Fatalf("decay inside grace window = %d, want unchanged 70", after)
	}

	meter.LastCombatAction = now.Add(-11 * time.Minute)
	if _, after := ApplyRageDecay(&meter, table, cfg, false, now); after != 65 {
		t.Fatalf("out-of-combat decay = %d, want 65", after)
	}
}

func TestMeterAddClampsToRange(t *testing.T) {
	table := mustTable(t, Rage, 0, rageTiers())
	now := time.Now()

	meter := NewMeter("char-1", table, now)
	meter.Set(95, table, now)

	if _, after := meter.Add(20, table, now); after != 100 {
		t.Fatalf("Add(20) at 95 = %d, want clamp to 100", after)
	}
	if _, after := meter.Add(-150, table, now); after != 0 {
		t.Fatalf("Add(-150) = %d, want clamp to 0", after)
	}
}

func TestNewMeterUsesStartingValue(t *testing.T) {
	table := mustTable(t, Coherence, 50, []Tier{
		{Name: "Destabilized", Min: 0, Max: 20, CascadeRisk: 25},
		{Name: "Unstable", Min: 21, Max: 40, CascadeRisk: 10},
		{Name: "Balanced", Min: 41, Max: 60},
		{Name: "Focused", Min: 61, Max: 80},
		{Name: "Apotheosis", Min: 81, Max: 100, UltimateEnabled: true},
	})
	meter := NewMeter("char-1", table, time.Now())
	if meter.Value != 50 {
		t.Fatalf("starting coherence = %d, want 50", meter.Value)
	}
}
