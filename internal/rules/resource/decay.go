package resource

import "time"

// RageDecayConfig carries the per-turn Rage decay rule.
type RageDecayConfig struct {
	DecayPerTurn                int
	DecayMinutesBeforeNonCombat int
}

// ApplyRageDecay decays Rage once per out-of-combat turn, but only
// after the configured grace period since the last combat action has
// elapsed. In combat Rage never decays.
func ApplyRageDecay(m *Meter, table *Table, cfg RageDecayConfig, inCombat bool, now time.Time) (before, after int) {
	before = m.Value
	if inCombat || cfg.DecayPerTurn <= 0 {
		return before, before
	}
	grace := time.Duration(cfg.DecayMinutesBeforeNonCombat) * time.Minute
	if !m.LastCombatAction.IsZero() && now.Sub(m.LastCombatAction) < grace {
		return before, before
	}
	return m.Add(-cfg.DecayPerTurn, table, now)
}

// ApplyMomentumMiss applies the flat miss decay and breaks the hit
// chain.
func ApplyMomentumMiss(m *Meter, table *Table, decayOnMiss int, now time.Time) (before, after int) {
	m.HitChainBroken = true
	return m.Add(-decayOnMiss, table, now)
}

// ApplyMomentumStun fully resets Momentum and the hit chain. A stun is
// a full reset regardless of the configured decay magnitude.
func ApplyMomentumStun(m *Meter, table *Table, now time.Time) (before, after int) {
	before = m.Value
	m.HitChainBroken = true
	m.IdleTurns = 0
	m.Set(table.Min(), table, now)
	return before, m.Value
}

// ApplyMomentumIdleDecay applies idle decay when the character took no
// attack action this turn, and tracks consecutive idle turns.
func ApplyMomentumIdleDecay(m *Meter, table *Table, decayOnIdle int, attackedThisTurn bool, now time.Time) (before, after int) {
	before = m.Value
	if attackedThisTurn {
		m.IdleTurns = 0
		return before, before
	}
	m.IdleTurns++
	return m.Add(-decayOnIdle, table, now)
}
