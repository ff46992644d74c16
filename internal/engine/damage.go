package engine

import (
	"context"

	"github.com/louisbranch/runerust/internal/rules/resource"
	"github.com/louisbranch/runerust/internal/rules/trauma"
)

// DamageInput describes one resolved hit against a character.
type DamageInput struct {
	CharacterID string
	Event       trauma.DamageEvent
	// Interrupted marks that the hit broke an active cast.
	Interrupted bool
	// Source annotates the stress history entry, default "damage".
	Source string
}

// DamageResult reports everything one hit changed.
type DamageResult struct {
	Stress    trauma.StressChange
	Breakdown trauma.StressGainBreakdown

	Rage      MeterChange
	Momentum  MeterChange
	Coherence MeterChange

	// BonusSoak is the rage-derived soak to apply against the next
	// incoming hit. The engine does not track hit points; callers own
	// applying it.
	BonusSoak int
}

// ApplyDamageEvent runs the full hit-side pipeline: damage-to-stress
// conversion with its additive bonuses, rage gain from taking damage,
// momentum loss on a critical, and coherence loss on an interrupt.
func (e *Engine) ApplyDamageEvent(ctx context.Context, input DamageInput) (DamageResult, error) {
	ctx, span := e.startSpan(ctx, "engine.ApplyDamageEvent")
	defer span.End()

	state, err := e.stores.Characters.Get(ctx, input.CharacterID)
	if err != nil {
		return DamageResult{}, err
	}
	now := e.now()
	var result DamageResult

	result.Breakdown = trauma.StressGain(e.rules.Trauma, input.Event)
	result.Stress = trauma.ApplyStress(e.rules.Trauma, state.Stress, result.Breakdown.Total())
	state.Stress = result.Stress.New

	source := input.Source
	if source == "" {
		source = "damage"
	}
	if err := e.appendStressHistory(ctx, input.CharacterID, source, result.Breakdown.Total(), result.Stress); err != nil {
		return DamageResult{}, err
	}
	e.emitStressEvents(ctx, input.CharacterID, result.Stress)

	rage, rageTable := e.meter(&state, resource.Rage)
	gain, _ := e.rules.Resources[resource.Rage].Sources.Amount(sourceTakingDamage,
		map[string]int{"damage": input.Event.Damage}, e.rng)
	before, after := rage.Add(gain, rageTable, now)
	rage.LastCombatAction = now
	result.Rage = MeterChange{Type: resource.Rage, Before: before, After: after}
	result.BonusSoak = rage.Value / rageSoakDivisor
	state.Meters[resource.Rage] = rage

	momentum, momentumTable := e.meter(&state, resource.Momentum)
	before, after = momentum.Value, momentum.Value
	if input.Event.Critical {
		before, after = momentum.Add(-momentumLossWhenCriticallyHit, momentumTable, now)
	}
	result.Momentum = MeterChange{Type: resource.Momentum, Before: before, After: after}
	state.Meters[resource.Momentum] = momentum

	coherence, coherenceTable := e.meter(&state, resource.Coherence)
	before, after = coherence.Value, coherence.Value
	if input.Interrupted {
		before, after = coherence.Add(-coherenceLossWhenInterrupted, coherenceTable, now)
	}
	result.Coherence = MeterChange{Type: resource.Coherence, Before: before, After: after}
	state.Meters[resource.Coherence] = coherence

	if err := e.saveCharacter(ctx, state); err != nil {
		return DamageResult{}, err
	}
	return result, nil
}

// ApplyEnvironmentalStress applies ambient stress capped per turn. The
// caller tracks how much environmental stress this turn already
// applied; the cap never rejects, it truncates.
func (e *Engine) ApplyEnvironmentalStress(ctx context.Context, characterID string, amount, appliedThisTurn int) (trauma.StressChange, error) {
	ctx, span := e.startSpan(ctx, "engine.ApplyEnvironmentalStress")
	defer span.End()

	if err := trauma.ValidateAmount(amount); err != nil {
		return trauma.StressChange{}, err
	}

	state, err := e.stores.Characters.Get(ctx, characterID)
	if err != nil {
		return trauma.StressChange{}, err
	}

	capped := trauma.CapEnvironmental(e.rules.Trauma, appliedThisTurn, amount)
	change := trauma.ApplyStress(e.rules.Trauma, state.Stress, capped)
	state.Stress = change.New

	if err := e.appendStressHistory(ctx, characterID, "environment", amount, change); err != nil {
		return trauma.StressChange{}, err
	}
	e.emitStressEvents(ctx, characterID, change)

	if err := e.saveCharacter(ctx, state); err != nil {
		return trauma.StressChange{}, err
	}
	return change, nil
}
