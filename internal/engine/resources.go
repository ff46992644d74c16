package engine

import (
	"context"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
	"github.com/louisbranch/runerust/internal/rules/resource"
	"github.com/louisbranch/runerust/internal/rules/trauma"
)

// ApplyResourceEvent resolves a configured resource source (flat,
// formula, or variable roll) and applies the gain to the meter. Rage
// and momentum events count as combat action for decay purposes.
func (e *Engine) ApplyResourceEvent(ctx context.Context, characterID string, resourceType resource.Type, event string, inputs map[string]int) (MeterChange, error) {
	ctx, span := e.startSpan(ctx, "engine.ApplyResourceEvent")
	defer span.End()

	rules, ok := e.rules.Resources[resourceType]
	if !ok {
		return MeterChange{}, apperrors.New(apperrors.CodeResourceUnknownType, "resource has no rules")
	}
	amount, known := rules.Sources.Amount(event, inputs, e.rng)
	if !known {
		return MeterChange{}, apperrors.WithMetadata(apperrors.CodeResourceUnknownSource,
			"event has no configured source",
			map[string]string{"resource": resourceType.String(), "event": event})
	}

	state, err := e.stores.Characters.Get(ctx, characterID)
	if err != nil {
		return MeterChange{}, err
	}
	now := e.now()

	m, table := e.meter(&state, resourceType)
	before, after := m.Add(amount, table, now)
	if resourceType == resource.Rage || resourceType == resource.Momentum {
		m.LastCombatAction = now
		m.IdleTurns = 0
	}
	state.Meters[resourceType] = m

	if err := e.saveCharacter(ctx, state); err != nil {
		return MeterChange{}, err
	}
	return MeterChange{Type: resourceType, Before: before, After: after}, nil
}

// RecordMiss applies the momentum miss penalty and breaks the hit
// chain.
func (e *Engine) RecordMiss(ctx context.Context, characterID string) (MeterChange, error) {
	ctx, span := e.startSpan(ctx, "engine.RecordMiss")
	defer span.End()

	state, err := e.stores.Characters.Get(ctx, characterID)
	if err != nil {
		return MeterChange{}, err
	}
	m, table := e.meter(&state, resource.Momentum)
	before, after := resource.ApplyMomentumMiss(&m, table,
		e.rules.Resources[resource.Momentum].DecayOnMiss, e.now())
	state.Meters[resource.Momentum] = m

	if err := e.saveCharacter(ctx, state); err != nil {
		return MeterChange{}, err
	}
	return MeterChange{Type: resource.Momentum, Before: before, After: after}, nil
}

// RecordStun fully resets momentum.
func (e *Engine) RecordStun(ctx context.Context, characterID string) (MeterChange, error) {
	ctx, span := e.startSpan(ctx, "engine.RecordStun")
	defer span.End()

	state, err := e.stores.Characters.Get(ctx, characterID)
	if err != nil {
		return MeterChange{}, err
	}
	m, table := e.meter(&state, resource.Momentum)
	before, after := resource.ApplyMomentumStun(&m, table, e.now())
	state.Meters[resource.Momentum] = m

	if err := e.saveCharacter(ctx, state); err != nil {
		return MeterChange{}, err
	}
	return MeterChange{Type: resource.Momentum, Before: before, After: after}, nil
}

// Meditate applies the out-of-combat coherence recovery source.
func (e *Engine) Meditate(ctx context.Context, characterID string, inCombat bool) (MeterChange, error) {
	if inCombat {
		return MeterChange{}, apperrors.New(apperrors.CodeResourceCombatRestricted,
			"meditation requires being out of combat")
	}
	return e.ApplyResourceEvent(ctx, characterID, resource.Coherence, sourceMeditation, nil)
}

// CastResult reports one spell cast's coherence consequences.
type CastResult struct {
	Cascade   resource.CascadeOutcome
	Coherence MeterChange

	// Set when the cascade effect carried these riders.
	Stress     *trauma.StressChange
	Corruption *CorruptionResult
	SelfDamage int
	Disrupted  bool
}

// CastSpell resolves the coherence side of casting: in low-coherence
// tiers a cascade roll may disrupt the cast and bleed coherence,
// stress, corruption, or self-damage; an undisrupted cast earns the
// configured successfulCast gain.
func (e *Engine) CastSpell(ctx context.Context, characterID string) (CastResult, error) {
	ctx, span := e.startSpan(ctx, "engine.CastSpell")
	defer span.End()

	state, err := e.stores.Characters.Get(ctx, characterID)
	if err != nil {
		return CastResult{}, err
	}
	now := e.now()
	var result CastResult

	coherence, coherenceTable := e.meter(&state, resource.Coherence)
	result.Coherence = MeterChange{Type: resource.Coherence, Before: coherence.Value, After: coherence.Value}

	tier, ok := coherence.Tier(coherenceTable)
	if ok && tier.CascadeRisk > 0 {
		effects := e.rules.CascadeEffectsFor(resource.Coherence, tier.Name)
		result.Cascade = resource.ResolveCascade(tier, effects, e.rng)
	}

	if result.Cascade.Triggered {
		effect := result.Cascade.Effect
		coherence.Add(-effect.CoherenceLoss, coherenceTable, now)
		result.SelfDamage = effect.SelfDamage
		result.Disrupted = effect.DisruptSpell

		if effect.StressGain > 0 {
			change := trauma.ApplyStress(e.rules.Trauma, state.Stress, effect.StressGain)
			state.Stress = change.New
			result.Stress = &change
			if err := e.appendStressHistory(ctx, characterID, "cascade", effect.StressGain, change); err != nil {
				return CastResult{}, err
			}
			e.emitStressEvents(ctx, characterID, change)
		}

		_ = e.emitter.Emit(ctx, Event{
			Kind:        EventCascadeTriggered,
			CharacterID: characterID,
			Message:     "coherence cascade in " + tier.Name,
			Metadata: map[string]string{
				"effect": effect.Kind.String(),
				"roll":   intAttr(result.Cascade.Roll),
			},
		})
	}

	if !result.Disrupted {
		if gain, known := e.rules.Resources[resource.Coherence].Sources.Amount("successfulCast", nil, e.rng); known {
			coherence.Add(gain, coherenceTable, now)
		}
	}
	result.Coherence.After = coherence.Value
	state.Meters[resource.Coherence] = coherence

	if err := e.saveCharacter(ctx, state); err != nil {
		return CastResult{}, err
	}

	// Corruption riders run after the meter write so a corruption
	// store failure cannot roll back applied coherence loss.
	if result.Cascade.Triggered && result.Cascade.Effect.CorruptionGain > 0 {
		corruptionResult, err := e.AddCorruption(ctx, characterID, result.Cascade.Effect.CorruptionGain, "cascade")
		if err != nil {
			return CastResult{}, err
		}
		result.Corruption = &corruptionResult
	}
	return result, nil
}
