package engine

import (
	"context"

	"github.com/louisbranch/runerust/internal/rules/resource"
	"github.com/louisbranch/runerust/internal/rules/trauma"
)

// TurnInput describes one character's turn boundary.
type TurnInput struct {
	CharacterID      string
	InCombat         bool
	AttackedThisTurn bool
}

// MeterChange reports one meter's before/after values.
type MeterChange struct {
	Type   resource.Type
	Before int
	After  int
}

// TurnResult reports everything a turn tick changed.
type TurnResult struct {
	Rage      MeterChange
	Momentum  MeterChange
	Coherence MeterChange

	// Stress is set when the character paid the apotheosis upkeep.
	Stress         *trauma.StressChange
	ApotheosisExit bool
}

// ApplyTurnEffects advances one character across a turn boundary:
// rage decay, momentum idle decay, and the apotheosis stress upkeep
// with its forced exit when stress hits the terminal threshold.
func (e *Engine) ApplyTurnEffects(ctx context.Context, input TurnInput) (TurnResult, error) {
	ctx, span := e.startSpan(ctx, "engine.ApplyTurnEffects")
	defer span.End()

	state, err := e.stores.Characters.Get(ctx, input.CharacterID)
	if err != nil {
		return TurnResult{}, err
	}
	now := e.now()
	var result TurnResult

	rage, rageTable := e.meter(&state, resource.Rage)
	before, after := resource.ApplyRageDecay(&rage, rageTable, e.rules.Resources[resource.Rage].RageDecay, input.InCombat, now)
	result.Rage = MeterChange{Type: resource.Rage, Before: before, After: after}
	state.Meters[resource.Rage] = rage

	momentum, momentumTable := e.meter(&state, resource.Momentum)
	before, after = momentum.Value, momentum.Value
	if input.InCombat {
		before, after = resource.ApplyMomentumIdleDecay(&momentum, momentumTable,
			e.rules.Resources[resource.Momentum].DecayOnIdleTurn, input.AttackedThisTurn, now)
	}
	result.Momentum = MeterChange{Type: resource.Momentum, Before: before, After: after}
	state.Meters[resource.Momentum] = momentum

	coherence, coherenceTable := e.meter(&state, resource.Coherence)
	result.Coherence = MeterChange{Type: resource.Coherence, Before: coherence.Value, After: coherence.Value}

	tier, ok := coherence.Tier(coherenceTable)
	if ok && tier.UltimateEnabled && e.rules.Trauma.ApotheosisStressCost > 0 {
		change := trauma.ApplyStress(e.rules.Trauma, state.Stress, e.rules.Trauma.ApotheosisStressCost)
		state.Stress = change.New
		result.Stress = &change

		if err := e.appendStressHistory(ctx, input.CharacterID, "apotheosis", e.rules.Trauma.ApotheosisStressCost, change); err != nil {
			return TurnResult{}, err
		}
		e.emitStressEvents(ctx, input.CharacterID, change)

		// Terminal stress throws the character out of apotheosis;
		// coherence drops just below the tier floor.
		if change.New >= e.rules.Trauma.TerminalTriggerThreshold {
			coherence.Set(tier.Min-1, coherenceTable, now)
			result.ApotheosisExit = true
			_ = e.emitter.Emit(ctx, Event{
				Kind:        EventApotheosisExit,
				CharacterID: input.CharacterID,
				Message:     "apotheosis collapsed under terminal stress",
				Metadata:    map[string]string{"coherence": intAttr(coherence.Value)},
			})
		}
	}
	result.Coherence.After = coherence.Value
	state.Meters[resource.Coherence] = coherence

	if err := e.saveCharacter(ctx, state); err != nil {
		return TurnResult{}, err
	}
	return result, nil
}

func (e *Engine) appendStressHistory(ctx context.Context, characterID, source string, amount int, change trauma.StressChange) error {
	entryID, err := e.newID()
	if err != nil {
		return err
	}
	return e.stores.Stress.Append(ctx, trauma.HistoryEntry{
		ID:             entryID,
		CharacterID:    characterID,
		Source:         source,
		Amount:         amount,
		FinalAmount:    change.Applied,
		PreviousStress: change.Previous,
		NewStress:      change.New,
		CreatedAt:      e.now(),
	})
}

func (e *Engine) emitStressEvents(ctx context.Context, characterID string, change trauma.StressChange) {
	if change.CrossedWarning {
		_ = e.emitter.Emit(ctx, Event{
			Kind:        EventStressWarning,
			CharacterID: characterID,
			Message:     e.rules.Trauma.WarningMessage,
			Metadata:    map[string]string{"stress": intAttr(change.New)},
		})
	}
	if change.ReachedTerminal {
		_ = e.emitter.Emit(ctx, Event{
			Kind:        EventTraumaCheckRequired,
			CharacterID: characterID,
			Message:     e.rules.Trauma.TerminalMessage,
			Metadata:    map[string]string{"stress": intAttr(change.New)},
		})
	}
}
