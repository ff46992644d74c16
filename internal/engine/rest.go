package engine

import (
	"context"

	"github.com/louisbranch/runerust/internal/rules/resource"
	"github.com/louisbranch/runerust/internal/rules/trauma"
)

// RestResult reports the meter resets one rest produced. Rest never
// touches stress or corruption; those recover through play.
type RestResult struct {
	Rage      MeterChange
	Momentum  MeterChange
	Coherence MeterChange
}

// ApplyRestRecovery resets meters for the given rest type. A short
// rest resets rage and momentum; long and sanctuary rests additionally
// restore coherence to their configured values.
func (e *Engine) ApplyRestRecovery(ctx context.Context, characterID string, restType trauma.RestType) (RestResult, error) {
	ctx, span := e.startSpan(ctx, "engine.ApplyRestRecovery")
	defer span.End()

	state, err := e.stores.Characters.Get(ctx, characterID)
	if err != nil {
		return RestResult{}, err
	}
	now := e.now()
	var result RestResult

	rage, rageTable := e.meter(&state, resource.Rage)
	result.Rage = MeterChange{Type: resource.Rage, Before: rage.Value}
	rage.Set(e.rules.Trauma.ShortRestRageReset, rageTable, now)
	result.Rage.After = rage.Value
	state.Meters[resource.Rage] = rage

	momentum, momentumTable := e.meter(&state, resource.Momentum)
	result.Momentum = MeterChange{Type: resource.Momentum, Before: momentum.Value}
	momentum.Set(e.rules.Trauma.ShortRestMomentumReset, momentumTable, now)
	momentum.IdleTurns = 0
	momentum.HitChainBroken = false
	result.Momentum.After = momentum.Value
	state.Meters[resource.Momentum] = momentum

	coherence, coherenceTable := e.meter(&state, resource.Coherence)
	result.Coherence = MeterChange{Type: resource.Coherence, Before: coherence.Value, After: coherence.Value}
	switch restType {
	case trauma.LongRest:
		coherence.Set(e.rules.Trauma.LongRestCoherenceValue, coherenceTable, now)
	case trauma.SanctuaryRest:
		coherence.Set(e.rules.Trauma.SanctuaryCoherenceValue, coherenceTable, now)
	}
	result.Coherence.After = coherence.Value
	state.Meters[resource.Coherence] = coherence

	if err := e.saveCharacter(ctx, state); err != nil {
		return RestResult{}, err
	}
	return result, nil
}
