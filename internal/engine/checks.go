package engine

import (
	"context"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
	"github.com/louisbranch/runerust/internal/rules/check"
)

// StartCheck creates a new chained check for the character and marks
// it in progress. The check id is generated; the caller gets it back
// on the returned state.
func (e *Engine) StartCheck(ctx context.Context, characterID, chainName string, steps []check.Step) (check.State, error) {
	ctx, span := e.startSpan(ctx, "engine.StartCheck")
	defer span.End()

	checkID, err := e.newID()
	if err != nil {
		return check.State{}, err
	}
	now := e.now()
	state, err := check.NewChain(checkID, characterID, chainName, steps, now)
	if err != nil {
		return check.State{}, err
	}
	if err := state.Begin(now); err != nil {
		return check.State{}, err
	}

	inserted, err := e.stores.Checks.AddIfAbsent(ctx, state)
	if err != nil {
		return check.State{}, err
	}
	if !inserted {
		return check.State{}, apperrors.WithMetadata(apperrors.CodeChainDuplicateCheckID,
			"check id already exists", map[string]string{"checkId": checkID})
	}
	return state, nil
}

// RecordCheckResult applies one step outcome to a running chain.
func (e *Engine) RecordCheckResult(ctx context.Context, checkID string, success bool) (check.State, error) {
	ctx, span := e.startSpan(ctx, "engine.RecordCheckResult")
	defer span.End()

	return e.mutateCheck(ctx, checkID, func(state *check.State) error {
		return state.RecordStepResult(success, e.now())
	})
}

// RetryCheck spends one retry on a chain awaiting it.
func (e *Engine) RetryCheck(ctx context.Context, checkID string) (check.State, error) {
	ctx, span := e.startSpan(ctx, "engine.RetryCheck")
	defer span.End()

	return e.mutateCheck(ctx, checkID, func(state *check.State) error {
		return state.Retry(e.now())
	})
}

// AbandonCheck terminates a chain without resolution.
func (e *Engine) AbandonCheck(ctx context.Context, checkID string) (check.State, error) {
	ctx, span := e.startSpan(ctx, "engine.AbandonCheck")
	defer span.End()

	return e.mutateCheck(ctx, checkID, func(state *check.State) error {
		return state.Abandon(e.now())
	})
}

// ActiveChecks lists the character's non-terminal chains.
func (e *Engine) ActiveChecks(ctx context.Context, characterID string) ([]check.State, error) {
	return e.stores.Checks.ActiveByCharacter(ctx, characterID)
}

func (e *Engine) mutateCheck(ctx context.Context, checkID string, mutate func(*check.State) error) (check.State, error) {
	state, err := e.stores.Checks.Get(ctx, checkID)
	if err != nil {
		return check.State{}, err
	}
	if err := mutate(&state); err != nil {
		return check.State{}, err
	}
	if err := e.stores.Checks.Upsert(ctx, state); err != nil {
		return check.State{}, err
	}
	return state, nil
}
