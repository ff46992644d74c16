package engine

import (
	"context"
	"errors"

	"github.com/louisbranch/runerust/internal/rules/corruption"
	"github.com/louisbranch/runerust/internal/storage"
)

// CorruptionResult reports one corruption mutation.
type CorruptionResult struct {
	Change  corruption.Change
	Tracker corruption.Tracker
}

// AddCorruption applies a signed corruption delta, records history,
// and emits an event per newly tripped threshold. The tracker is
// created on first sight.
func (e *Engine) AddCorruption(ctx context.Context, characterID string, amount int, source string) (CorruptionResult, error) {
	ctx, span := e.startSpan(ctx, "engine.AddCorruption")
	defer span.End()

	now := e.now()
	tracker, err := e.stores.Corruption.Get(ctx, characterID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return CorruptionResult{}, err
		}
		tracker, err = corruption.NewTracker(characterID, e.rules.Stages, now)
		if err != nil {
			return CorruptionResult{}, err
		}
	}

	change, err := tracker.Add(amount, source, e.rules.Stages, now)
	if err != nil {
		return CorruptionResult{}, err
	}
	if err := e.stores.Corruption.Put(ctx, tracker); err != nil {
		return CorruptionResult{}, err
	}

	entryID, err := e.newID()
	if err != nil {
		return CorruptionResult{}, err
	}
	if err := e.stores.Corruption.AppendHistory(ctx, corruption.HistoryEntry{
		ID:          entryID,
		CharacterID: characterID,
		Source:      source,
		Amount:      change.Applied,
		NewTotal:    change.New,
		CreatedAt:   now,
	}); err != nil {
		return CorruptionResult{}, err
	}

	for _, threshold := range change.ThresholdsTripped {
		_ = e.emitter.Emit(ctx, Event{
			Kind:        EventCorruptionThreshold,
			CharacterID: characterID,
			Message:     "corruption threshold reached",
			Metadata: map[string]string{
				"threshold": intAttr(threshold),
				"stage":     tracker.Stage,
			},
		})
	}
	if change.Consumed {
		_ = e.emitter.Emit(ctx, Event{
			Kind:        EventCharacterConsumed,
			CharacterID: characterID,
			Message:     "character consumed by corruption",
		})
	}

	return CorruptionResult{Change: change, Tracker: tracker}, nil
}

// CorruptionStatus is the tracker plus its derived mechanical
// penalties.
type CorruptionStatus struct {
	Tracker            corruption.Tracker
	Stage              corruption.Stage
	MaxStatPenalty     int
	ResolveDicePenalty int
	FactionLocked      bool
	Consumed           bool
}

// GetCorruptionStatus reads the tracker and derives its penalties.
func (e *Engine) GetCorruptionStatus(ctx context.Context, characterID string) (CorruptionStatus, error) {
	ctx, span := e.startSpan(ctx, "engine.GetCorruptionStatus")
	defer span.End()

	tracker, err := e.stores.Corruption.Get(ctx, characterID)
	if err != nil {
		return CorruptionStatus{}, err
	}
	return CorruptionStatus{
		Tracker:            tracker,
		Stage:              e.rules.Stages.StageFor(tracker.Current),
		MaxStatPenalty:     corruption.MaxStatPenaltyPercent(tracker.Current),
		ResolveDicePenalty: corruption.ResolveDicePenalty(tracker.Current),
		FactionLocked:      corruption.FactionLocked(tracker.Current),
		Consumed:           tracker.IsConsumed(),
	}, nil
}

// CorruptionHistory lists recent corruption mutations, newest first.
func (e *Engine) CorruptionHistory(ctx context.Context, characterID string, limit int) ([]corruption.HistoryEntry, error) {
	return e.stores.Corruption.History(ctx, characterID, limit)
}
