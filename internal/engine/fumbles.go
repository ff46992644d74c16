package engine

import (
	"context"

	"github.com/louisbranch/runerust/internal/rules/fumble"
)

// ApplyFumble materializes a fumble consequence from the configured
// catalogue and stores it active. Unknown fumble types fall back to
// the generic consequence while keeping the reported type.
func (e *Engine) ApplyFumble(ctx context.Context, characterID, targetID, skillID string, fumbleType fumble.Type) (fumble.Consequence, error) {
	ctx, span := e.startSpan(ctx, "engine.ApplyFumble")
	defer span.End()

	consequenceID, err := e.newID()
	if err != nil {
		return fumble.Consequence{}, err
	}
	consequence, err := e.rules.Fumbles.Build(consequenceID, characterID, targetID, skillID, fumbleType, e.now())
	if err != nil {
		return fumble.Consequence{}, err
	}
	if err := e.stores.Fumbles.Add(ctx, consequence); err != nil {
		return fumble.Consequence{}, err
	}

	_ = e.emitter.Emit(ctx, Event{
		Kind:        EventFumbleApplied,
		CharacterID: characterID,
		Message:     consequence.Description,
		Metadata: map[string]string{
			"type":  string(consequence.FumbleType),
			"skill": skillID,
		},
	})
	return consequence, nil
}

// ResolveFumble deactivates a consequence whose recovery condition was
// met.
func (e *Engine) ResolveFumble(ctx context.Context, consequenceID string) (fumble.Consequence, error) {
	ctx, span := e.startSpan(ctx, "engine.ResolveFumble")
	defer span.End()

	consequence, err := e.stores.Fumbles.Get(ctx, consequenceID)
	if err != nil {
		return fumble.Consequence{}, err
	}
	consequence.IsActive = false
	if err := e.stores.Fumbles.Update(ctx, consequence); err != nil {
		return fumble.Consequence{}, err
	}
	return consequence, nil
}

// ActiveFumbles lists the character's active, unexpired consequences.
func (e *Engine) ActiveFumbles(ctx context.Context, characterID string) ([]fumble.Consequence, error) {
	return e.stores.Fumbles.ActiveByCharacter(ctx, characterID, e.now())
}
