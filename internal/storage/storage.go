// Package storage defines the repository contracts the engine
// persists through: character state, corruption trackers and history,
// stress history, chained checks, and fumble consequences. All stores
// are keyed by character id; history lists are append-only.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
	"github.com/louisbranch/runerust/internal/rules/check"
	"github.com/louisbranch/runerust/internal/rules/corruption"
	"github.com/louisbranch/runerust/internal/rules/fumble"
	"github.com/louisbranch/runerust/internal/rules/resource"
	"github.com/louisbranch/runerust/internal/rules/trauma"
)

// ErrNotFound indicates the looked-up record does not exist. Callers
// choose their own default instead of treating this as fatal.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// CharacterState is one character's persisted meter and stress state.
type CharacterState struct {
	CharacterID string
	Meters      map[resource.Type]resource.Meter
	Stress      int
	UpdatedAt   time.Time
}

// Clone deep-copies the state so callers cannot alias store internals.
func (s CharacterState) Clone() CharacterState {
	out := s
	out.Meters = make(map[resource.Type]resource.Meter, len(s.Meters))
	for resourceType, meter := range s.Meters {
		out.Meters[resourceType] = meter
	}
	return out
}

// CharacterStore persists per-character meter and stress state.
type CharacterStore interface {
	Get(ctx context.Context, characterID string) (CharacterState, error)
	Put(ctx context.Context, state CharacterState) error
	Delete(ctx context.Context, characterID string) error
}

// CorruptionStore persists corruption trackers and their history.
type CorruptionStore interface {
	Get(ctx context.Context, characterID string) (corruption.Tracker, error)
	Put(ctx context.Context, tracker corruption.Tracker) error
	AppendHistory(ctx context.Context, entry corruption.HistoryEntry) error
	// History returns entries most recent first. A limit <= 0 returns
	// everything.
	History(ctx context.Context, characterID string, limit int) ([]corruption.HistoryEntry, error)
	Delete(ctx context.Context, characterID string) error
}

// StressHistoryStore persists the append-only stress mutation log.
type StressHistoryStore interface {
	Append(ctx context.Context, entry trauma.HistoryEntry) error
	// History returns entries most recent first. A limit <= 0 returns
	// everything.
	History(ctx context.Context, characterID string, limit int) ([]trauma.HistoryEntry, error)
	Delete(ctx context.Context, characterID string) error
}

// CheckStore persists chained check attempts keyed by check id with a
// secondary character index.
type CheckStore interface {
	// AddIfAbsent inserts the state unless the check id already
	// exists. It reports whether the insert happened; an existing
	// state is never overwritten.
	AddIfAbsent(ctx context.Context, state check.State) (bool, error)
	// Upsert always replaces the stored state by check id.
	Upsert(ctx context.Context, state check.State) error
	Get(ctx context.Context, checkID string) (check.State, error)
	// ActiveByCharacter returns only non-terminal attempts.
	ActiveByCharacter(ctx context.Context, characterID string) ([]check.State, error)
	RemoveAllForCharacter(ctx context.Context, characterID string) error
}

// FumbleStore persists fumble consequences keyed by consequence id
// with a secondary character index.
type FumbleStore interface {
	Add(ctx context.Context, consequence fumble.Consequence) error
	Get(ctx context.Context, consequenceID string) (fumble.Consequence, error)
	Update(ctx context.Context, consequence fumble.Consequence) error
	// ActiveByCharacter returns consequences still active as of asOf:
	// marked active and not time-expired.
	ActiveByCharacter(ctx context.Context, characterID string, asOf time.Time) ([]fumble.Consequence, error)
	Remove(ctx context.Context, consequenceID string) error
}

// Stores bundles every repository the engine needs.
type Stores struct {
	Characters CharacterStore
	Corruption CorruptionStore
	Stress     StressHistoryStore
	Checks     CheckStore
	Fumbles    FumbleStore
}
