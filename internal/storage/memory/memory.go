// Package memory provides the in-memory reference implementations of
// the storage contracts. Lookups go through a map guarded by a store
// level lock; per-character history lists are guarded by a lock scoped
// to that character, so contention on one character never blocks
// another. Operations never block on I/O; context cancellation is
// honored on entry only.
package memory

import (
	"context"

	"github.com/louisbranch/runerust/internal/storage"
)

// NewStores builds a full in-memory store bundle.
func NewStores() storage.Stores {
	return storage.Stores{
		Characters: NewCharacterStore(),
		Corruption: NewCorruptionStore(),
		Stress:     NewStressHistoryStore(),
		Checks:     NewCheckStore(),
		Fumbles:    NewFumbleStore(),
	}
}

func ctxErr(ctx context.Context) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
