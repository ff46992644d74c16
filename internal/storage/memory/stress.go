package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/louisbranch/runerust/internal/rules/trauma"
)

type stressShard struct {
	mu      sync.Mutex
	history []trauma.HistoryEntry
}

// StressHistoryStore keeps the stress mutation log in memory with
// per-character lock sharding.
type StressHistoryStore struct {
	mu     sync.RWMutex
	shards map[string]*stressShard
}

// NewStressHistoryStore creates an empty stress history store.
func NewStressHistoryStore() *StressHistoryStore {
	return &StressHistoryStore{shards: make(map[string]*stressShard)}
}

func (s *StressHistoryStore) shard(characterID string) *stressShard {
	s.mu.RLock()
	shard, ok := s.shards[characterID]
	s.mu.RUnlock()
	if ok {
		return shard
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if shard, ok := s.shards[characterID]; ok {
		return shard
	}
	shard = &stressShard{}
	s.shards[characterID] = shard
	return shard
}

// Append appends one immutable stress history entry.
func (s *StressHistoryStore) Append(ctx context.Context, entry trauma.HistoryEntry) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	characterID := strings.TrimSpace(entry.CharacterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	shard := s.shard(characterID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.history = append(shard.history, entry)
	return nil
}

// History returns entries most recent first, at most limit when limit
// is positive.
func (s *StressHistoryStore) History(ctx context.Context, characterID string, limit int) ([]trauma.HistoryEntry, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return nil, errCharacterIDRequired
	}

	shard := s.shard(characterID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	out := make([]trauma.HistoryEntry, len(shard.history))
	copy(out, shard.history)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a character's stress history.
func (s *StressHistoryStore) Delete(ctx context.Context, characterID string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.shards, characterID)
	return nil
}
