package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/louisbranch/runerust/internal/rules/corruption"
	"github.com/louisbranch/runerust/internal/storage"
)

// corruptionShard holds one character's tracker and history under its
// own lock.
type corruptionShard struct {
	mu      sync.Mutex
	tracker *corruption.Tracker
	history []corruption.HistoryEntry
}

// CorruptionStore keeps corruption trackers and history in memory with
// per-character lock sharding.
type CorruptionStore struct {
	mu     sync.RWMutex
	shards map[string]*corruptionShard
}

// NewCorruptionStore creates an empty corruption store.
func NewCorruptionStore() *CorruptionStore {
	return &CorruptionStore{shards: make(map[string]*corruptionShard)}
}

func (s *CorruptionStore) shard(characterID string) *corruptionShard {
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
	shard = &corruptionShard{}
	s.shards[characterID] = shard
	return shard
}

// Get retrieves a character's corruption tracker.
func (s *CorruptionStore) Get(ctx context.Context, characterID string) (corruption.Tracker, error) {
	if err := ctxErr(ctx); err != nil {
		return corruption.Tracker{}, err
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return corruption.Tracker{}, errCharacterIDRequired
	}

	shard := s.shard(characterID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if shard.tracker == nil {
		return corruption.Tracker{}, storage.ErrNotFound
	}
	return *shard.tracker, nil
}

// Put persists a corruption tracker.
func (s *CorruptionStore) Put(ctx context.Context, tracker corruption.Tracker) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	characterID := strings.TrimSpace(tracker.CharacterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	shard := s.shard(characterID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	tracker.CharacterID = characterID
	shard.tracker = &tracker
	return nil
}

// AppendHistory appends one immutable history entry.
func (s *CorruptionStore) AppendHistory(ctx context.Context, entry corruption.HistoryEntry) error {
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
func (s *CorruptionStore) History(ctx context.Context, characterID string, limit int) ([]corruption.HistoryEntry, error) {
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

	out := make([]corruption.HistoryEntry, len(shard.history))
	copy(out, shard.history)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a character's tracker and history.
func (s *CorruptionStore) Delete(ctx context.Context, characterID string) error {
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
