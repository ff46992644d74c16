package memory

import (
	"context"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
	"github.com/louisbranch/runerust/internal/storage"
)

var errCharacterIDRequired = apperrors.New(apperrors.CodeCorruptionEmptyCharacterID, "character id is required")

// CharacterStore keeps character meter/stress state in memory.
type CharacterStore struct {
	mu     sync.Mutex
	states map[string]storage.CharacterState
}

// NewCharacterStore creates an empty character store.
func NewCharacterStore() *CharacterStore {
	return &CharacterStore{states: make(map[string]storage.CharacterState)}
}

// Get retrieves a character's state.
func (s *CharacterStore) Get(ctx context.Context, characterID string) (storage.CharacterState, error) {
	if err := ctxErr(ctx); err != nil {
		return storage.CharacterState{}, err
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return storage.CharacterState{}, errCharacterIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[characterID]
	if !ok {
		return storage.CharacterState{}, storage.ErrNotFound
	}
	return state.Clone(), nil
}

// Put persists a character's state, replacing any existing record.
func (s *CharacterStore) Put(ctx context.Context, state storage.CharacterState) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	characterID := strings.TrimSpace(state.CharacterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state.CharacterID = characterID
	s.states[characterID] = state.Clone()
	return nil
}

// Delete removes a character's state. Deleting an absent character is
// a no-op.
func (s *CharacterStore) Delete(ctx context.Context, characterID string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, characterID)
	return nil
}
