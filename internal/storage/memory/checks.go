package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
	"github.com/louisbranch/runerust/internal/rules/check"
	"github.com/louisbranch/runerust/internal/storage"
)

var errCheckIDRequired = apperrors.New(apperrors.CodeChainEmptyCheckID, "check id is required")

// CheckStore keeps chained check attempts in memory, keyed by check id
// with a secondary character index.
type CheckStore struct {
	mu          sync.Mutex
	byID        map[string]check.State
	byCharacter map[string]map[string]struct{}
}

// NewCheckStore creates an empty chained check store.
func NewCheckStore() *CheckStore {
	return &CheckStore{
		byID:        make(map[string]check.State),
		byCharacter: make(map[string]map[string]struct{}),
	}
}

// AddIfAbsent inserts the state unless the check id already exists.
// An existing state is never overwritten.
func (s *CheckStore) AddIfAbsent(ctx context.Context, state check.State) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}
	checkID := strings.TrimSpace(state.CheckID)
	if checkID == "" {
		return false, errCheckIDRequired
	}
	characterID := strings.TrimSpace(state.CharacterID)
	if characterID == "" {
		return false, errCharacterIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[checkID]; exists {
		return false, nil
	}
	s.store(checkID, characterID, state)
	return true, nil
}

// Upsert always replaces the stored state by check id.
func (s *CheckStore) Upsert(ctx context.Context, state check.State) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	checkID := strings.TrimSpace(state.CheckID)
	if checkID == "" {
		return errCheckIDRequired
	}
	characterID := strings.TrimSpace(state.CharacterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store(checkID, characterID, state)
	return nil
}

func (s *CheckStore) store(checkID, characterID string, state check.State) {
	state.CheckID = checkID
	state.CharacterID = characterID
	s.byID[checkID] = state

	index, ok := s.byCharacter[characterID]
	if !ok {
		index = make(map[string]struct{})
		s.byCharacter[characterID] = index
	}
	index[checkID] = struct{}{}
}

// Get retrieves a chained check attempt by id.
func (s *CheckStore) Get(ctx context.Context, checkID string) (check.State, error) {
	if err := ctxErr(ctx); err != nil {
		return check.State{}, err
	}
	checkID = strings.TrimSpace(checkID)
	if checkID == "" {
		return check.State{}, errCheckIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.byID[checkID]
	if !ok {
		return check.State{}, storage.ErrNotFound
	}
	return state, nil
}

// ActiveByCharacter returns the character's non-terminal attempts,
// ordered by creation time.
func (s *CheckStore) ActiveByCharacter(ctx context.Context, characterID string) ([]check.State, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return nil, errCharacterIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []check.State
	for checkID := range s.byCharacter[characterID] {
		state := s.byID[checkID]
		if !state.Status.Terminal() {
			out = append(out, state)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// RemoveAllForCharacter removes every attempt belonging to the
// character, used for character cleanup.
func (s *CheckStore) RemoveAllForCharacter(ctx context.Context, characterID string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for checkID := range s.byCharacter[characterID] {
		delete(s.byID, checkID)
	}
	delete(s.byCharacter, characterID)
	return nil
}
