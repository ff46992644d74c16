package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
	"github.com/louisbranch/runerust/internal/rules/fumble"
	"github.com/louisbranch/runerust/internal/storage"
)

var errConsequenceIDRequired = apperrors.New(apperrors.CodeFumbleEmptyConsequenceID, "consequence id is required")

// FumbleStore keeps fumble consequences in memory, keyed by
// consequence id with a secondary character index.
type FumbleStore struct {
	mu          sync.Mutex
	byID        map[string]fumble.Consequence
	byCharacter map[string]map[string]struct{}
}

// NewFumbleStore creates an empty fumble consequence store.
func NewFumbleStore() *FumbleStore {
	return &FumbleStore{
		byID:        make(map[string]fumble.Consequence),
		byCharacter: make(map[string]map[string]struct{}),
	}
}

// Add inserts a consequence.
func (s *FumbleStore) Add(ctx context.Context, consequence fumble.Consequence) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	return s.put(consequence)
}

// Update replaces a stored consequence by id.
func (s *FumbleStore) Update(ctx context.Context, consequence fumble.Consequence) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	return s.put(consequence)
}

func (s *FumbleStore) put(consequence fumble.Consequence) error {
	consequenceID := strings.TrimSpace(consequence.ConsequenceID)
	if consequenceID == "" {
		return errConsequenceIDRequired
	}
	characterID := strings.TrimSpace(consequence.CharacterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	consequence.ConsequenceID = consequenceID
	consequence.CharacterID = characterID
	s.byID[consequenceID] = consequence

	index, ok := s.byCharacter[characterID]
	if !ok {
		index = make(map[string]struct{})
		s.byCharacter[characterID] = index
	}
	index[consequenceID] = struct{}{}
	return nil
}

// Get retrieves a consequence by id.
func (s *FumbleStore) Get(ctx context.Context, consequenceID string) (fumble.Consequence, error) {
	if err := ctxErr(ctx); err != nil {
		return fumble.Consequence{}, err
	}
	consequenceID = strings.TrimSpace(consequenceID)
	if consequenceID == "" {
		return fumble.Consequence{}, errConsequenceIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	consequence, ok := s.byID[consequenceID]
	if !ok {
		return fumble.Consequence{}, storage.ErrNotFound
	}
	return consequence, nil
}

// ActiveByCharacter returns consequences still active as of asOf:
// marked active and not time-expired. Results are ordered by creation
// time.
func (s *FumbleStore) ActiveByCharacter(ctx context.Context, characterID string, asOf time.Time) ([]fumble.Consequence, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return nil, errCharacterIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []fumble.Consequence
	for consequenceID := range s.byCharacter[characterID] {
		consequence := s.byID[consequenceID]
		if consequence.IsActive && !consequence.IsExpired(asOf) {
			out = append(out, consequence)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Remove deletes a consequence. Removing an absent consequence is a
// no-op.
func (s *FumbleStore) Remove(ctx context.Context, consequenceID string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	consequenceID = strings.TrimSpace(consequenceID)
	if consequenceID == "" {
		return errConsequenceIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	consequence, ok := s.byID[consequenceID]
	if !ok {
		return nil
	}
	delete(s.byID, consequenceID)
	if index, ok := s.byCharacter[consequence.CharacterID]; ok {
		delete(index, consequenceID)
		if len(index) == 0 {
			delete(s.byCharacter, consequence.CharacterID)
		}
	}
	return nil
}
