package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/louisbranch/runerust/internal/rules/resource"
	"github.com/louisbranch/runerust/internal/storage"
)

// GetCharacter retrieves a character's meter and stress state.
func (s *Store) GetCharacter(ctx context.Context, characterID string) (storage.CharacterState, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return storage.CharacterState{}, errCharacterIDRequired
	}

	var state storage.CharacterState
	var updatedAt int64
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT character_id, stress, updated_at FROM character_state WHERE character_id = ?",
		characterID,
	)
	if err := row.Scan(&state.CharacterID, &state.Stress, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return storage.CharacterState{}, storage.ErrNotFound
		}
		return storage.CharacterState{}, fmt.Errorf("query character state: %w", err)
	}
	state.UpdatedAt = fromMillis(updatedAt)
	state.Meters = make(map[resource.Type]resource.Meter)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT resource_type, value, idle_turns, hit_chain_broken, last_combat_action, last_updated
		 FROM resource_meters WHERE character_id = ?`,
		characterID,
	)
	if err != nil {
		return storage.CharacterState{}, fmt.Errorf("query resource meters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			typeName         string
			value            int
			idleTurns        int
			hitChainBroken   int
			lastCombatAction sql.NullInt64
			lastUpdated      int64
		)
		if err := rows.Scan(&typeName, &value, &idleTurns, &hitChainBroken, &lastCombatAction, &lastUpdated); err != nil {
			return storage.CharacterState{}, fmt.Errorf("scan resource meter: %w", err)
		}
		resourceType, err := resource.ParseType(typeName)
		if err != nil {
			return storage.CharacterState{}, err
		}
		state.Meters[resourceType] = resource.Meter{
			CharacterID:      characterID,
			Type:             resourceType,
			Value:            value,
			IdleTurns:        idleTurns,
			HitChainBroken:   hitChainBroken != 0,
			LastCombatAction: fromNullMillis(lastCombatAction),
			LastUpdated:      fromMillis(lastUpdated),
		}
	}
	if err := rows.Err(); err != nil {
		return storage.CharacterState{}, fmt.Errorf("iterate resource meters: %w", err)
	}

	return state, nil
}

// PutCharacter persists a character's state, replacing any existing record.
func (s *Store) PutCharacter(ctx context.Context, state storage.CharacterState) error {
	characterID := strings.TrimSpace(state.CharacterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put character: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO character_state (character_id, stress, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(character_id) DO UPDATE SET stress = excluded.stress, updated_at = excluded.updated_at`,
		characterID, state.Stress, toMillis(state.UpdatedAt),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert character state: %w", err)
	}

	for resourceType, meter := range state.Meters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO resource_meters
			 (character_id, resource_type, value, idle_turns, hit_chain_broken, last_combat_action, last_updated)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(character_id, resource_type) DO UPDATE SET
			   value = excluded.value,
			   idle_turns = excluded.idle_turns,
			   hit_chain_broken = excluded.hit_chain_broken,
			   last_combat_action = excluded.last_combat_action,
			   last_updated = excluded.last_updated`,
			characterID,
			resourceType.String(),
			meter.Value,
			meter.IdleTurns,
			boolToInt(meter.HitChainBroken),
			toNullMillis(meter.LastCombatAction),
			toMillis(meter.LastUpdated),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert %s meter: %w", resourceType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put character: %w", err)
	}
	return nil
}

// DeleteCharacter removes a character's state and meters.
func (s *Store) DeleteCharacter(ctx context.Context, characterID string) error {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete character: %w", err)
	}
	for _, stmt := range []string{
		"DELETE FROM character_state WHERE character_id = ?",
		"DELETE FROM resource_meters WHERE character_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, characterID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete character: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete character: %w", err)
	}
	return nil
}
