package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/runerust/internal/rules/fumble"
	"github.com/louisbranch/runerust/internal/storage"
)

// AddConsequence stores a fumble consequence.
func (s *Store) AddConsequence(ctx context.Context, consequence fumble.Consequence) error {
	return s.putConsequence(ctx, consequence)
}

// UpdateConsequence replaces a stored fumble consequence.
func (s *Store) UpdateConsequence(ctx context.Context, consequence fumble.Consequence) error {
	return s.putConsequence(ctx, consequence)
}

func (s *Store) putConsequence(ctx context.Context, consequence fumble.Consequence) error {
	consequenceID := strings.TrimSpace(consequence.ConsequenceID)
	if consequenceID == "" {
		return errConsequenceIDRequired
	}
	characterID := strings.TrimSpace(consequence.CharacterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	var durationMS sql.NullInt64
	if consequence.Duration != nil {
		durationMS = sql.NullInt64{Int64: consequence.Duration.Milliseconds(), Valid: true}
	}

	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO fumble_consequences
		 (consequence_id, character_id, target_id, skill_id, fumble_type, description, duration_ms, recovery_condition, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(consequence_id) DO UPDATE SET
		   character_id = excluded.character_id,
		   target_id = excluded.target_id,
		   skill_id = excluded.skill_id,
		   fumble_type = excluded.fumble_type,
		   description = excluded.description,
		   duration_ms = excluded.duration_ms,
		   recovery_condition = excluded.recovery_condition,
		   is_active = excluded.is_active`,
		consequenceID, characterID, consequence.TargetID, consequence.SkillID,
		string(consequence.FumbleType), consequence.Description, durationMS,
		consequence.RecoveryCondition, boolToInt(consequence.IsActive),
		toMillis(consequence.CreatedAt),
	); err != nil {
		return fmt.Errorf("upsert fumble consequence: %w", err)
	}
	return nil
}

// GetConsequence retrieves a fumble consequence by id.
func (s *Store) GetConsequence(ctx context.Context, consequenceID string) (fumble.Consequence, error) {
	consequenceID = strings.TrimSpace(consequenceID)
	if consequenceID == "" {
		return fumble.Consequence{}, errConsequenceIDRequired
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT consequence_id, character_id, target_id, skill_id, fumble_type, description, duration_ms, recovery_condition, is_active, created_at
		 FROM fumble_consequences WHERE consequence_id = ?`,
		consequenceID,
	)
	consequence, err := scanConsequence(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return fumble.Consequence{}, storage.ErrNotFound
		}
		return fumble.Consequence{}, err
	}
	return consequence, nil
}

// ActiveConsequencesByCharacter returns the character's active,
// unexpired consequences as of the given time, oldest first.
func (s *Store) ActiveConsequencesByCharacter(ctx context.Context, characterID string, asOf time.Time) ([]fumble.Consequence, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return nil, errCharacterIDRequired
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT consequence_id, character_id, target_id, skill_id, fumble_type, description, duration_ms, recovery_condition, is_active, created_at
		 FROM fumble_consequences
		 WHERE character_id = ? AND is_active = 1
		   AND (duration_ms IS NULL OR created_at + duration_ms > ?)
		 ORDER BY created_at ASC`,
		characterID, toMillis(asOf),
	)
	if err != nil {
		return nil, fmt.Errorf("query active consequences: %w", err)
	}
	defer rows.Close()

	var out []fumble.Consequence
	for rows.Next() {
		consequence, err := scanConsequence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, consequence)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active consequences: %w", err)
	}
	return out, nil
}

// RemoveConsequence deletes a fumble consequence. Removing an absent
// id is not an error.
func (s *Store) RemoveConsequence(ctx context.Context, consequenceID string) error {
	consequenceID = strings.TrimSpace(consequenceID)
	if consequenceID == "" {
		return errConsequenceIDRequired
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM fumble_consequences WHERE consequence_id = ?", consequenceID,
	); err != nil {
		return fmt.Errorf("delete fumble consequence: %w", err)
	}
	return nil
}

func scanConsequence(row rowScanner) (fumble.Consequence, error) {
	var (
		consequence fumble.Consequence
		fumbleType  string
		durationMS  sql.NullInt64
		isActive    int
		createdAt   int64
	)
	if err := row.Scan(&consequence.ConsequenceID, &consequence.CharacterID,
		&consequence.TargetID, &consequence.SkillID, &fumbleType,
		&consequence.Description, &durationMS, &consequence.RecoveryCondition,
		&isActive, &createdAt); err != nil {
		return fumble.Consequence{}, err
	}

	consequence.FumbleType = fumble.Type(fumbleType)
	if durationMS.Valid {
		d := time.Duration(durationMS.Int64) * time.Millisecond
		consequence.Duration = &d
	}
	consequence.IsActive = isActive != 0
	consequence.CreatedAt = fromMillis(createdAt)
	return consequence, nil
}
