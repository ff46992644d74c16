package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/louisbranch/runerust/internal/rules/corruption"
	"github.com/louisbranch/runerust/internal/rules/trauma"
	"github.com/louisbranch/runerust/internal/storage"
)

// GetTracker retrieves a character's corruption tracker.
func (s *Store) GetTracker(ctx context.Context, characterID string) (corruption.Tracker, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return corruption.Tracker{}, errCharacterIDRequired
	}

	var (
		tracker              corruption.Tracker
		t25, t50, t75        int
		createdAt, updatedAt int64
	)
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT character_id, current, stage, threshold_25, threshold_50, threshold_75, created_at, updated_at
		 FROM corruption_trackers WHERE character_id = ?`,
		characterID,
	)
	err := row.Scan(&tracker.CharacterID, &tracker.Current, &tracker.Stage, &t25, &t50, &t75, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return corruption.Tracker{}, storage.ErrNotFound
		}
		return corruption.Tracker{}, fmt.Errorf("query corruption tracker: %w", err)
	}
	tracker.Threshold25Triggered = t25 != 0
	tracker.Threshold50Triggered = t50 != 0
	tracker.Threshold75Triggered = t75 != 0
	tracker.CreatedAt = fromMillis(createdAt)
	tracker.UpdatedAt = fromMillis(updatedAt)
	return tracker, nil
}

// PutTracker persists a corruption tracker.
func (s *Store) PutTracker(ctx context.Context, tracker corruption.Tracker) error {
	characterID := strings.TrimSpace(tracker.CharacterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO corruption_trackers
		 (character_id, current, stage, threshold_25, threshold_50, threshold_75, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(character_id) DO UPDATE SET
		   current = excluded.current,
		   stage = excluded.stage,
		   threshold_25 = excluded.threshold_25,
		   threshold_50 = excluded.threshold_50,
		   threshold_75 = excluded.threshold_75,
		   updated_at = excluded.updated_at`,
		characterID,
		tracker.Current,
		tracker.Stage,
		boolToInt(tracker.Threshold25Triggered),
		boolToInt(tracker.Threshold50Triggered),
		boolToInt(tracker.Threshold75Triggered),
		toMillis(tracker.CreatedAt),
		toMillis(tracker.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert corruption tracker: %w", err)
	}
	return nil
}

// AppendHistory appends one immutable corruption history entry.
func (s *Store) AppendHistory(ctx context.Context, entry corruption.HistoryEntry) error {
	characterID := strings.TrimSpace(entry.CharacterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO corruption_history (id, character_id, source, amount, new_total, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, characterID, entry.Source, entry.Amount, entry.NewTotal, toMillis(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert corruption history: %w", err)
	}
	return nil
}

// History returns corruption history entries most recent first.
func (s *Store) History(ctx context.Context, characterID string, limit int) ([]corruption.HistoryEntry, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return nil, errCharacterIDRequired
	}

	query := `SELECT id, character_id, source, amount, new_total, created_at
		 FROM corruption_history WHERE character_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{characterID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query corruption history: %w", err)
	}
	defer rows.Close()

	var out []corruption.HistoryEntry
	for rows.Next() {
		var entry corruption.HistoryEntry
		var createdAt int64
		if err := rows.Scan(&entry.ID, &entry.CharacterID, &entry.Source, &entry.Amount, &entry.NewTotal, &createdAt); err != nil {
			return nil, fmt.Errorf("scan corruption history: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate corruption history: %w", err)
	}
	return out, nil
}

// DeleteTracker removes a character's tracker and history.
func (s *Store) DeleteTracker(ctx context.Context, characterID string) error {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete corruption: %w", err)
	}
	for _, stmt := range []string{
		"DELETE FROM corruption_trackers WHERE character_id = ?",
		"DELETE FROM corruption_history WHERE character_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, characterID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete corruption: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete corruption: %w", err)
	}
	return nil
}

// AppendStressHistory appends one immutable stress history entry.
func (s *Store) AppendStressHistory(ctx context.Context, entry trauma.HistoryEntry) error {
	characterID := strings.TrimSpace(entry.CharacterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO stress_history
		 (id, character_id, source, amount, final_amount, previous_stress, new_stress, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, characterID, entry.Source, entry.Amount, entry.FinalAmount,
		entry.PreviousStress, entry.NewStress, toMillis(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert stress history: %w", err)
	}
	return nil
}

// StressHistory returns stress history entries most recent first.
func (s *Store) StressHistory(ctx context.Context, characterID string, limit int) ([]trauma.HistoryEntry, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return nil, errCharacterIDRequired
	}

	query := `SELECT id, character_id, source, amount, final_amount, previous_stress, new_stress, created_at
		 FROM stress_history WHERE character_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{characterID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stress history: %w", err)
	}
	defer rows.Close()

	var out []trauma.HistoryEntry
	for rows.Next() {
		var entry trauma.HistoryEntry
		var createdAt int64
		if err := rows.Scan(&entry.ID, &entry.CharacterID, &entry.Source, &entry.Amount,
			&entry.FinalAmount, &entry.PreviousStress, &entry.NewStress, &createdAt); err != nil {
			return nil, fmt.Errorf("scan stress history: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stress history: %w", err)
	}
	return out, nil
}

// DeleteStressHistory removes a character's stress history.
func (s *Store) DeleteStressHistory(ctx context.Context, characterID string) error {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return errCharacterIDRequired
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM stress_history WHERE character_id = ?", characterID,
	); err != nil {
		return fmt.Errorf("delete stress history: %w", err)
	}
	return nil
}
