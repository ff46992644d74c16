package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/runerust/internal/rules/check"
	"github.com/louisbranch/runerust/internal/storage"
)

type stepRecord struct {
	Name           string `json:"name"`
	Skill          string `json:"skill"`
	Difficulty     int    `json:"difficulty"`
	RetriesAllowed int    `json:"retriesAllowed"`
}

func encodeSteps(steps []check.Step) (string, error) {
	records := make([]stepRecord, 0, len(steps))
	for _, step := range steps {
		records = append(records, stepRecord(step))
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode steps: %w", err)
	}
	return string(raw), nil
}

func decodeSteps(raw string) ([]check.Step, error) {
	var records []stepRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	steps := make([]check.Step, 0, len(records))
	for _, record := range records {
		steps = append(steps, check.Step(record))
	}
	return steps, nil
}

// AddCheckIfAbsent inserts a chained check attempt unless the id
// already exists. An existing row is never overwritten.
func (s *Store) AddCheckIfAbsent(ctx context.Context, state check.State) (bool, error) {
	checkID := strings.TrimSpace(state.CheckID)
	if checkID == "" {
		return false, errCheckIDRequired
	}
	characterID := strings.TrimSpace(state.CharacterID)
	if characterID == "" {
		return false, errCharacterIDRequired
	}

	steps, err := encodeSteps(state.Steps)
	if err != nil {
		return false, err
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO chained_checks
		 (check_id, character_id, chain_name, steps, current_step, retries_used, awaiting_retry, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		checkID, characterID, state.ChainName, steps,
		state.CurrentStep, state.RetriesUsed, boolToInt(state.AwaitingRetry),
		state.Status.String(), toMillis(state.CreatedAt), toMillis(state.UpdatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert chained check: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert chained check: %w", err)
	}
	return affected > 0, nil
}

// UpsertCheck always replaces the stored attempt by check id.
func (s *Store) UpsertCheck(ctx context.Context, state check.State) error {
	checkID := strings.TrimSpace(state.CheckID)
	if checkID == "" {
		return errCheckIDRequired
	}
	characterID := strings.TrimSpace(state.CharacterID)
	if characterID == "" {
		return errCharacterIDRequired
	}

	steps, err := encodeSteps(state.Steps)
	if err != nil {
		return err
	}

	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO chained_checks
		 (check_id, character_id, chain_name, steps, current_step, retries_used, awaiting_retry, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(check_id) DO UPDATE SET
		   character_id = excluded.character_id,
		   chain_name = excluded.chain_name,
		   steps = excluded.steps,
		   current_step = excluded.current_step,
		   retries_used = excluded.retries_used,
		   awaiting_retry = excluded.awaiting_retry,
		   status = excluded.status,
		   updated_at = excluded.updated_at`,
		checkID, characterID, state.ChainName, steps,
		state.CurrentStep, state.RetriesUsed, boolToInt(state.AwaitingRetry),
		state.Status.String(), toMillis(state.CreatedAt), toMillis(state.UpdatedAt),
	); err != nil {
		return fmt.Errorf("upsert chained check: %w", err)
	}
	return nil
}

// GetCheck retrieves a chained check attempt by id.
func (s *Store) GetCheck(ctx context.Context, checkID string) (check.State, error) {
	checkID = strings.TrimSpace(checkID)
	if checkID == "" {
		return check.State{}, errCheckIDRequired
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT check_id, character_id, chain_name, steps, current_step, retries_used, awaiting_retry, status, created_at, updated_at
		 FROM chained_checks WHERE check_id = ?`,
		checkID,
	)
	state, err := scanCheck(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return check.State{}, storage.ErrNotFound
		}
		return check.State{}, err
	}
	return state, nil
}

// ActiveChecksByCharacter returns the character's non-terminal
// attempts, oldest first.
func (s *Store) ActiveChecksByCharacter(ctx context.Context, characterID string) ([]check.State, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return nil, errCharacterIDRequired
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT check_id, character_id, chain_name, steps, current_step, retries_used, awaiting_retry, status, created_at, updated_at
		 FROM chained_checks
		 WHERE character_id = ? AND status IN (?, ?)
		 ORDER BY created_at ASC`,
		characterID, check.Pending.String(), check.InProgress.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query active checks: %w", err)
	}
	defer rows.Close()

	var out []check.State
	for rows.Next() {
		state, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active checks: %w", err)
	}
	return out, nil
}

// RemoveAllChecksForCharacter removes every attempt belonging to the
// character.
func (s *Store) RemoveAllChecksForCharacter(ctx context.Context, characterID string) error {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return errCharacterIDRequired
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM chained_checks WHERE character_id = ?", characterID,
	); err != nil {
		return fmt.Errorf("delete chained checks: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheck(row rowScanner) (check.State, error) {
	var (
		state                check.State
		stepsRaw             string
		awaitingRetry        int
		statusName           string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&state.CheckID, &state.CharacterID, &state.ChainName, &stepsRaw,
		&state.CurrentStep, &state.RetriesUsed, &awaitingRetry, &statusName, &createdAt, &updatedAt); err != nil {
		return check.State{}, err
	}

	steps, err := decodeSteps(stepsRaw)
	if err != nil {
		return check.State{}, err
	}
	status, err := check.ParseStatus(statusName)
	if err != nil {
		return check.State{}, err
	}

	state.Steps = steps
	state.AwaitingRetry = awaitingRetry != 0
	state.Status = status
	state.CreatedAt = fromMillis(createdAt)
	state.UpdatedAt = fromMillis(updatedAt)
	return state, nil
}
