// Package sqlite provides the persisted implementation of the storage
// contracts on a single sqlite database, with embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
	"github.com/louisbranch/runerust/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/runerust/internal/rules/check"
	"github.com/louisbranch/runerust/internal/rules/corruption"
	"github.com/louisbranch/runerust/internal/rules/fumble"
	"github.com/louisbranch/runerust/internal/rules/trauma"
	"github.com/louisbranch/runerust/internal/storage"
)

var (
	errCharacterIDRequired   = apperrors.New(apperrors.CodeCorruptionEmptyCharacterID, "character id is required")
	errCheckIDRequired       = apperrors.New(apperrors.CodeChainEmptyCheckID, "check id is required")
	errConsequenceIDRequired = apperrors.New(apperrors.CodeFumbleEmptyConsequenceID, "consequence id is required")
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a sqlite-backed store implementing every storage contract.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path and applies
// pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	cleanPath := filepath.Clean(strings.TrimSpace(path))
	if cleanPath == "" || cleanPath == "." {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// Stores returns the bundle view over this store. The store contracts
// share method names with differing signatures, so each field is a
// thin named view over the same connection.
func (s *Store) Stores() storage.Stores {
	return storage.Stores{
		Characters: characterView{s},
		Corruption: corruptionView{s},
		Stress:     stressView{s},
		Checks:     checkView{s},
		Fumbles:    fumbleView{s},
	}
}

type characterView struct{ store *Store }

func (v characterView) Get(ctx context.Context, characterID string) (storage.CharacterState, error) {
	return v.store.GetCharacter(ctx, characterID)
}

func (v characterView) Put(ctx context.Context, state storage.CharacterState) error {
	return v.store.PutCharacter(ctx, state)
}

func (v characterView) Delete(ctx context.Context, characterID string) error {
	return v.store.DeleteCharacter(ctx, characterID)
}

type corruptionView struct{ store *Store }

func (v corruptionView) Get(ctx context.Context, characterID string) (corruption.Tracker, error) {
	return v.store.GetTracker(ctx, characterID)
}

func (v corruptionView) Put(ctx context.Context, tracker corruption.Tracker) error {
	return v.store.PutTracker(ctx, tracker)
}

func (v corruptionView) AppendHistory(ctx context.Context, entry corruption.HistoryEntry) error {
	return v.store.AppendHistory(ctx, entry)
}

func (v corruptionView) History(ctx context.Context, characterID string, limit int) ([]corruption.HistoryEntry, error) {
	return v.store.History(ctx, characterID, limit)
}

func (v corruptionView) Delete(ctx context.Context, characterID string) error {
	return v.store.DeleteTracker(ctx, characterID)
}

type stressView struct{ store *Store }

func (v stressView) Append(ctx context.Context, entry trauma.HistoryEntry) error {
	return v.store.AppendStressHistory(ctx, entry)
}

func (v stressView) History(ctx context.Context, characterID string, limit int) ([]trauma.HistoryEntry, error) {
	return v.store.StressHistory(ctx, characterID, limit)
}

func (v stressView) Delete(ctx context.Context, characterID string) error {
	return v.store.DeleteStressHistory(ctx, characterID)
}

type checkView struct{ store *Store }

func (v checkView) AddIfAbsent(ctx context.Context, state check.State) (bool, error) {
	return v.store.AddCheckIfAbsent(ctx, state)
}

func (v checkView) Upsert(ctx context.Context, state check.State) error {
	return v.store.UpsertCheck(ctx, state)
}

func (v checkView) Get(ctx context.Context, checkID string) (check.State, error) {
	return v.store.GetCheck(ctx, checkID)
}

func (v checkView) ActiveByCharacter(ctx context.Context, characterID string) ([]check.State, error) {
	return v.store.ActiveChecksByCharacter(ctx, characterID)
}

func (v checkView) RemoveAllForCharacter(ctx context.Context, characterID string) error {
	return v.store.RemoveAllChecksForCharacter(ctx, characterID)
}

type fumbleView struct{ store *Store }

func (v fumbleView) Add(ctx context.Context, consequence fumble.Consequence) error {
	return v.store.AddConsequence(ctx, consequence)
}

func (v fumbleView) Get(ctx context.Context, consequenceID string) (fumble.Consequence, error) {
	return v.store.GetConsequence(ctx, consequenceID)
}

func (v fumbleView) Update(ctx context.Context, consequence fumble.Consequence) error {
	return v.store.UpdateConsequence(ctx, consequence)
}

func (v fumbleView) ActiveByCharacter(ctx context.Context, characterID string, asOf time.Time) ([]fumble.Consequence, error) {
	return v.store.ActiveConsequencesByCharacter(ctx, characterID, asOf)
}

func (v fumbleView) Remove(ctx context.Context, consequenceID string) error {
	return v.store.RemoveConsequence(ctx, consequenceID)
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// toNullMillis maps the zero time to NULL so "never" survives the
// round trip.
func toNullMillis(value time.Time) sql.NullInt64 {
	if value.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(value), Valid: true}
}

func fromNullMillis(value sql.NullInt64) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	return fromMillis(value.Int64)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
