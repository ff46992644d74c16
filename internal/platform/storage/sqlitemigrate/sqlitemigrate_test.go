package sqlitemigrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "migrate.db")
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestApplyRunsMigrationsInOrder(t *testing.T) {
	sqlDB := openTestDB(t)
	migrations := fstest.MapFS{
		"0001_create.sql": &fstest.MapFile{Data: []byte("CREATE TABLE widgets (id TEXT PRIMARY KEY);")},
		"0002_alter.sql":  &fstest.MapFile{Data: []byte("ALTER TABLE widgets ADD COLUMN label TEXT;")},
	}

	if err := Apply(context.Background(), sqlDB, migrations); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if _, err := sqlDB.Exec("INSERT INTO widgets (id, label) VALUES ('a', 'first')"); err != nil {
		t.Fatalf("insert after migrations: %v", err)
	}

	var count int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 2 {
		t.Fatalf("applied migrations = %d, want 2", count)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	sqlDB := openTestDB(t)
	migrations := fstest.MapFS{
		"0001_create.sql": &fstest.MapFile{Data: []byte("CREATE TABLE widgets (id TEXT PRIMARY KEY);")},
	}

	for i := 0; i < 3; i++ {
		if err := Apply(context.Background(), sqlDB, migrations); err != nil {
			t.Fatalf("Apply() run %d error = %v", i, err)
		}
	}

	var count int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Fatalf("applied migrations = %d, want 1", count)
	}
}

func TestApplySkipsEmptyFiles(t *testing.T) {
	sqlDB := openTestDB(t)
	migrations := fstest.MapFS{
		"0001_empty.sql": &fstest.MapFile{Data: []byte("   \n")},
	}

	if err := Apply(context.Background(), sqlDB, migrations); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	var count int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 0 {
		t.Fatalf("applied migrations = %d, want 0", count)
	}
}

func TestApplyRejectsInvalidSQL(t *testing.T) {
	sqlDB := openTestDB(t)
	migrations := fstest.MapFS{
		"0001_bad.sql": &fstest.MapFile{Data: []byte("CREATE TABL broken")},
	}

	if err := Apply(context.Background(), sqlDB, migrations); err == nil {
		t.Fatal("Apply() error = nil, want parse failure")
	}
}
