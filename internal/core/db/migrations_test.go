package db

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// Schema files open with header comments attached to the first statement;
// the statement splitter must not swallow that statement as a comment.
func TestMigrateUp_CreatesAllTables(t *testing.T) {
	conn := newTestDB(t)

	if err := MigrateUp(conn); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}

	for _, table := range []string{"datasets", "dataset_rows", "dataset_grants", "reports", "api_keys", "migrations"} {
		var n int
		err := conn.Get(&n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		if err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if n != 1 {
			t.Errorf("table %s not created", table)
		}
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	conn := newTestDB(t)

	if err := MigrateUp(conn); err != nil {
		t.Fatalf("first MigrateUp: %v", err)
	}
	if err := MigrateUp(conn); err != nil {
		t.Fatalf("second MigrateUp: %v", err)
	}
}

func TestMigrateStatus_AppliedTimestamps(t *testing.T) {
	conn := newTestDB(t)

	if err := MigrateUp(conn); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}

	statuses, err := MigrateStatus(conn)
	if err != nil {
		t.Fatalf("MigrateStatus: %v", err)
	}
	if len(statuses) == 0 {
		t.Fatal("no migration statuses reported")
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("migration %s reported as pending after MigrateUp", s.ID)
		}
		if s.AppliedAt == nil || s.AppliedAt.IsZero() {
			t.Errorf("migration %s has no applied_at timestamp", s.ID)
		}
	}
}

func TestStripLineComments(t *testing.T) {
	in := "-- header\n-- more header\nCREATE TABLE t (id INTEGER);\n  -- indented comment\nCREATE INDEX i ON t (id);\n"
	got := stripLineComments(in)
	want := "CREATE TABLE t (id INTEGER);\nCREATE INDEX i ON t (id);\n"
	if got != want {
		t.Errorf("stripLineComments = %q, want %q", got, want)
	}
}
