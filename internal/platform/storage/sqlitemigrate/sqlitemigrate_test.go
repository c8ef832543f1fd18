package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

const (
	matchesUp   = "-- +migrate Up\nCREATE TABLE matches(match_id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE matches;\n"
	commandsUp  = "-- +migrate Up\nCREATE TABLE commands(seq INTEGER PRIMARY KEY, match_id TEXT NOT NULL);\n"
	brokenUp    = "-- +migrate Up\nCREAT TABLE snapshots(id INT);\n"
	snapshotsUp = "-- +migrate Up\nCREATE TABLE snapshots(id INTEGER PRIMARY KEY);\n"
)

func sqlFile(body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(body)}
}

func TestApplyMigrations(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		root    string
		names   []string
		tables  []string
		missing []string
	}{
		{
			name:   "applies in lexical order",
			files:  fstest.MapFS{"002_commands.sql": sqlFile(commandsUp), "001_matches.sql": sqlFile(matchesUp)},
			names:  []string{"001_matches.sql", "002_commands.sql"},
			tables: []string{"matches", "commands"},
		},
		{
			name: "root prefixes recorded names",
			files: fstest.MapFS{
				"journal/001_matches.sql": sqlFile(matchesUp),
				"other/001_commands.sql":  sqlFile(commandsUp),
			},
			root:    "journal",
			names:   []string{"journal/001_matches.sql"},
			tables:  []string{"matches"},
			missing: []string{"commands"},
		},
		{
			name:  "blank up section is skipped",
			files: fstest.MapFS{"001_empty.sql": sqlFile("-- +migrate Up\n\n-- +migrate Down\nDROP TABLE matches;\n")},
			names: nil,
		},
		{
			name: "existing table counts as applied",
			files: fstest.MapFS{
				"001_matches.sql": sqlFile(matchesUp),
				"002_again.sql":   sqlFile(matchesUp),
			},
			names:  []string{"001_matches.sql", "002_again.sql"},
			tables: []string{"matches"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := openMemoryDB(t)
			if err := ApplyMigrations(context.Background(), db, tc.files, tc.root); err != nil {
				t.Fatalf("ApplyMigrations: %v", err)
			}
			got := appliedNames(t, db)
			if strings.Join(got, ",") != strings.Join(tc.names, ",") {
				t.Fatalf("applied = %v, want %v", got, tc.names)
			}
			for _, table := range tc.tables {
				if !hasTable(t, db, table) {
					t.Fatalf("table %s missing", table)
				}
			}
			for _, table := range tc.missing {
				if hasTable(t, db, table) {
					t.Fatalf("table %s should not exist", table)
				}
			}
		})
	}
}

func TestApplyMigrationsRunsEachFileOnce(t *testing.T) {
	db := openMemoryDB(t)
	files := fstest.MapFS{"001_matches.sql": sqlFile(matchesUp)}
	for i := 0; i < 3; i++ {
		if err := ApplyMigrations(context.Background(), db, files, ""); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if got := appliedNames(t, db); len(got) != 1 {
		t.Fatalf("applied = %v, want one entry", got)
	}

	// A later file is picked up without touching the recorded one.
	files["002_commands.sql"] = sqlFile(commandsUp)
	if err := ApplyMigrations(context.Background(), db, files, ""); err != nil {
		t.Fatalf("apply new file: %v", err)
	}
	if got := appliedNames(t, db); len(got) != 2 {
		t.Fatalf("applied = %v, want two entries", got)
	}
}

func TestApplyMigrationsFailureLeavesNoRecord(t *testing.T) {
	db := openMemoryDB(t)
	files := fstest.MapFS{
		"001_matches.sql":   sqlFile(matchesUp),
		"002_snapshots.sql": sqlFile(brokenUp),
	}
	err := ApplyMigrations(context.Background(), db, files, "")
	if err == nil || !strings.Contains(err.Error(), "exec migration 002_snapshots.sql") {
		t.Fatalf("err = %v, want exec failure for 002", err)
	}
	if got := appliedNames(t, db); strings.Join(got, ",") != "001_matches.sql" {
		t.Fatalf("applied = %v, want only 001", got)
	}

	files["002_snapshots.sql"] = sqlFile(snapshotsUp)
	if err := ApplyMigrations(context.Background(), db, files, ""); err != nil {
		t.Fatalf("apply repaired file: %v", err)
	}
	if !hasTable(t, db, "snapshots") {
		t.Fatal("repaired migration did not run")
	}
}

func TestApplyMigrationsRejectsBadInput(t *testing.T) {
	if err := ApplyMigrations(context.Background(), nil, fstest.MapFS{}, ""); err == nil {
		t.Fatal("expected error for nil db")
	}
	db := openMemoryDB(t)
	if err := ApplyMigrations(context.Background(), db, fstest.MapFS{}, "absent"); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestDiscover(t *testing.T) {
	files := fstest.MapFS{
		"journal/002_checkpoints.sql": sqlFile("-- +migrate Up\nCREATE TABLE checkpoints(id INT);\n-- +migrate Down\nDROP TABLE checkpoints;"),
		"journal/001_journal.sql":     sqlFile("CREATE TABLE matches(id INT);"),
		"journal/README.md":           sqlFile("not a migration"),
		"journal/archive/000_old.sql": sqlFile("CREATE TABLE old(id INT);"),
	}
	found, err := Discover(files, " journal ")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("found %d migrations, want 2", len(found))
	}
	if found[0].Name != "journal/001_journal.sql" || found[1].Name != "journal/002_checkpoints.sql" {
		t.Fatalf("names = %q, %q", found[0].Name, found[1].Name)
	}
	if !strings.Contains(found[0].Up, "CREATE TABLE matches") {
		t.Fatalf("file without markers should be used whole, got %q", found[0].Up)
	}
	if strings.Contains(found[1].Up, "DROP TABLE") {
		t.Fatalf("down section leaked into up: %q", found[1].Up)
	}
}

func TestExtractUpMigration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "SELECT 1;", want: "SELECT 1;"},
		{in: "-- header\n-- +migrate Up\nSELECT 1;\n", want: "\nSELECT 1;\n"},
		{in: "-- +migrate Up\nSELECT 1;\n-- +migrate Down\nSELECT 2;\n", want: "\nSELECT 1;\n"},
		{in: "-- +migrate Up", want: ""},
	}
	for _, tc := range tests {
		if got := ExtractUpMigration(tc.in); got != tc.want {
			t.Fatalf("ExtractUpMigration(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: errors.New("table matches already exists"), want: true},
		{err: errors.New("SQL logic error: Duplicate column name: seed"), want: true},
		{err: errors.New("no such table: matches"), want: false},
	}
	for _, tc := range tests {
		if got := IsAlreadyExistsError(tc.err); got != tc.want {
			t.Fatalf("IsAlreadyExistsError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func appliedNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM " + migrationTable + " ORDER BY name")
	if err != nil {
		t.Fatalf("query applied: %v", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan applied: %v", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate applied: %v", err)
	}
	return names
}

func hasTable(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count); err != nil {
		t.Fatalf("lookup table %s: %v", name, err)
	}
	return count > 0
}
