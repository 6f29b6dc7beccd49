package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_goals.sql", true, 1, "create_goals"},
		{"0012_seed_badges.sql", true, 12, "seed_badges"},
		{"001_invalid.sql", false, 0, ""},
		{"0001_test", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"invalid_0001_test.sql", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseFilename(tt.filename)
			if ok != tt.valid {
				t.Fatalf("parseFilename(%q) ok = %v, want %v", tt.filename, ok, tt.valid)
			}
			if version != tt.version || name != tt.name {
				t.Errorf("parseFilename(%q) = %d, %q; want %d, %q", tt.filename, version, name, tt.version, tt.name)
			}
		})
	}
}

func TestReadMigrations(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"0002_second.sql": "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.b` (id INT64);",
		"0001_first.sql":  "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.a` (id INT64);",
		"README.md":       "not a migration",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := readMigrations(dir, "proj", "savings", zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("readMigrations() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("readMigrations() returned %d migrations, want 2", len(got))
	}
	if got[0].Version != 1 || got[1].Version != 2 {
		t.Errorf("versions = %d, %d; want sorted 1, 2", got[0].Version, got[1].Version)
	}
	if !strings.Contains(got[0].SQL, "`proj.savings.a`") {
		t.Errorf("placeholders not replaced: %s", got[0].SQL)
	}

	other, err := readMigrations(dir, "other", "ledger", zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("readMigrations() error = %v", err)
	}
	if other[0].Checksum != got[0].Checksum {
		t.Error("checksum should not depend on project or dataset")
	}
	if got[0].Checksum == got[1].Checksum {
		t.Error("different files should have different checksums")
	}
}

func TestRepositoryMigrations(t *testing.T) {
	dir, err := resolveDir("migrations/bigquery")
	if err != nil {
		t.Fatalf("resolveDir() error = %v", err)
	}

	got, err := readMigrations(dir, "proj", "savings", zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("readMigrations() error = %v", err)
	}

	for i, m := range got {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, want %d", m.Filename, m.Version, i+1)
		}
		if strings.Contains(m.SQL, "{{") {
			t.Errorf("migration %s has unreplaced placeholders", m.Filename)
		}
	}
	for _, table := range []string{"goals", "goal_transactions", "badges", "user_badges"} {
		found := false
		for _, m := range got {
			if strings.Contains(m.SQL, "`proj.savings."+table+"`") {
				found = true
			}
		}
		if !found {
			t.Errorf("no migration creates table %s", table)
		}
	}
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{
		{Version: 1, Name: "a", Checksum: "c1"},
		{Version: 2, Name: "b", Checksum: "c2"},
		{Version: 3, Name: "c", Checksum: "c3"},
	}
	applied := []AppliedMigration{
		{Version: 1, Checksum: "c1"},
		{Version: 2, Checksum: "changed"},
	}

	got := pendingMigrations(all, applied, zerolog.New(io.Discard))
	if len(got) != 1 || got[0].Version != 3 {
		t.Errorf("pendingMigrations() = %+v, want only version 3", got)
	}
}
