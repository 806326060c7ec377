package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitSchemaMigrationContainsTables(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE accounts",
		"CREATE UNIQUE INDEX idx_accounts_username ON accounts (username)",
		"CREATE TABLE subscriptions",
		"business_id TEXT NOT NULL UNIQUE",
		"CREATE TABLE farmers",
		"CREATE TABLE milk_records",
		"ON milk_records (business_id, farmer_id, date, session)",
		"CREATE TABLE advances",
		"CREATE TABLE sequences",
		"DROP TABLE accounts",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
