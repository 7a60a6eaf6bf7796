package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations failed validation: %v", err)
	}
}

func TestInventoryMigrationEnforcesLedgerInvariants(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_inventory.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one inventory migration, got %d", len(matches))
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS inventory (",
		"sku_id uuid PRIMARY KEY",
		"CHECK (total_quantity >= 0)",
		"CHECK (allocated_quantity >= 0)",
		"CHECK (available_quantity = total_quantity - allocated_quantity)",
		"CHECK (change_quantity = after_quantity - before_quantity)",
		"BEFORE UPDATE OR DELETE ON inventory_logs",
		"DROP TABLE IF EXISTS inventory_logs",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	path, err := createAt(dir, "Add SKU Barcode!", at)
	if err != nil {
		t.Fatalf("createAt: %v", err)
	}
	if filepath.Base(path) != "20260302100000_add_sku_barcode.sql" {
		t.Fatalf("unexpected filename %q", filepath.Base(path))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}

	if _, err := createAt(dir, "add sku barcode", at); err == nil {
		t.Fatalf("expected duplicate file to be rejected")
	}
	if _, err := createAt(dir, "!!!", at); err == nil {
		t.Fatalf("expected empty sanitized name to be rejected")
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"bad_name.sql":                    "-- +goose Up\n-- +goose Down\n",
		"20260101000000_missing_down.sql": "-- +goose Up\nSELECT 1;\n",
		"20260101000000_unbalanced.sql":   "-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := ValidateDir(dir); err == nil {
				t.Fatalf("expected %s to fail validation", name)
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	if _, err := parseVersion(""); err == nil {
		t.Fatalf("expected empty version to fail")
	}
	if _, err := parseVersion("2026"); err == nil {
		t.Fatalf("expected short version to fail")
	}
	v, err := parseVersion("20260301090200")
	if err != nil || v != 20260301090200 {
		t.Fatalf("unexpected parse result %d %v", v, err)
	}
}
