package export

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lllllllleong/allergenflow/internal/dataset"
)

func readTable(t *testing.T, in string) *dataset.Table {
	t.Helper()
	table, err := dataset.ReadTable(strings.NewReader(in), "allergensraw", "allergens")
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	return table
}

func TestWriteSQLite(t *testing.T) {
	table := readTable(t, "id;name;link;ingredients;allergensraw;allergensmapped\n"+
		"1;Rice;l1;rice, salt;EMPTY;\n"+
		"2;Trail Mix;l2;cashews, raisins;cashew;tree nut\n")

	path := filepath.Join(t.TempDir(), "food.sqlite")
	n, err := WriteSQLite(context.Background(), path, table)
	if err != nil {
		t.Fatalf("WriteSQLite() error = %v", err)
	}
	if n != 2 {
		t.Errorf("WriteSQLite() = %d, want 2", n)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM food_items WHERE has_allergens = 1`).Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count != 1 {
		t.Errorf("has_allergens count = %d, want 1", count)
	}

	var name string
	var raw, mapped sql.NullString
	if err := db.QueryRow(`SELECT name, allergens_raw, allergens_mapped FROM food_items WHERE id = 2`).Scan(&name, &raw, &mapped); err != nil {
		t.Fatalf("row query error = %v", err)
	}
	if name != "Trail Mix" || raw.String != "cashew" || mapped.String != "tree nut" {
		t.Errorf("row 2 = %q %v %v", name, raw, mapped)
	}

	if err := db.QueryRow(`SELECT allergens_raw, allergens_mapped FROM food_items WHERE id = 1`).Scan(&raw, &mapped); err != nil {
		t.Fatalf("row query error = %v", err)
	}
	if raw.Valid || mapped.Valid {
		t.Errorf("row 1 allergens = %v %v, want NULL", raw, mapped)
	}
}

func TestWriteSQLite_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "food.sqlite")
	first := readTable(t, "id;allergensraw\n1;milk\n2;egg\n")
	second := readTable(t, "id;allergensraw\n9;soy\n")

	if _, err := WriteSQLite(context.Background(), path, first); err != nil {
		t.Fatalf("first WriteSQLite() error = %v", err)
	}
	if _, err := WriteSQLite(context.Background(), path, second); err != nil {
		t.Fatalf("second WriteSQLite() error = %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM food_items`).Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}
}

func TestWriteSQLite_NonNumericID(t *testing.T) {
	table := readTable(t, "id;allergensraw\nabc;milk\n")
	if _, err := WriteSQLite(context.Background(), filepath.Join(t.TempDir(), "x.sqlite"), table); err == nil {
		t.Error("WriteSQLite() error = nil, want error for non-numeric id")
	}
}
