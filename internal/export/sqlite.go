// Package export writes mapped datasets into a SQLite database.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Lllllllleong/allergenflow/internal/allergen"
	"github.com/Lllllllleong/allergenflow/internal/dataset"
	_ "modernc.org/sqlite"
)

// TableName is the table created by WriteSQLite.
const TableName = "food_items"

const createTable = `CREATE TABLE "food_items" (
	"id" INTEGER PRIMARY KEY,
	"name" TEXT,
	"link" TEXT,
	"ingredients" TEXT,
	"allergens_raw" TEXT,
	"allergens_mapped" TEXT,
	"has_allergens" INTEGER NOT NULL
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_food_items_mapped ON food_items(allergens_mapped)`,
	`CREATE INDEX IF NOT EXISTS idx_food_items_has_allergens ON food_items(has_allergens)`,
}

// WriteSQLite replaces the database at path with one food_items table holding every row
// of the mapped table. Empty allergen text is stored as NULL.
func WriteSQLite(ctx context.Context, path string, table *dataset.Table) (int, error) {
	_ = os.Remove(path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return 0, fmt.Errorf("failed to create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO "food_items" ("id","name","link","ingredients","allergens_raw","allergens_mapped","has_allergens") VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		id, err := strconv.Atoi(strings.TrimSpace(row.ID))
		if err != nil {
			return 0, fmt.Errorf("row %d has a non-numeric id %q: %w", i+1, row.ID, err)
		}

		raw := table.RawAllergens(i)
		hasAllergens := 0
		if !allergen.IsEmpty(raw) {
			hasAllergens = 1
		}

		if _, err := stmt.ExecContext(ctx, id, nullable(row.Name), nullable(row.Link), nullable(row.Ingredients), nullableAllergen(raw), nullableAllergen(row.AllergensMapped), hasAllergens); err != nil {
			return 0, fmt.Errorf("failed to insert row %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return 0, fmt.Errorf("failed to create index: %w", err)
		}
	}

	return len(table.Rows), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableAllergen(s string) any {
	if allergen.IsEmpty(s) {
		return nil
	}
	return strings.TrimSpace(s)
}
