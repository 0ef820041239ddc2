// Package dataset reads and writes the semicolon-delimited dataset files.
package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Lllllllleong/allergenflow/internal/config"
	"github.com/Lllllllleong/allergenflow/internal/models"
)

// Column names understood by the dataset files.
const (
	ColumnID              = config.ColumnID
	ColumnCode            = config.ColumnCode
	ColumnName            = config.ColumnName
	ColumnLink            = config.ColumnLink
	ColumnIngredients     = config.ColumnIngredients
	ColumnAllergensRaw    = config.ColumnAllergensRaw
	ColumnAllergens       = config.ColumnAllergens
	ColumnAllergensMapped = config.ColumnAllergensMapped
)

// Delimiter separates fields in every dataset file.
const Delimiter = ';'

var (
	ErrUnknownColumn         = config.ErrUnknownColumn
	ErrMissingAllergenColumn = errors.New("no allergen column in table")
)

// Layout is the column order and empty-allergen marker of a collector file.
type Layout struct {
	Columns     []string
	EmptyMarker string
}

// LayoutFromConfig builds a Layout from the collector output settings.
func LayoutFromConfig(cfg config.OutputConfig) Layout {
	return Layout{Columns: cfg.Columns, EmptyMarker: cfg.EmptyMarker}
}

// Validate checks that every column can be produced from a ProductRecord.
func (l Layout) Validate() error {
	for _, col := range l.Columns {
		switch col {
		case ColumnID, ColumnCode, ColumnName, ColumnLink, ColumnIngredients, ColumnAllergensRaw, ColumnAllergens:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}
	return nil
}

func (l Layout) record(rec models.ProductRecord) []string {
	out := make([]string, len(l.Columns))
	for i, col := range l.Columns {
		switch col {
		case ColumnID:
			out[i] = strconv.Itoa(rec.ID)
		case ColumnCode:
			out[i] = rec.Code
		case ColumnName:
			out[i] = rec.Name
		case ColumnLink:
			out[i] = rec.Link
		case ColumnIngredients:
			out[i] = rec.Ingredients
		case ColumnAllergensRaw, ColumnAllergens:
			out[i] = rec.Allergens
			if out[i] == "" {
				out[i] = l.EmptyMarker
			}
		}
	}
	return out
}

// normalizeHeader lower-cases and trims a header cell, dropping a UTF-8 byte order mark.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

// field returns a pointer to the FoodRow field backing a column.
func field(row *models.FoodRow, col string) *string {
	switch col {
	case ColumnID:
		return &row.ID
	case ColumnName:
		return &row.Name
	case ColumnLink:
		return &row.Link
	case ColumnIngredients:
		return &row.Ingredients
	case ColumnAllergensRaw:
		return &row.AllergensRaw
	case ColumnAllergens:
		return &row.Allergens
	case ColumnAllergensMapped:
		return &row.AllergensMapped
	}
	return nil
}
