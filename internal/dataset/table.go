package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/Lllllllleong/allergenflow/internal/models"
	"github.com/jszwec/csvutil"
)

// Table is a dataset file loaded for mapping.
type Table struct {
	Columns   []string // normalized header, in file order
	RawColumn string   // column the raw allergen text is read from
	Rows      []models.FoodRow
}

// ReadTable decodes a delimited dataset. The raw allergen text is read from inputColumn,
// or from fallbackColumn when the file has no inputColumn.
func ReadTable(r io.Reader, inputColumn, fallbackColumn string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dataset is empty: %w", err)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = normalizeHeader(header[i])
	}

	t := &Table{Columns: header}
	switch {
	case slices.Contains(header, inputColumn):
		t.RawColumn = inputColumn
	case fallbackColumn != "" && slices.Contains(header, fallbackColumn):
		t.RawColumn = fallbackColumn
	default:
		return nil, fmt.Errorf("%w: want %q or %q, have %v", ErrMissingAllergenColumn, inputColumn, fallbackColumn, header)
	}
	if field(&models.FoodRow{}, t.RawColumn) == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, t.RawColumn)
	}

	dec, err := csvutil.NewDecoder(cr, header...)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	for {
		var row models.FoodRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode row %d: %w", len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// RawAllergens returns the raw allergen text of row i.
func (t *Table) RawAllergens(i int) string {
	return *field(&t.Rows[i], t.RawColumn)
}

// OutputColumns returns the canonical columns present in the table, always including
// the mapped column.
func (t *Table) OutputColumns(canonical []string) []string {
	var cols []string
	for _, col := range canonical {
		if col == ColumnAllergensMapped || slices.Contains(t.Columns, col) {
			cols = append(cols, col)
		}
	}
	if !slices.Contains(cols, ColumnAllergensMapped) {
		cols = append(cols, ColumnAllergensMapped)
	}
	return cols
}

// WriteTable writes the table using the canonical column subset.
func WriteTable(w io.Writer, t *Table, canonical []string) error {
	cols := t.OutputColumns(canonical)
	for _, col := range cols {
		if field(&models.FoodRow{}, col) == nil {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = Delimiter

	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(cols))
	for i := range t.Rows {
		for j, col := range cols {
			record[j] = *field(&t.Rows[i], col)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	return nil
}
