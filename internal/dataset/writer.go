package dataset

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Lllllllleong/allergenflow/internal/models"
)

// WriteBlocks writes the header and both record blocks. Safe records get ids
// 1..len(safe) and allergen records continue the sequence, so consumers can locate
// allergen-bearing records by id range. It returns the records with ids assigned,
// safe block first.
func WriteBlocks(w io.Writer, layout Layout, safe, allergen []models.ProductRecord) ([]models.ProductRecord, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	cw := csv.NewWriter(w)
	cw.Comma = Delimiter

	if err := cw.Write(layout.Columns); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	written := make([]models.ProductRecord, 0, len(safe)+len(allergen))
	for _, block := range [][]models.ProductRecord{safe, allergen} {
		for _, rec := range block {
			rec.ID = len(written) + 1
			if err := cw.Write(layout.record(rec)); err != nil {
				return nil, fmt.Errorf("failed to write record %d: %w", rec.ID, err)
			}
			written = append(written, rec)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush dataset: %w", err)
	}

	return written, nil
}
