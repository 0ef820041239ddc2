package collector

import "github.com/Lllllllleong/allergenflow/internal/models"

// Summary reports what a collection run produced.
type Summary struct {
	SafeCount                  int
	AllergenCount              int
	AvgSafeIngredientChars     float64
	AvgAllergenIngredientChars float64
}

// Summarize computes run statistics from state.
func Summarize(state *State) Summary {
	return Summary{
		SafeCount:                  len(state.Safe),
		AllergenCount:              len(state.Allergen),
		AvgSafeIngredientChars:     averageIngredientLength(state.Safe),
		AvgAllergenIngredientChars: averageIngredientLength(state.Allergen),
	}
}

func averageIngredientLength(records []models.ProductRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	total := 0
	for _, r := range records {
		total += len(r.Ingredients)
	}
	return float64(total) / float64(len(records))
}
