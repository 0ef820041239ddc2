package collector

import (
	"errors"
	"strings"

	"github.com/Lllllllleong/allergenflow/internal/foodapi"
	"github.com/Lllllllleong/allergenflow/internal/models"
	"github.com/Lllllllleong/allergenflow/internal/textclean"
)

// Rejection reasons returned by Validate.
var (
	ErrMissingField       = errors.New("missing code, name or ingredients")
	ErrTooShort           = errors.New("name or ingredients too short after cleaning")
	ErrNotEnglish         = errors.New("text does not look like English")
	ErrPoorIngredientList = errors.New("ingredient list failed quality checks")
)

// Validate cleans an upstream product into a record, or returns the reason it was rejected.
// The returned record has no ID; ids are assigned when the dataset is written.
func (c *Collector) Validate(p foodapi.Product) (models.ProductRecord, error) {
	code := strings.TrimSpace(p.Code)
	name := p.Name()
	ingredients := p.Ingredients()

	if code == "" || strings.TrimSpace(name) == "" || strings.TrimSpace(ingredients) == "" {
		return models.ProductRecord{}, ErrMissingField
	}

	cleanName := textclean.Normalize(name)
	cleanIngredients := textclean.Normalize(ingredients)

	if !c.quality.IsValidName(cleanName) || !c.quality.HasMinimumIngredients(cleanIngredients) {
		return models.ProductRecord{}, ErrTooShort
	}

	if !textclean.IsEnglish(cleanName) || !textclean.IsEnglish(cleanIngredients) {
		return models.ProductRecord{}, ErrNotEnglish
	}

	if !c.quality.IsValidIngredients(cleanIngredients) {
		return models.ProductRecord{}, ErrPoorIngredientList
	}

	allergens := textclean.Normalize(c.extractor.Extract(p.AllergensTags, p.AllergensFromIngredients, p.Allergens))

	return models.ProductRecord{
		Code:        code,
		Name:        cleanName,
		Ingredients: cleanIngredients,
		Allergens:   allergens,
		Link:        c.cfg.ProductURLPrefix + code,
	}, nil
}

// satisfies applies the allergen-presence predicate to a validated record.
func (c *Collector) satisfies(req Requirement, rec models.ProductRecord) bool {
	if req == RequireAllergens {
		return rec.HasAllergens() && c.extractor.MatchesTarget(rec.Allergens)
	}
	return !rec.HasAllergens()
}
