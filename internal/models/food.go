package models

// ProductRecord is one validated product produced by the collector.
// ID is assigned at write time; Code is the upstream product code used for de-duplication.
type ProductRecord struct {
	ID          int
	Code        string
	Name        string
	Ingredients string
	Allergens   string // comma-joined, empty when the product declares none
	Link        string
}

// HasAllergens reports whether the record carries any extracted allergen text.
func (p ProductRecord) HasAllergens() bool {
	return p.Allergens != ""
}

// FoodRow is one row of a dataset table as read back from disk.
// Columns absent from the file are left empty.
type FoodRow struct {
	ID              string `csv:"id"`
	Name            string `csv:"name"`
	Link            string `csv:"link"`
	Ingredients     string `csv:"ingredients"`
	AllergensRaw    string `csv:"allergensraw"`
	Allergens       string `csv:"allergens"`
	AllergensMapped string `csv:"allergensmapped"`
}
