package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"testing"
	"unicode"

	"github.com/Lllllllleong/allergenflow/internal/config"
	"github.com/Lllllllleong/allergenflow/internal/foodapi"
	"golang.org/x/time/rate"
)

type fakeSearcher struct {
	pages map[string][]foodapi.Product
	fail  map[string]bool
	calls []string
}

func (f *fakeSearcher) Search(_ context.Context, term string) ([]foodapi.Product, error) {
	f.calls = append(f.calls, term)
	if f.fail[term] {
		return nil, errors.New("upstream unavailable")
	}
	return f.pages[term], nil
}

func testConfig(t *testing.T) config.CollectorConfig {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default() error = %v", err)
	}
	return cfg.Collector
}

func newTestCollector(t *testing.T, s Searcher, cfg config.CollectorConfig) *Collector {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(s, cfg, logger,
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithLimiter(rate.NewLimiter(rate.Inf, 1)),
	)
}

func safeProduct(code string) foodapi.Product {
	return foodapi.Product{
		Code:            code,
		ProductName:     "Plain Rice Crackers " + code,
		IngredientsText: "Brown rice, sunflower oil, sea salt, rosemary extract",
	}
}

func milkProduct(code string) foodapi.Product {
	return foodapi.Product{
		Code:            code,
		ProductName:     "Chocolate Milk Drink " + code,
		IngredientsText: "Whole milk, sugar, cocoa powder, stabiliser, natural flavouring",
		AllergensTags:   []string{"en:milk"},
	}
}

func TestValidate(t *testing.T) {
	c := newTestCollector(t, &fakeSearcher{}, testConfig(t))

	tests := []struct {
		name    string
		product foodapi.Product
		wantErr error
	}{
		{"valid safe", safeProduct("1"), nil},
		{"missing code", foodapi.Product{ProductName: "Rice", IngredientsText: "rice, water, salt, oil"}, ErrMissingField},
		{"missing ingredients", foodapi.Product{Code: "2", ProductName: "Rice Cakes"}, ErrMissingField},
		{"name too short", foodapi.Product{Code: "3", ProductName: "Ab", IngredientsText: "Brown rice, sunflower oil, sea salt"}, ErrTooShort},
		{"ingredients too short", foodapi.Product{Code: "4", ProductName: "Rice Cakes", IngredientsText: "rice"}, ErrTooShort},
		{"accented french", foodapi.Product{Code: "5", ProductName: "Crème brûlée", IngredientsText: "Lait entier, sucre, œufs, crème fraîche, vanille"}, ErrNotEnglish},
		{"foreign stop words", foodapi.Product{Code: "6", ProductName: "Biscuits", IngredientsText: "farine de ble, sucre, huile de palme, sel et levure"}, ErrPoorIngredientList},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := c.Validate(tc.product)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if rec.Code != tc.product.Code {
				t.Errorf("Code = %q, want %q", rec.Code, tc.product.Code)
			}
			if !strings.HasSuffix(rec.Link, "/product/"+tc.product.Code) {
				t.Errorf("Link = %q, want product URL for %q", rec.Link, tc.product.Code)
			}
		})
	}
}

func TestValidate_PrefersEnglishFieldsAndCleans(t *testing.T) {
	c := newTestCollector(t, &fakeSearcher{}, testConfig(t))

	rec, err := c.Validate(foodapi.Product{
		Code:              "42",
		ProductName:       "Galettes de riz",
		ProductNameEN:     "Rice  Cakes\twith Sea Salt",
		IngredientsText:   "riz complet, sel",
		IngredientsTextEN: "Wholegrain rice; sea salt;\nsunflower oil",
		Allergens:         "en:sesame-seeds",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if rec.Name != "Rice Cakes with Sea Salt" {
		t.Errorf("Name = %q", rec.Name)
	}
	if strings.Contains(rec.Ingredients, ";") {
		t.Errorf("Ingredients still contains a semicolon: %q", rec.Ingredients)
	}
	if rec.Allergens != "sesame" {
		t.Errorf("Allergens = %q, want %q", rec.Allergens, "sesame")
	}
}

func TestFetchBatch_DeduplicatesAcrossTerms(t *testing.T) {
	s := &fakeSearcher{pages: map[string][]foodapi.Product{
		"rice":     {safeProduct("1"), safeProduct("2")},
		"crackers": {safeProduct("2"), safeProduct("3")},
	}}
	c := newTestCollector(t, s, testConfig(t))
	state := NewState()

	added, err := c.FetchBatch(context.Background(), state, []string{"rice", "crackers"}, RequireNoAllergens, 10, 0)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if added != 3 || len(state.Safe) != 3 {
		t.Fatalf("added = %d, len(Safe) = %d, want 3", added, len(state.Safe))
	}

	codes := map[string]bool{}
	for _, r := range state.Safe {
		if codes[r.Code] {
			t.Errorf("duplicate code %q", r.Code)
		}
		codes[r.Code] = true
	}
}

func TestFetchBatch_AppliesRequirement(t *testing.T) {
	page := []foodapi.Product{safeProduct("1"), milkProduct("2"), safeProduct("3"), milkProduct("4")}
	s := &fakeSearcher{pages: map[string][]foodapi.Product{"mixed": page}}
	c := newTestCollector(t, s, testConfig(t))

	state := NewState()
	if _, err := c.FetchBatch(context.Background(), state, []string{"mixed"}, RequireAllergens, 10, 0); err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if _, err := c.FetchBatch(context.Background(), state, []string{"mixed"}, RequireNoAllergens, 10, 0); err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}

	if len(state.Allergen) != 2 || len(state.Safe) != 2 {
		t.Fatalf("got %d allergen and %d safe records, want 2 and 2", len(state.Allergen), len(state.Safe))
	}
	for _, r := range state.Allergen {
		if r.Allergens != "milk" {
			t.Errorf("allergen record %q has Allergens = %q", r.Code, r.Allergens)
		}
	}
	for _, r := range state.Safe {
		if r.HasAllergens() {
			t.Errorf("safe record %q has Allergens = %q", r.Code, r.Allergens)
		}
	}
}

func TestFetchBatch_RejectsNonTargetAllergens(t *testing.T) {
	p := safeProduct("1")
	p.AllergensTags = []string{"en:sulphur-dioxide-and-sulphites"}
	s := &fakeSearcher{pages: map[string][]foodapi.Product{"wine": {p}}}
	c := newTestCollector(t, s, testConfig(t))
	state := NewState()

	if _, err := c.FetchBatch(context.Background(), state, []string{"wine"}, RequireAllergens, 5, 0); err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if _, err := c.FetchBatch(context.Background(), state, []string{"wine"}, RequireNoAllergens, 5, 0); err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(state.Allergen) != 0 || len(state.Safe) != 0 {
		t.Errorf("got %d allergen and %d safe records, want none", len(state.Allergen), len(state.Safe))
	}
}

func TestFetchBatch_PerTermCapAndTarget(t *testing.T) {
	var page []foodapi.Product
	for i := range 10 {
		page = append(page, milkProduct(fmt.Sprintf("a%d", i)))
	}
	var page2 []foodapi.Product
	for i := range 10 {
		page2 = append(page2, milkProduct(fmt.Sprintf("b%d", i)))
	}
	s := &fakeSearcher{pages: map[string][]foodapi.Product{"milk": page, "cheese": page2}}
	c := newTestCollector(t, s, testConfig(t))

	state := NewState()
	if _, err := c.FetchBatch(context.Background(), state, []string{"milk", "cheese"}, RequireAllergens, 100, 3); err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(state.Allergen) != 6 {
		t.Errorf("len(Allergen) = %d, want 6 with a cap of 3 per term", len(state.Allergen))
	}

	state = NewState()
	if _, err := c.FetchBatch(context.Background(), state, []string{"milk", "cheese"}, RequireAllergens, 4, 0); err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(state.Allergen) != 4 {
		t.Errorf("len(Allergen) = %d, want target 4", len(state.Allergen))
	}
}

func TestFetchBatch_SkipsFailedTerms(t *testing.T) {
	s := &fakeSearcher{
		pages: map[string][]foodapi.Product{"rice": {safeProduct("1")}},
		fail:  map[string]bool{"broken": true},
	}
	c := newTestCollector(t, s, testConfig(t))
	state := NewState()

	added, err := c.FetchBatch(context.Background(), state, []string{"broken", "rice"}, RequireNoAllergens, 5, 0)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
	if len(s.calls) != 2 {
		t.Errorf("searched %d terms, want 2", len(s.calls))
	}
}

func TestFetchBatch_ContextCanceled(t *testing.T) {
	s := &fakeSearcher{pages: map[string][]foodapi.Product{"rice": {safeProduct("1")}}}
	c := newTestCollector(t, s, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchBatch(ctx, NewState(), []string{"rice"}, RequireNoAllergens, 5, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("FetchBatch() error = %v, want context.Canceled", err)
	}
}

func TestCollect_UsesFallbackTerms(t *testing.T) {
	cfg := testConfig(t)
	cfg.Allergen = config.BlockConfig{Target: 3, PerTermCap: 0, Terms: []string{"milk"}, FallbackTerms: []string{"cheese"}}
	cfg.Safe = config.BlockConfig{Target: 2, Terms: []string{"rice"}, FallbackTerms: []string{"oats"}}

	s := &fakeSearcher{pages: map[string][]foodapi.Product{
		"milk":   {milkProduct("m1")},
		"cheese": {milkProduct("m1"), milkProduct("c1"), milkProduct("c2"), milkProduct("c3")},
		"rice":   {safeProduct("r1"), safeProduct("r2")},
		"oats":   {safeProduct("o1")},
	}}
	c := newTestCollector(t, s, cfg)
	state := NewState()

	if err := c.Collect(context.Background(), state); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if len(state.Allergen) != 3 {
		t.Errorf("len(Allergen) = %d, want 3", len(state.Allergen))
	}
	if len(state.Safe) != 2 {
		t.Errorf("len(Safe) = %d, want 2", len(state.Safe))
	}
	for _, term := range s.calls {
		if term == "oats" {
			t.Error("safe fallback terms searched although the primary terms met the target")
		}
	}

	summary := Summarize(state)
	if summary.SafeCount != 2 || summary.AllergenCount != 3 {
		t.Errorf("Summarize() = %+v", summary)
	}
	if summary.AvgSafeIngredientChars <= 0 {
		t.Errorf("AvgSafeIngredientChars = %v, want > 0", summary.AvgSafeIngredientChars)
	}
}

func TestCollect_RecordsArePrintableASCII(t *testing.T) {
	cfg := testConfig(t)
	cfg.Allergen = config.BlockConfig{Target: 1, Terms: []string{"milk"}}
	cfg.Safe = config.BlockConfig{Target: 1, Terms: []string{"rice"}}

	milk := milkProduct("m1")
	milk.IngredientsText = "Whole milk “organic”, sugar – cocoa, salt;\temulsifier"
	s := &fakeSearcher{pages: map[string][]foodapi.Product{
		"milk": {milk},
		"rice": {safeProduct("r1")},
	}}
	c := newTestCollector(t, s, cfg)
	state := NewState()

	if err := c.Collect(context.Background(), state); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	all := append(append([]interface{}{}, state.Safe[0]), state.Allergen[0])
	for _, r := range all {
		s := fmt.Sprintf("%v", r)
		for _, ch := range s {
			if ch > unicode.MaxASCII || ch == ';' || ch == '\t' || ch == '\n' {
				t.Errorf("record contains disallowed rune %q: %s", ch, s)
			}
		}
	}
}
