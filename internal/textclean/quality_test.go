package textclean

import (
	"testing"

	"github.com/Lllllllleong/allergenflow/internal/config"
)

func newTestChecker(t *testing.T) *QualityChecker {
	t.Helper()

	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default failed: %v", err)
	}

	return NewQualityChecker(cfg.Collector.Quality)
}

func TestQualityChecker_IsValidIngredients(t *testing.T) {
	q := newTestChecker(t)

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"typical list", "Wheat flour, sugar, palm oil, cocoa powder, salt", true},
		{"too short", "sugar, salt", false},
		{"too few substantive words", "a b c d e f g h i j k l m n o p", false},
		{"no indicator and short", "Organic basmati rice grains", false},
		{"no indicator but long", "Organic long grain basmati rice grown in the foothills of the himalayas", true},
		{"foreign stop words", "farine de blé, sucre, huile de palme, sel", false},
		{"mineral analysis", "Calcium 55mg Magnesium 19mg Sodium 24mg Potassium 1mg Nitrates 3mg", false},
		{"measurements with food words", "Water, sugar 10 g, salt 2 g, lemon juice 5 ml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := q.IsValidIngredients(tt.input); got != tt.want {
				t.Errorf("IsValidIngredients(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestQualityChecker_NameAndMinimumIngredients(t *testing.T) {
	q := newTestChecker(t)

	if q.IsValidName("Ab") {
		t.Error("expected two-character name to be rejected")
	}

	if !q.IsValidName("Tea") {
		t.Error("expected three-character name to be accepted")
	}

	if q.HasMinimumIngredients("salt") {
		t.Error("expected short ingredients to be rejected")
	}

	if !q.HasMinimumIngredients("salt, pepper") {
		t.Error("expected ten-character ingredients to be accepted")
	}
}
