package allergen

import (
	"reflect"
	"testing"
)

var testKeywords = []string{
	"milk", "lactose", "cream", "whey", "egg", "peanut", "nut", "almond", "cashew",
	"wheat", "gluten", "soy", "soya", "fish", "shellfish", "shrimp", "sesame",
}

func TestExtractor_Extract(t *testing.T) {
	e := NewExtractor(testKeywords)

	tests := []struct {
		name    string
		tags    []string
		sources []string
		want    string
	}{
		{"english tags only", []string{"en:milk", "fr:lait", "en:soybeans"}, nil, "milk, soybeans"},
		{"tag dashes become spaces", []string{"en:sulphur-dioxide-and-sulphites"}, nil, "sulphur dioxide and sulphites"},
		{"duplicate tags", []string{"en:gluten", "en:gluten"}, nil, "gluten"},
		{"tags win over text", []string{"en:eggs"}, []string{"contains milk"}, "eggs"},
		{"non-english tags fall back to text", []string{"de:milch"}, []string{"Milk, Whey"}, "milk, whey"},
		{"second text source scanned", nil, []string{"", "may contain almond"}, "almond"},
		{"nothing found", nil, []string{"", ""}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Extract(tt.tags, tt.sources...); got != tt.want {
				t.Errorf("Extract = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractor_MatchesTarget(t *testing.T) {
	e := NewExtractor(testKeywords)

	tests := []struct {
		input string
		want  bool
	}{
		{"milk, soybeans", true},
		{"nuts", true},
		{"mustard, celery", false},
		{"", false},
		{"EMPTY", false},
	}

	for _, tt := range tests {
		if got := e.MatchesTarget(tt.input); got != tt.want {
			t.Errorf("MatchesTarget(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"tree nut", "tree nut"},
		{"Tree Nuts, Milk", "milk, tree nut"},
		{"peanuts", "peanut"},
		{"shellfish", "shellfish"},
		{"fish, shellfish", "fish, shellfish"},
		{"eggs and wheat", "egg, wheat"},
		{"tree-nut", "tree nut"},
		{"mustard", ""},
		{"", ""},
		{"sesame, soy, milk", "milk, soy, sesame"},
		{"soya", "soy"},
		{"soybean", "soy"},
		{"Soybeans, wheat", "wheat, soy"},
	}

	for _, tt := range tests {
		if got := Canonicalize(tt.input); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategories(t *testing.T) {
	got := Categories("almond -> tree nut, peanut")
	want := []Category{Peanut, TreeNut}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Categories = %v, want %v", got, want)
	}

	if Categories("none") != nil {
		t.Error("expected nil for text without categories")
	}
}

func TestStripArtifacts(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`['milk', 'egg']`, "milk, egg"},
		{`["tree nut"]`, "tree nut"},
		{"  soy  ", "soy"},
		{"[]", ""},
	}

	for _, tt := range tests {
		if got := StripArtifacts(tt.input); got != tt.want {
			t.Errorf("StripArtifacts(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	for _, in := range []string{"", "  ", "EMPTY", "empty", " Empty "} {
		if !IsEmpty(in) {
			t.Errorf("IsEmpty(%q) = false, want true", in)
		}
	}

	if IsEmpty("milk") {
		t.Error(`IsEmpty("milk") = true, want false`)
	}
}
