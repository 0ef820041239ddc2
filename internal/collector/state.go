package collector

import "github.com/Lllllllleong/allergenflow/internal/models"

// Requirement is the allergen-presence predicate a batch must satisfy.
type Requirement int

const (
	// RequireNoAllergens accepts only products with no extracted allergens.
	RequireNoAllergens Requirement = iota
	// RequireAllergens accepts only products whose allergens mention a target keyword.
	RequireAllergens
)

func (r Requirement) String() string {
	if r == RequireAllergens {
		return "WITH ALLERGENS"
	}
	return "NO ALLERGENS"
}

// State is the mutable state of one collection run: the set of upstream codes already
// accepted and the two accumulating record blocks. It is owned by a single run.
type State struct {
	seen     map[string]struct{}
	Safe     []models.ProductRecord
	Allergen []models.ProductRecord
}

// NewState returns an empty run state.
func NewState() *State {
	return &State{seen: make(map[string]struct{})}
}

// Seen reports whether a product code was already accepted in this run.
func (s *State) Seen(code string) bool {
	_, ok := s.seen[code]
	return ok
}

func (s *State) accept(req Requirement, rec models.ProductRecord) int {
	s.seen[rec.Code] = struct{}{}
	if req == RequireAllergens {
		s.Allergen = append(s.Allergen, rec)
		return len(s.Allergen)
	}
	s.Safe = append(s.Safe, rec)
	return len(s.Safe)
}

func (s *State) count(req Requirement) int {
	if req == RequireAllergens {
		return len(s.Allergen)
	}
	return len(s.Safe)
}
