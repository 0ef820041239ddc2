package mapper

// Outcome says how a single classification ended.
type Outcome int

const (
	// OutcomeMapped means the model returned at least one category.
	OutcomeMapped Outcome = iota
	// OutcomeEmpty means the input was empty or the model found no category.
	OutcomeEmpty
	// OutcomeFailed means the call or its response was unusable; Value is "".
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMapped:
		return "mapped"
	case OutcomeEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// Result is the classification of one raw allergen phrase.
type Result struct {
	Value   string
	Outcome Outcome
	Err     error
}

// BatchResult holds one Result per input phrase, in input order.
type BatchResult struct {
	Results []Result
	Err     error // set when the whole batch failed
}

// Values returns the mapped strings in input order.
func (b BatchResult) Values() []string {
	out := make([]string, len(b.Results))
	for i, r := range b.Results {
		out[i] = r.Value
	}
	return out
}

func failedBatch(n int, err error) BatchResult {
	results := make([]Result, n)
	for i := range results {
		results[i] = Result{Outcome: OutcomeFailed, Err: err}
	}
	return BatchResult{Results: results, Err: err}
}

func emptyBatch(n int) BatchResult {
	results := make([]Result, n)
	for i := range results {
		results[i] = Result{Outcome: OutcomeEmpty}
	}
	return BatchResult{Results: results}
}

func mappedResult(value string) Result {
	if value == "" {
		return Result{Outcome: OutcomeEmpty}
	}
	return Result{Value: value, Outcome: OutcomeMapped}
}
