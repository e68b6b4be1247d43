// Package optimization provides shared data structures for optimization results.
package optimization

// Target names the quantity an optimization searched for.
const (
	TargetBestMonth      = "bestRefinanceMonth"
	TargetBreakEvenMonth = "breakEvenMonth"
	TargetBreakEvenRate  = "breakEvenRate"
)

// Summary captures the result of a single optimization search. Savings are
// measured against the total payments of the original loan.
type Summary struct {
	Target          string   `json:"target"`
	Original        float64  `json:"original"`
	Value           float64  `json:"value"`
	Cost            float64  `json:"cost"`
	Savings         float64  `json:"savings"`
	Iterations      int      `json:"iterations"`
	Converged       bool     `json:"converged"`
	Notes           []string `json:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty"`
}
