package harness

import "github.com/roach88/layersync/internal/ir"

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every step behaved as expected and every assertion held.
	Pass bool `json:"pass"`

	// Trace holds the sync steps the engine recorded, in order.
	Trace []ir.SyncStep `json:"trace"`

	// TraceHash is the digest of Trace.
	TraceHash string `json:"trace_hash"`

	// ModelOrder and TargetOrder are the layer ids of both collections
	// after the last step.
	ModelOrder  []string `json:"model_order"`
	TargetOrder []string `json:"target_order"`

	// Errors holds failed steps and assertions. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with no trace.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Trace:       []ir.SyncStep{},
		ModelOrder:  []string{},
		TargetOrder: []string{},
		Errors:      []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
