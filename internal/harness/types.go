package harness

// TraceEvent records one executed step. Fields that do not apply to the
// step's operation are left zero and omitted from snapshots.
type TraceEvent struct {
	Step    int    `json:"step"`
	Op      string `json:"op"`
	Key     string `json:"key,omitempty"`
	Found   bool   `json:"found,omitempty"`
	Module  string `json:"module,omitempty"`
	SrcLoc  string `json:"srcloc,omitempty"`
	Entries int    `json:"entries,omitempty"`
	Count   int    `json:"count,omitempty"`
	State   string `json:"state,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Preloaded is the number of entries registered from manifests.
	Preloaded int `json:"preloaded"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
