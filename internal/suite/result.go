package suite

// Status classifies a test or a provider run.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	// StatusError marks a provider whose initialization failed before
	// any test could run.
	StatusError Status = "error"
)

// TestOutcome records one named test within a suite run.
type TestOutcome struct {
	Name          string             `json:"name"`
	Status        Status             `json:"status"`
	Error         string             `json:"error,omitempty"`
	ElapsedMillis int64              `json:"elapsedMillis"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
}

// Result is the immutable record of one suite run against one provider.
type Result struct {
	Provider      string        `json:"provider"`
	Suite         string        `json:"suite"`
	Tests         []TestOutcome `json:"tests"`
	Overall       Status        `json:"overall"`
	PassRate      float64       `json:"passRate"`
	ElapsedMillis int64         `json:"elapsedMillis"`
}

// Passed reports whether every test in the run passed.
func (r *Result) Passed() bool {
	return r.Overall == StatusPassed
}

func summarize(provider, suiteName string, tests []TestOutcome, elapsedMillis int64) Result {
	res := Result{
		Provider:      provider,
		Suite:         suiteName,
		Tests:         tests,
		ElapsedMillis: elapsedMillis,
	}

	passed := 0
	for _, t := range tests {
		if t.Status == StatusPassed {
			passed++
		}
	}
	if len(tests) > 0 {
		res.PassRate = float64(passed) / float64(len(tests))
	}
	if passed == len(tests) && len(tests) > 0 {
		res.Overall = StatusPassed
	} else {
		res.Overall = StatusFailed
	}
	return res
}
