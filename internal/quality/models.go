package quality

import (
	"time"

	"pharmatrace/pkg/domain"
)

// Check is one inspector attestation for a batch. Append-only.
type Check struct {
	BatchID   domain.BatchID `json:"batch_id"`
	Inspector domain.Actor   `json:"inspector"`
	Timestamp time.Time      `json:"timestamp"`
	Passed    bool           `json:"passed"`
	TestType  string         `json:"test_type"`
	Results   string         `json:"results"`
	Notes     string         `json:"notes"`
}

// HasPassed aggregates checks: logical AND over passed flags, false when no
// checks exist. A batch nobody inspected is not cleared.
func HasPassed(checks []Check) bool {
	if len(checks) == 0 {
		return false
	}
	for _, c := range checks {
		if !c.Passed {
			return false
		}
	}
	return true
}
