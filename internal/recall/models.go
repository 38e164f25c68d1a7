package recall

import (
	"time"

	"pharmatrace/pkg/domain"
)

// Severity bounds per the recall protocol: 1 (precautionary) to 5 (critical).
const (
	MinSeverity = 1
	MaxSeverity = 5
)

// Recall is one recall instance for a batch. Active flips true→false exactly
// once, on resolution; other recalls for the batch are unaffected.
type Recall struct {
	ID       int64          `json:"-"`
	BatchID  domain.BatchID `json:"batch_id"`
	Reason   string         `json:"reason"`
	IssuedAt time.Time      `json:"issued_at"`
	IssuedBy domain.Actor   `json:"issued_by"`
	Active   bool           `json:"active"`
	Regions  []string       `json:"regions"`
	Severity int            `json:"severity"`
}

// IsRecalled aggregates recalls: logical OR over active flags.
func IsRecalled(recalls []Recall) bool {
	for _, r := range recalls {
		if r.Active {
			return true
		}
	}
	return false
}

// ActiveOnly filters the list down to unresolved recalls.
func ActiveOnly(recalls []Recall) []Recall {
	out := []Recall{}
	for _, r := range recalls {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}
