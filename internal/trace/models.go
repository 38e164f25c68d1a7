package trace

import (
	"time"

	"pharmatrace/pkg/domain"
)

// Status is the aggregated provenance view of one batch, assembled from the
// custody, quality, recall, compliance, and cold-chain components.
type Status struct {
	BatchID       domain.BatchID `json:"batch_id"`
	Registered    bool           `json:"registered"`
	Manufacturer  domain.Actor   `json:"manufacturer,omitempty"`
	Expiry        time.Time      `json:"expiry,omitzero"`
	Valid         bool           `json:"valid"`
	CurrentHolder domain.Actor   `json:"current_holder,omitempty"`
	QualityPassed bool           `json:"quality_passed"`
	Recalled      bool           `json:"recalled"`
	ActiveRecalls int            `json:"active_recalls"`
	Compliant     bool           `json:"compliant"`
	ColdChainOK   bool           `json:"cold_chain_ok"`
	AuditEntries  int            `json:"audit_entries"`
	GeneratedAt   time.Time      `json:"generated_at"`
}

// Dispensable reports whether every gate holds: the batch is registered and
// unexpired, passed quality control, is compliant, is not under recall, and
// the cold chain was never broken.
func (s Status) Dispensable() bool {
	return s.Registered && s.Valid && s.QualityPassed && s.Compliant && !s.Recalled && s.ColdChainOK
}
