package compliance

import (
	"time"

	"pharmatrace/pkg/domain"
)

// Approval is one regulatory approval for a batch. Active flips true→false
// exactly once, on revocation.
type Approval struct {
	BatchID        domain.BatchID `json:"batch_id"`
	RegulatoryBody string         `json:"regulatory_body"`
	ApprovalNumber string         `json:"approval_number"`
	GrantedAt      time.Time      `json:"granted_at"`
	Expiry         time.Time      `json:"expiry"`
	Active         bool           `json:"active"`
	DocumentRef    string         `json:"document_ref"`
}

// InEffect reports whether the approval counts toward compliance: active and
// unexpired at the given instant.
func (a Approval) InEffect(now time.Time) bool {
	return a.Active && now.Before(a.Expiry)
}

// IsCompliant aggregates approvals: a batch is compliant iff at least one
// approval is in effect. Derived on read, never stored.
func IsCompliant(approvals []Approval, now time.Time) bool {
	for _, a := range approvals {
		if a.InEffect(now) {
			return true
		}
	}
	return false
}
