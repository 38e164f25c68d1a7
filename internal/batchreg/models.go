package batchreg

import (
	"time"

	"pharmatrace/pkg/domain"
)

// Batch is a minted production lot. Consulted, never mutated; recall state is
// derived from the recall registry, not stored here, so there is a single
// source of truth for "is this batch recalled".
type Batch struct {
	ID           domain.BatchID `json:"id"`
	Manufacturer domain.Actor   `json:"manufacturer"`
	Expiry       time.Time      `json:"expiry"`
	ContentRef   string         `json:"content_ref"`
	MintedAt     time.Time      `json:"minted_at"`
}

// IsValid reports whether the batch is unexpired at the given instant.
func (b Batch) IsValid(now time.Time) bool {
	return now.Before(b.Expiry)
}
