package custody

import (
	"time"

	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
)

// Record is one link in a batch's custody chain. Append-only; the received
// flag flips true exactly once, when the designated recipient confirms.
type Record struct {
	ID          int64          `json:"-"`
	BatchID     domain.BatchID `json:"batch_id"`
	From        domain.Actor   `json:"from"`
	To          domain.Actor   `json:"to"`
	InitiatedAt time.Time      `json:"initiated_at"`
	Location    string         `json:"location"`
	Notes       string         `json:"notes"`
	Received    bool           `json:"received"`
	ReceivedAt  *time.Time     `json:"received_at,omitempty"`
}

// Chain is a batch's ordered custody record sequence plus mutation bookkeeping
// for the store that loaded it. Current holder is derived, never stored: it is
// the `to` of the last received record.
type Chain struct {
	BatchID domain.BatchID
	Records []Record

	added     []Record
	confirmed int
}

func NewChain(batchID domain.BatchID, records []Record) *Chain {
	return &Chain{BatchID: batchID, Records: records, confirmed: -1}
}

// CurrentHolder returns the holder established by the chain, or Unassigned.
func (c *Chain) CurrentHolder() domain.Actor {
	for i := len(c.Records) - 1; i >= 0; i-- {
		if c.Records[i].Received {
			return c.Records[i].To
		}
	}
	return domain.Unassigned
}

// HolderEstablished reports whether at least one received transfer exists.
func (c *Chain) HolderEstablished() bool {
	return c.CurrentHolder() != domain.Unassigned
}

// latestPending returns the index of the most recent unreceived record, or -1.
func (c *Chain) latestPending() int {
	for i := len(c.Records) - 1; i >= 0; i-- {
		if !c.Records[i].Received {
			return i
		}
	}
	return -1
}

// CanInitiate checks that caller may offer the batch. Once a holder is
// established only that holder may initiate; before that, first custody is
// bound to the minted origin when the registry knows the batch.
func (c *Chain) CanInitiate(caller domain.Actor, origin domain.Actor, originKnown bool) error {
	if c.HolderEstablished() {
		if caller != c.CurrentHolder() {
			return dErrors.New(dErrors.CodeForbidden, "caller is not the current holder")
		}
		return nil
	}
	if originKnown && caller != origin {
		return dErrors.New(dErrors.CodeForbidden, "first custody belongs to the batch origin")
	}
	return nil
}

// ApplyInitiate appends a pending transfer from caller to recipient.
func (c *Chain) ApplyInitiate(caller, to domain.Actor, location, notes string, now time.Time) Record {
	rec := Record{
		BatchID:     c.BatchID,
		From:        caller,
		To:          to,
		InitiatedAt: now,
		Location:    location,
		Notes:       notes,
	}
	c.Records = append(c.Records, rec)
	c.added = append(c.added, rec)
	return rec
}

// Confirm flips the most recent unreceived record to received, enforcing that
// caller is its designated recipient.
func (c *Chain) Confirm(caller domain.Actor, now time.Time) (Record, error) {
	if len(c.Records) == 0 {
		return Record{}, dErrors.New(dErrors.CodeInvariantViolation, "no transfers found for batch")
	}
	i := c.latestPending()
	if i < 0 {
		return Record{}, dErrors.New(dErrors.CodeInvariantViolation, "no pending transfer to confirm")
	}
	if c.Records[i].To != caller {
		return Record{}, dErrors.New(dErrors.CodeForbidden, "caller is not the designated recipient")
	}
	c.Records[i].Received = true
	c.Records[i].ReceivedAt = &now
	c.confirmed = i
	return c.Records[i], nil
}

// Added returns records appended during this Execute pass.
func (c *Chain) Added() []Record { return c.added }

// Confirmed returns the index of the record confirmed during this Execute
// pass, if any.
func (c *Chain) Confirmed() (int, bool) { return c.confirmed, c.confirmed >= 0 }
