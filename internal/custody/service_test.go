package custody

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pharmatrace/internal/audit"
	"pharmatrace/internal/ledger"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
	"pharmatrace/pkg/requestcontext"
)

const (
	manufacturer = domain.Actor("0xmanufacturer")
	distributor  = domain.Actor("0xdistributor")
	pharmacy     = domain.Actor("0xpharmacy")
	stranger     = domain.Actor("0xstranger")
)

// staticOrigin resolves every known batch to one minting manufacturer.
type staticOrigin struct {
	origin domain.Actor
	known  map[domain.BatchID]bool
}

func (o staticOrigin) OriginHolder(_ context.Context, batchID domain.BatchID) (domain.Actor, bool) {
	if o.known[batchID] {
		return o.origin, true
	}
	return domain.Unassigned, false
}

// brokenLedger fails every append, standing in for an unreachable broker.
type brokenLedger struct{}

func (brokenLedger) Append(context.Context, ledger.Event) (uint64, error) {
	return 0, errors.New("broker unavailable")
}

type CustodySuite struct {
	suite.Suite
	log     *ledger.Memory
	service *Service
	now     time.Time
}

func TestCustodySuite(t *testing.T) {
	suite.Run(t, new(CustodySuite))
}

func (s *CustodySuite) SetupTest() {
	s.log = ledger.NewMemory()
	trail := audit.NewService(audit.NewInMemoryStore(), s.log)
	s.service = NewService(NewInMemoryStore(), s.log, trail,
		WithOriginResolver(staticOrigin{origin: manufacturer, known: map[domain.BatchID]bool{"BATCH-1": true}}),
	)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *CustodySuite) as(actor domain.Actor) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithActor(ctx, actor)
}

func (s *CustodySuite) TestInitiateTransfer() {
	s.Run("origin initiates first transfer", func() {
		rec, err := s.service.InitiateTransfer(s.as(manufacturer), "BATCH-1", distributor, "Plant A", "")
		s.Require().NoError(err)
		s.Equal(manufacturer, rec.From)
		s.Equal(distributor, rec.To)
		s.False(rec.Received)
	})

	s.Run("non-origin cannot take first custody of a minted batch", func() {
		_, err := s.service.InitiateTransfer(s.as(stranger), "BATCH-1", pharmacy, "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("first custody of an unminted batch is unconstrained", func() {
		_, err := s.service.InitiateTransfer(s.as(stranger), "BATCH-FOREIGN", pharmacy, "", "")
		s.NoError(err)
	})

	s.Run("null recipient rejected", func() {
		_, err := s.service.InitiateTransfer(s.as(manufacturer), "BATCH-1", domain.Unassigned, "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *CustodySuite) TestConfirmReceipt() {
	_, err := s.service.InitiateTransfer(s.as(manufacturer), "BATCH-1", distributor, "Plant A", "")
	s.Require().NoError(err)

	s.Run("only the designated recipient may confirm", func() {
		_, err := s.service.ConfirmReceipt(s.as(stranger), "BATCH-1")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("recipient confirms and becomes holder", func() {
		rec, err := s.service.ConfirmReceipt(s.as(distributor), "BATCH-1")
		s.Require().NoError(err)
		s.True(rec.Received)
		s.Require().NotNil(rec.ReceivedAt)
		s.Equal(s.now, *rec.ReceivedAt)

		holder, err := s.service.CurrentHolder(s.as(distributor), "BATCH-1")
		s.Require().NoError(err)
		s.Equal(distributor, holder)
	})

	s.Run("confirming again without a pending transfer fails", func() {
		_, err := s.service.ConfirmReceipt(s.as(distributor), "BATCH-1")
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("confirming a batch with no transfers fails", func() {
		_, err := s.service.ConfirmReceipt(s.as(distributor), "BATCH-EMPTY")
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *CustodySuite) TestHolderChain() {
	// Full manufacturer → distributor → pharmacy chain.
	_, err := s.service.InitiateTransfer(s.as(manufacturer), "BATCH-1", distributor, "Plant A", "")
	s.Require().NoError(err)
	_, err = s.service.ConfirmReceipt(s.as(distributor), "BATCH-1")
	s.Require().NoError(err)

	s.Run("previous holder loses the right to initiate", func() {
		_, err := s.service.InitiateTransfer(s.as(manufacturer), "BATCH-1", pharmacy, "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	_, err = s.service.InitiateTransfer(s.as(distributor), "BATCH-1", pharmacy, "Warehouse 9", "cold truck")
	s.Require().NoError(err)
	_, err = s.service.ConfirmReceipt(s.as(pharmacy), "BATCH-1")
	s.Require().NoError(err)

	s.Run("holder follows the last received record", func() {
		holder, err := s.service.CurrentHolder(s.as(pharmacy), "BATCH-1")
		s.Require().NoError(err)
		s.Equal(pharmacy, holder)
	})

	s.Run("history keeps every link in order", func() {
		records, err := s.service.TransferHistory(s.as(pharmacy), "BATCH-1")
		s.Require().NoError(err)
		s.Require().Len(records, 2)
		s.Equal(manufacturer, records[0].From)
		s.Equal(distributor, records[1].From)
		s.True(records[0].Received)
		s.True(records[1].Received)
	})

	s.Run("ledger saw one event per state change", func() {
		var transfers int
		for _, ev := range s.log.EventsByKey("BATCH-1") {
			if ev.Type == ledger.EventTransferInitiated || ev.Type == ledger.EventTransferReceived {
				transfers++
			}
		}
		s.Equal(4, transfers)
	})
}

func (s *CustodySuite) TestFailedAppendLeavesNoRecord() {
	s.Run("ledger failure discards the staged transfer", func() {
		trail := audit.NewService(audit.NewInMemoryStore(), ledger.NewMemory())
		svc := NewService(NewInMemoryStore(), brokenLedger{}, trail)

		_, err := svc.InitiateTransfer(s.as(manufacturer), "BATCH-1", distributor, "Plant A", "")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))

		records, err := svc.TransferHistory(s.as(manufacturer), "BATCH-1")
		s.Require().NoError(err)
		s.Empty(records)
	})

	s.Run("audit failure discards the staged transfer", func() {
		trail := audit.NewService(audit.NewInMemoryStore(), brokenLedger{})
		svc := NewService(NewInMemoryStore(), ledger.NewMemory(), trail)

		_, err := svc.InitiateTransfer(s.as(manufacturer), "BATCH-1", distributor, "Plant A", "")
		s.Error(err)

		records, err := svc.TransferHistory(s.as(manufacturer), "BATCH-1")
		s.Require().NoError(err)
		s.Empty(records)
	})

	s.Run("ledger failure discards the staged confirmation", func() {
		store := NewInMemoryStore()
		trail := audit.NewService(audit.NewInMemoryStore(), ledger.NewMemory())
		svc := NewService(store, ledger.NewMemory(), trail)
		_, err := svc.InitiateTransfer(s.as(manufacturer), "BATCH-1", distributor, "Plant A", "")
		s.Require().NoError(err)

		broken := NewService(store, brokenLedger{}, trail)
		_, err = broken.ConfirmReceipt(s.as(distributor), "BATCH-1")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))

		records, err := svc.TransferHistory(s.as(distributor), "BATCH-1")
		s.Require().NoError(err)
		s.Require().Len(records, 1)
		s.False(records[0].Received)
	})
}

func (s *CustodySuite) TestConfirmTargetsMostRecentPending() {
	// Two pending offers stacked before any confirmation: the newer one wins.
	_, err := s.service.InitiateTransfer(s.as(manufacturer), "BATCH-1", distributor, "", "")
	s.Require().NoError(err)

	// The origin still holds initiation rights until a transfer is received.
	_, err = s.service.InitiateTransfer(s.as(manufacturer), "BATCH-1", pharmacy, "", "")
	s.Require().NoError(err)

	_, err = s.service.ConfirmReceipt(s.as(distributor), "BATCH-1")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "older pending record is not confirmable")

	rec, err := s.service.ConfirmReceipt(s.as(pharmacy), "BATCH-1")
	s.Require().NoError(err)
	s.Equal(pharmacy, rec.To)
}
