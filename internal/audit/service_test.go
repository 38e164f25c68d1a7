package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pharmatrace/internal/ledger"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
	"pharmatrace/pkg/requestcontext"
)

type AuditServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	log     *ledger.Memory
	service *Service
	now     time.Time
}

func TestAuditServiceSuite(t *testing.T) {
	suite.Run(t, new(AuditServiceSuite))
}

func (s *AuditServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.log = ledger.NewMemory()
	s.service = NewService(s.store, s.log)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *AuditServiceSuite) callerCtx(actor domain.Actor) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithActor(ctx, actor)
}

func (s *AuditServiceSuite) TestLogAction() {
	ctx := s.callerCtx("0xmanufacturer")

	s.Run("first entry gets id zero", func() {
		entry, err := s.service.LogAction(ctx, "BATCH-1", "MINT", "batch minted", HashDetails("batch minted"))
		s.Require().NoError(err)
		s.Equal(uint64(0), entry.ID)
		s.Equal(domain.Actor("0xmanufacturer"), entry.Actor)
		s.Equal(s.now, entry.Timestamp)
	})

	s.Run("ids grow with the global order, not per batch", func() {
		entry, err := s.service.LogAction(ctx, "BATCH-2", "MINT", "other batch", HashDetails("other batch"))
		s.Require().NoError(err)
		s.Equal(uint64(1), entry.ID)

		entry, err = s.service.LogAction(ctx, "BATCH-1", "QUALITY_CHECK", "inspected", HashDetails("inspected"))
		s.Require().NoError(err)
		s.Equal(uint64(2), entry.ID)
	})

	s.Run("empty batch id rejected", func() {
		_, err := s.service.LogAction(ctx, "", "MINT", "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("empty action rejected", func() {
		_, err := s.service.LogAction(ctx, "BATCH-1", "", "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("every entry commits a ledger event", func() {
		s.Len(s.log.Events(), 3)
	})
}

func (s *AuditServiceSuite) TestBatchAuditTrail() {
	ctx := s.callerCtx("0xactor")

	// Interleave entries across two batches.
	for _, step := range []struct {
		batch  domain.BatchID
		action string
	}{
		{"BATCH-A", "MINT"},
		{"BATCH-B", "MINT"},
		{"BATCH-A", "TRANSFER_INITIATED"},
		{"BATCH-B", "RECALL_ISSUED"},
		{"BATCH-A", "TRANSFER_RECEIVED"},
	} {
		_, err := s.service.LogAction(ctx, step.batch, step.action, "", "")
		s.Require().NoError(err)
	}

	trail, err := s.service.BatchAuditTrail(ctx, "BATCH-A")
	s.Require().NoError(err)
	s.Require().Len(trail, 3)
	s.Equal("MINT", trail[0].Action)
	s.Equal("TRANSFER_INITIATED", trail[1].Action)
	s.Equal("TRANSFER_RECEIVED", trail[2].Action)
	s.Equal(uint64(0), trail[0].ID)
	s.Equal(uint64(2), trail[1].ID)
	s.Equal(uint64(4), trail[2].ID)

	empty, err := s.service.BatchAuditTrail(ctx, "BATCH-UNKNOWN")
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *AuditServiceSuite) TestVerifyDataHash() {
	ctx := s.callerCtx("0xactor")
	hash := HashDetails("payload")
	_, err := s.service.LogAction(ctx, "BATCH-1", "MINT", "payload", hash)
	s.Require().NoError(err)

	s.Run("matching hash verifies", func() {
		ok, err := s.service.VerifyDataHash(ctx, 0, hash)
		s.NoError(err)
		s.True(ok)
	})

	s.Run("mismatched hash fails closed", func() {
		ok, err := s.service.VerifyDataHash(ctx, 0, HashDetails("tampered"))
		s.NoError(err)
		s.False(ok)
	})

	s.Run("unknown entry id is not found", func() {
		_, err := s.service.VerifyDataHash(ctx, 999, hash)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AuditServiceSuite) TestTotalEntries() {
	ctx := s.callerCtx("0xactor")
	total, err := s.service.TotalEntries(ctx)
	s.Require().NoError(err)
	s.Zero(total)

	_, err = s.service.LogAction(ctx, "BATCH-1", "MINT", "", "")
	s.Require().NoError(err)
	_, err = s.service.LogAction(ctx, "BATCH-2", "MINT", "", "")
	s.Require().NoError(err)

	total, err = s.service.TotalEntries(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), total)
}
