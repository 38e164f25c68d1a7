package batchreg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pharmatrace/internal/audit"
	"pharmatrace/internal/ledger"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
	"pharmatrace/pkg/requestcontext"
)

type BatchRegSuite struct {
	suite.Suite
	log     *ledger.Memory
	service *Service
	now     time.Time
}

func TestBatchRegSuite(t *testing.T) {
	suite.Run(t, new(BatchRegSuite))
}

func (s *BatchRegSuite) SetupTest() {
	s.log = ledger.NewMemory()
	trail := audit.NewService(audit.NewInMemoryStore(), s.log)
	s.service = NewService(NewInMemoryStore(), s.log, trail)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *BatchRegSuite) callerCtx(actor domain.Actor, roles ...domain.Role) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	ctx = requestcontext.WithActor(ctx, actor)
	return requestcontext.WithRoles(ctx, domain.NewRoleSet(roles...))
}

func (s *BatchRegSuite) TestMint() {
	expiry := s.now.Add(365 * 24 * time.Hour)

	s.Run("manufacturer mints a batch", func() {
		ctx := s.callerCtx("0xpfizer", domain.RoleManufacturer)
		batch, err := s.service.Mint(ctx, "BATCH-1", expiry, "ipfs://lot-1")
		s.Require().NoError(err)
		s.Equal(domain.Actor("0xpfizer"), batch.Manufacturer)
		s.Equal(s.now, batch.MintedAt)

		events := s.log.EventsByKey("BATCH-1")
		s.Require().NotEmpty(events)
		s.Equal(ledger.EventBatchMinted, events[0].Type)
	})

	s.Run("duplicate batch id is a conflict", func() {
		ctx := s.callerCtx("0xpfizer", domain.RoleManufacturer)
		_, err := s.service.Mint(ctx, "BATCH-1", expiry, "ipfs://lot-1-again")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("caller without manufacturer role is rejected", func() {
		ctx := s.callerCtx("0xdistributor", domain.RoleDistributor)
		_, err := s.service.Mint(ctx, "BATCH-2", expiry, "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("expiry in the past is rejected", func() {
		ctx := s.callerCtx("0xpfizer", domain.RoleManufacturer)
		_, err := s.service.Mint(ctx, "BATCH-3", s.now.Add(-time.Hour), "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *BatchRegSuite) TestGetAndValidity() {
	ctx := s.callerCtx("0xpfizer", domain.RoleManufacturer)
	expiry := s.now.Add(48 * time.Hour)
	_, err := s.service.Mint(ctx, "BATCH-1", expiry, "")
	s.Require().NoError(err)

	s.Run("minted batch is retrievable and valid", func() {
		batch, err := s.service.Get(ctx, "BATCH-1")
		s.Require().NoError(err)
		s.Equal(domain.BatchID("BATCH-1"), batch.ID)

		valid, err := s.service.IsValid(ctx, "BATCH-1")
		s.Require().NoError(err)
		s.True(valid)
	})

	s.Run("batch past expiry is invalid", func() {
		later := requestcontext.WithTime(ctx, expiry.Add(time.Minute))
		valid, err := s.service.IsValid(later, "BATCH-1")
		s.Require().NoError(err)
		s.False(valid)
	})

	s.Run("unknown batch is not found", func() {
		_, err := s.service.Get(ctx, "BATCH-MISSING")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *BatchRegSuite) TestOriginHolder() {
	ctx := s.callerCtx("0xpfizer", domain.RoleManufacturer)
	_, err := s.service.Mint(ctx, "BATCH-1", s.now.Add(time.Hour), "")
	s.Require().NoError(err)

	origin, known := s.service.OriginHolder(ctx, "BATCH-1")
	s.True(known)
	s.Equal(domain.Actor("0xpfizer"), origin)

	_, known = s.service.OriginHolder(ctx, "BATCH-UNMINTED")
	s.False(known)
}
