package recall

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

type RecallSuite struct {
	suite.Suite
	service *Service
	now     time.Time
}

func TestRecallSuite(t *testing.T) {
	suite.Run(t, new(RecallSuite))
}

func (s *RecallSuite) SetupTest() {
	log := ledger.NewMemory()
	trail := audit.NewService(audit.NewInMemoryStore(), log)
	s.service = NewService(NewInMemoryStore(), log, trail)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RecallSuite) regulator() context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	ctx = requestcontext.WithActor(ctx, "0xregulator")
	return requestcontext.WithRoles(ctx, domain.NewRoleSet(domain.RoleRegulator))
}

func (s *RecallSuite) TestIssue() {
	s.Run("regulator issues an active recall", func() {
		rec, err := s.service.Issue(s.regulator(), "BATCH-1", "glass particulate", 4, []string{"EU", "US"})
		s.Require().NoError(err)
		s.True(rec.Active)
		s.Equal(4, rec.Severity)
		s.Equal([]string{"EU", "US"}, rec.Regions)
	})

	s.Run("severity outside 1..5 rejected", func() {
		for _, severity := range []int{0, 6, -1} {
			_, err := s.service.Issue(s.regulator(), "BATCH-1", "x", severity, nil)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "severity %d", severity)
		}
	})

	s.Run("caller without recall authority rejected", func() {
		ctx := requestcontext.WithRoles(s.regulator(), domain.NewRoleSet(domain.RolePharmacy))
		_, err := s.service.Issue(ctx, "BATCH-1", "x", 3, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *RecallSuite) TestResolveAndAggregation() {
	ctx := s.regulator()
	_, err := s.service.Issue(ctx, "BATCH-1", "labeling error", 2, nil)
	s.Require().NoError(err)
	_, err = s.service.Issue(ctx, "BATCH-1", "contamination", 5, nil)
	s.Require().NoError(err)

	s.Run("recalled while any recall is active", func() {
		recalled, err := s.service.IsRecalled(ctx, "BATCH-1")
		s.Require().NoError(err)
		s.True(recalled)
	})

	s.Run("resolving one of two keeps the batch recalled", func() {
		s.Require().NoError(s.service.Resolve(ctx, "BATCH-1", 0))
		recalled, err := s.service.IsRecalled(ctx, "BATCH-1")
		s.Require().NoError(err)
		s.True(recalled)

		active, err := s.service.ActiveRecalls(ctx, "BATCH-1")
		s.Require().NoError(err)
		s.Require().Len(active, 1)
		s.Equal("contamination", active[0].Reason)
	})

	s.Run("resolving the last recall clears the batch", func() {
		s.Require().NoError(s.service.Resolve(ctx, "BATCH-1", 1))
		recalled, err := s.service.IsRecalled(ctx, "BATCH-1")
		s.Require().NoError(err)
		s.False(recalled)

		// History survives resolution.
		all, err := s.service.Recalls(ctx, "BATCH-1")
		s.Require().NoError(err)
		s.Len(all, 2)
	})

	s.Run("resolution is one-shot", func() {
		err := s.service.Resolve(ctx, "BATCH-1", 0)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("bad index is not found", func() {
		err := s.service.Resolve(ctx, "BATCH-1", 9)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RecallSuite) TestUnrecalledBatch() {
	recalled, err := s.service.IsRecalled(s.regulator(), "BATCH-CLEAN")
	s.Require().NoError(err)
	s.False(recalled)
}
