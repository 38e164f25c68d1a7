package quality

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

type QualitySuite struct {
	suite.Suite
	service *Service
	now     time.Time
}

func TestQualitySuite(t *testing.T) {
	suite.Run(t, new(QualitySuite))
}

func (s *QualitySuite) SetupTest() {
	log := ledger.NewMemory()
	trail := audit.NewService(audit.NewInMemoryStore(), log)
	s.service = NewService(NewInMemoryStore(), log, trail)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *QualitySuite) as(actor domain.Actor, roles ...domain.Role) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	ctx = requestcontext.WithActor(ctx, actor)
	return requestcontext.WithRoles(ctx, domain.NewRoleSet(roles...))
}

func (s *QualitySuite) TestInspectorAllowList() {
	operator := s.as("0xoperator", domain.RoleOperator)

	s.Run("only the operator manages inspectors", func() {
		err := s.service.AuthorizeInspector(s.as("0xrandom"), "0xinspector")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("authorize then revoke", func() {
		s.Require().NoError(s.service.AuthorizeInspector(operator, "0xinspector"))
		ok, err := s.service.IsInspector(operator, "0xinspector")
		s.Require().NoError(err)
		s.True(ok)

		s.Require().NoError(s.service.RevokeInspector(operator, "0xinspector"))
		ok, err = s.service.IsInspector(operator, "0xinspector")
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *QualitySuite) TestPerformCheck() {
	operator := s.as("0xoperator", domain.RoleOperator)
	s.Require().NoError(s.service.AuthorizeInspector(operator, "0xinspector"))

	s.Run("authorized inspector records a check", func() {
		check, err := s.service.PerformCheck(s.as("0xinspector"), "BATCH-1", true, "potency", "99.2%", "")
		s.Require().NoError(err)
		s.Equal(domain.Actor("0xinspector"), check.Inspector)
		s.True(check.Passed)
	})

	s.Run("unauthorized caller is rejected", func() {
		_, err := s.service.PerformCheck(s.as("0xstranger"), "BATCH-1", true, "potency", "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("revoked inspector is rejected", func() {
		s.Require().NoError(s.service.RevokeInspector(operator, "0xinspector"))
		_, err := s.service.PerformCheck(s.as("0xinspector"), "BATCH-1", true, "purity", "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *QualitySuite) TestHasPassedQualityControl() {
	operator := s.as("0xoperator", domain.RoleOperator)
	s.Require().NoError(s.service.AuthorizeInspector(operator, "0xinspector"))
	inspector := s.as("0xinspector")

	s.Run("no checks means not cleared", func() {
		passed, err := s.service.HasPassedQualityControl(inspector, "BATCH-1")
		s.Require().NoError(err)
		s.False(passed)
	})

	s.Run("all passing checks clear the batch", func() {
		_, err := s.service.PerformCheck(inspector, "BATCH-1", true, "potency", "ok", "")
		s.Require().NoError(err)
		_, err = s.service.PerformCheck(inspector, "BATCH-1", true, "purity", "ok", "")
		s.Require().NoError(err)

		passed, err := s.service.HasPassedQualityControl(inspector, "BATCH-1")
		s.Require().NoError(err)
		s.True(passed)
	})

	s.Run("one failing check taints the whole batch", func() {
		_, err := s.service.PerformCheck(inspector, "BATCH-1", false, "sterility", "contaminated", "")
		s.Require().NoError(err)

		passed, err := s.service.HasPassedQualityControl(inspector, "BATCH-1")
		s.Require().NoError(err)
		s.False(passed)

		checks, err := s.service.Checks(inspector, "BATCH-1")
		s.Require().NoError(err)
		s.Len(checks, 3)
	})
}
