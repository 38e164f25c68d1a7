package coldchain

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

type ColdChainSuite struct {
	suite.Suite
	log     *ledger.Memory
	trail   *audit.Service
	service *Service
	now     time.Time
}

func TestColdChainSuite(t *testing.T) {
	suite.Run(t, new(ColdChainSuite))
}

func (s *ColdChainSuite) SetupTest() {
	s.log = ledger.NewMemory()
	s.trail = audit.NewService(audit.NewInMemoryStore(), s.log)
	s.service = NewService(NewInMemoryStore(), s.log, s.trail)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *ColdChainSuite) as(actor domain.Actor, roles ...domain.Role) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	ctx = requestcontext.WithActor(ctx, actor)
	return requestcontext.WithRoles(ctx, domain.NewRoleSet(roles...))
}

func (s *ColdChainSuite) operator() context.Context {
	return s.as("0xoperator", domain.RoleOperator)
}

func (s *ColdChainSuite) TestSensorAllowList() {
	s.Run("operator only", func() {
		err := s.service.AuthorizeSensor(s.as("0xrandom"), "0xsensor")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("authorize then revoke", func() {
		s.Require().NoError(s.service.AuthorizeSensor(s.operator(), "0xsensor"))
		ok, err := s.service.IsSensor(s.operator(), "0xsensor")
		s.Require().NoError(err)
		s.True(ok)

		s.Require().NoError(s.service.RevokeSensor(s.operator(), "0xsensor"))
		ok, err = s.service.IsSensor(s.operator(), "0xsensor")
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *ColdChainSuite) TestSetThreshold() {
	s.Run("operator sets the 2°C to 8°C range", func() {
		err := s.service.SetThreshold(s.operator(), "BATCH-1", Threshold{Min: 200, Max: 800})
		s.Require().NoError(err)

		t, err := s.service.Threshold(s.operator(), "BATCH-1")
		s.Require().NoError(err)
		s.Equal(Centidegrees(200), t.Min)
		s.Equal(Centidegrees(800), t.Max)
	})

	s.Run("inverted range rejected", func() {
		err := s.service.SetThreshold(s.operator(), "BATCH-1", Threshold{Min: 800, Max: 200})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unconfigured batch has no threshold", func() {
		_, err := s.service.Threshold(s.operator(), "BATCH-NONE")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ColdChainSuite) TestRecordTemperature() {
	s.Require().NoError(s.service.AuthorizeSensor(s.operator(), "0xsensor"))
	s.Require().NoError(s.service.SetThreshold(s.operator(), "BATCH-1", Threshold{Min: 200, Max: 800}))
	sensor := s.as("0xsensor")

	s.Run("in-range reading is not a violation", func() {
		reading, err := s.service.RecordTemperature(sensor, "BATCH-1", 550, "Truck 12")
		s.Require().NoError(err)
		s.False(reading.Violation)
		s.Equal("5.50°C", reading.Temperature.String())
	})

	s.Run("out-of-range reading flags a violation", func() {
		reading, err := s.service.RecordTemperature(sensor, "BATCH-1", 2550, "Truck 12")
		s.Require().NoError(err)
		s.True(reading.Violation)

		var violations int
		for _, ev := range s.log.EventsByKey("BATCH-1") {
			if ev.Type == ledger.EventTemperatureViolation {
				violations++
			}
		}
		s.Equal(1, violations)
	})

	s.Run("unauthorized sensor rejected", func() {
		_, err := s.service.RecordTemperature(s.as("0xrogue"), "BATCH-1", 500, "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("reading without a configured threshold is stored unevaluated", func() {
		reading, err := s.service.RecordTemperature(sensor, "BATCH-FRESH", 2550, "Dock 3")
		s.Require().NoError(err)
		s.False(reading.Violation)
	})
}

func (s *ColdChainSuite) TestBatchScopedActionsAreAudited() {
	s.Require().NoError(s.service.AuthorizeSensor(s.operator(), "0xsensor"))
	s.Require().NoError(s.service.SetThreshold(s.operator(), "BATCH-1", Threshold{Min: 200, Max: 800}))
	sensor := s.as("0xsensor")

	_, err := s.service.RecordTemperature(sensor, "BATCH-1", 550, "Truck 12")
	s.Require().NoError(err)
	_, err = s.service.RecordTemperature(sensor, "BATCH-1", 2550, "Truck 12")
	s.Require().NoError(err)

	entries, err := s.trail.BatchAuditTrail(s.operator(), "BATCH-1")
	s.Require().NoError(err)
	actions := make(map[string]int)
	for _, e := range entries {
		actions[e.Action]++
	}
	s.Equal(1, actions["THRESHOLD_SET"])
	s.Equal(2, actions["TEMPERATURE_RECORDED"], "in-range and out-of-range readings both leave an entry")
	s.Equal(1, actions["TEMPERATURE_VIOLATION"])
}

func (s *ColdChainSuite) TestViolationsAreCumulative() {
	s.Require().NoError(s.service.AuthorizeSensor(s.operator(), "0xsensor"))
	s.Require().NoError(s.service.SetThreshold(s.operator(), "BATCH-1", Threshold{Min: 200, Max: 800}))
	sensor := s.as("0xsensor")

	violated, err := s.service.HasViolations(sensor, "BATCH-1")
	s.Require().NoError(err)
	s.False(violated)

	_, err = s.service.RecordTemperature(sensor, "BATCH-1", 900, "Truck 12")
	s.Require().NoError(err)

	// A later in-range reading must not clear the excursion.
	_, err = s.service.RecordTemperature(sensor, "BATCH-1", 500, "Truck 12")
	s.Require().NoError(err)

	violated, err = s.service.HasViolations(sensor, "BATCH-1")
	s.Require().NoError(err)
	s.True(violated)

	readings, err := s.service.Readings(sensor, "BATCH-1")
	s.Require().NoError(err)
	s.Require().Len(readings, 2)
	s.True(readings[0].Violation)
	s.False(readings[1].Violation)
}

func TestCentidegreesString(t *testing.T) {
	for _, tc := range []struct {
		value Centidegrees
		want  string
	}{
		{2550, "25.50°C"},
		{200, "2.00°C"},
		{-450, "-4.50°C"},
		{5, "0.05°C"},
	} {
		if got := tc.value.String(); got != tc.want {
			t.Errorf("Centidegrees(%d).String() = %q, want %q", tc.value, got, tc.want)
		}
	}
}
