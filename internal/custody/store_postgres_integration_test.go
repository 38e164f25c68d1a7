//go:build integration

package custody_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pharmatrace/internal/custody"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
	"pharmatrace/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *custody.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = custody.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "custody_records")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) initiate(batchID domain.BatchID, from, to domain.Actor) {
	err := s.store.Execute(context.Background(), batchID, func(_ context.Context, chain *custody.Chain) error {
		chain.ApplyInitiate(from, to, "Plant A", "", time.Now().UTC())
		return nil
	})
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) confirm(batchID domain.BatchID, caller domain.Actor) error {
	return s.store.Execute(context.Background(), batchID, func(_ context.Context, chain *custody.Chain) error {
		_, err := chain.Confirm(caller, time.Now().UTC())
		return err
	})
}

func (s *PostgresStoreSuite) TestTransferRoundTrip() {
	ctx := context.Background()
	batchID := domain.BatchID("BATCH-PG-1")

	s.initiate(batchID, "0xpfizer", "0xdistributor")

	records, err := s.store.History(ctx, batchID)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(domain.Actor("0xpfizer"), records[0].From)
	s.Equal(domain.Actor("0xdistributor"), records[0].To)
	s.False(records[0].Received)
	s.Nil(records[0].ReceivedAt)

	err = s.confirm(batchID, "0xdistributor")
	s.Require().NoError(err)

	records, err = s.store.History(ctx, batchID)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.True(records[0].Received)
	s.Require().NotNil(records[0].ReceivedAt)

	chain := custody.NewChain(batchID, records)
	s.Equal(domain.Actor("0xdistributor"), chain.CurrentHolder())
}

// TestFailedExecuteRollsBack verifies that a rejected mutation leaves no rows
// behind.
func (s *PostgresStoreSuite) TestFailedExecuteRollsBack() {
	ctx := context.Background()
	batchID := domain.BatchID("BATCH-PG-2")

	err := s.store.Execute(ctx, batchID, func(_ context.Context, chain *custody.Chain) error {
		chain.ApplyInitiate("0xpfizer", "0xdistributor", "", "", time.Now().UTC())
		return dErrors.New(dErrors.CodeInternal, "forced failure")
	})
	s.Require().Error(err)

	records, err := s.store.History(ctx, batchID)
	s.Require().NoError(err)
	s.Empty(records)
}

// TestConcurrentConfirmIsOneShot hammers Confirm from many goroutines. The
// FOR UPDATE lock serializes them, so exactly one flips the record.
func (s *PostgresStoreSuite) TestConcurrentConfirmIsOneShot() {
	batchID := domain.BatchID("BATCH-PG-3")
	s.initiate(batchID, "0xpfizer", "0xdistributor")

	const goroutines = 20
	var wg sync.WaitGroup
	var successCount, staleCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.confirm(batchID, "0xdistributor")
			if err == nil {
				successCount.Add(1)
			} else if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				staleCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one confirm should succeed")
	s.Equal(int32(goroutines-1), staleCount.Load(), "losers should see no pending transfer")

	records, err := s.store.History(context.Background(), batchID)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.True(records[0].Received)
}

func (s *PostgresStoreSuite) TestHistoryKeepsChainOrder() {
	ctx := context.Background()
	batchID := domain.BatchID("BATCH-PG-4")

	s.initiate(batchID, "0xpfizer", "0xdistributor")
	s.Require().NoError(s.confirm(batchID, "0xdistributor"))
	s.initiate(batchID, "0xdistributor", "0xpharmacy")
	s.Require().NoError(s.confirm(batchID, "0xpharmacy"))

	records, err := s.store.History(ctx, batchID)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(domain.Actor("0xdistributor"), records[0].To)
	s.Equal(domain.Actor("0xpharmacy"), records[1].To)

	chain := custody.NewChain(batchID, records)
	s.Equal(domain.Actor("0xpharmacy"), chain.CurrentHolder())
}
