package trace

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"pharmatrace/internal/audit"
	"pharmatrace/internal/batchreg"
	"pharmatrace/internal/recall"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
	"pharmatrace/pkg/platform/sentinel"
	"pharmatrace/pkg/requestcontext"
)

// Readers are the read-side slices of each component the aggregator needs.
// They are satisfied by the concrete services and easy to fake in tests.
type (
	BatchReader interface {
		Get(ctx context.Context, id domain.BatchID) (*batchreg.Batch, error)
	}
	CustodyReader interface {
		CurrentHolder(ctx context.Context, batchID domain.BatchID) (domain.Actor, error)
	}
	QualityReader interface {
		HasPassedQualityControl(ctx context.Context, batchID domain.BatchID) (bool, error)
	}
	RecallReader interface {
		IsRecalled(ctx context.Context, batchID domain.BatchID) (bool, error)
		ActiveRecalls(ctx context.Context, batchID domain.BatchID) ([]recall.Recall, error)
	}
	ComplianceReader interface {
		IsCompliant(ctx context.Context, batchID domain.BatchID) (bool, error)
	}
	ColdChainReader interface {
		HasViolations(ctx context.Context, batchID domain.BatchID) (bool, error)
	}
	AuditReader interface {
		BatchAuditTrail(ctx context.Context, batchID domain.BatchID) ([]audit.Entry, error)
	}
)

// Service assembles the batch status view. Component reads run in parallel;
// the first failure cancels the rest.
type Service struct {
	batches    BatchReader
	custody    CustodyReader
	quality    QualityReader
	recalls    RecallReader
	compliance ComplianceReader
	coldchain  ColdChainReader
	audits     AuditReader
	cache      StatusCache
	logger     *slog.Logger
	tracer     oteltrace.Tracer
}

type Option func(*Service)

// WithCache enables the read-through status cache. Cache failures degrade to
// uncached reads.
func WithCache(cache StatusCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(
	batches BatchReader,
	cust CustodyReader,
	qual QualityReader,
	rec RecallReader,
	comp ComplianceReader,
	cold ColdChainReader,
	audits AuditReader,
	opts ...Option,
) *Service {
	s := &Service{
		batches:    batches,
		custody:    cust,
		quality:    qual,
		recalls:    rec,
		compliance: comp,
		coldchain:  cold,
		audits:     audits,
		tracer:     otel.Tracer("pharmatrace/trace"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BatchStatus returns the aggregated view of the batch. Unknown batches still
// get a status so callers can see partial records (orphan custody entries,
// recalls filed against an unregistered id).
func (s *Service) BatchStatus(ctx context.Context, batchID domain.BatchID) (*Status, error) {
	if batchID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "batch id is required")
	}

	ctx, span := s.tracer.Start(ctx, "trace.BatchStatus")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Find(ctx, batchID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) && s.logger != nil {
			s.logger.WarnContext(ctx, "status cache read failed", "batch_id", batchID, "error", err)
		}
	}

	status := &Status{
		BatchID:     batchID,
		ColdChainOK: true,
		GeneratedAt: requestcontext.Now(ctx),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		batch, err := s.batches.Get(gctx, batchID)
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		status.Registered = true
		status.Manufacturer = batch.Manufacturer
		status.Expiry = batch.Expiry
		status.Valid = batch.IsValid(status.GeneratedAt)
		return nil
	})
	g.Go(func() error {
		holder, err := s.custody.CurrentHolder(gctx, batchID)
		if err != nil {
			return err
		}
		status.CurrentHolder = holder
		return nil
	})
	g.Go(func() error {
		passed, err := s.quality.HasPassedQualityControl(gctx, batchID)
		if err != nil {
			return err
		}
		status.QualityPassed = passed
		return nil
	})
	g.Go(func() error {
		recalled, err := s.recalls.IsRecalled(gctx, batchID)
		if err != nil {
			return err
		}
		active, err := s.recalls.ActiveRecalls(gctx, batchID)
		if err != nil {
			return err
		}
		status.Recalled = recalled
		status.ActiveRecalls = len(active)
		return nil
	})
	g.Go(func() error {
		compliant, err := s.compliance.IsCompliant(gctx, batchID)
		if err != nil {
			return err
		}
		status.Compliant = compliant
		return nil
	})
	g.Go(func() error {
		violated, err := s.coldchain.HasViolations(gctx, batchID)
		if err != nil {
			return err
		}
		status.ColdChainOK = !violated
		return nil
	})
	g.Go(func() error {
		entries, err := s.audits.BatchAuditTrail(gctx, batchID)
		if err != nil {
			return err
		}
		status.AuditEntries = len(entries)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assemble batch status")
	}

	if s.cache != nil {
		// Hand the cache its own copy so an in-process implementation cannot
		// alias the status returned to the caller.
		snapshot := *status
		if err := s.cache.Save(ctx, &snapshot); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "status cache write failed", "batch_id", batchID, "error", err)
		}
	}
	return status, nil
}
