package audit

import (
	"context"
	"errors"
	"log/slog"

	"pharmatrace/internal/ledger"
	"pharmatrace/internal/platform/metrics"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
	"pharmatrace/pkg/platform/sentinel"
	"pharmatrace/pkg/requestcontext"
)

// Trail is the narrow surface the other components write through. Logging is
// fail-closed: if the entry cannot be persisted, the calling operation must
// fail too.
type Trail interface {
	LogAction(ctx context.Context, batchID domain.BatchID, action, details, dataHash string) (*Entry, error)
}

// Service owns the append-only audit trail.
type Service struct {
	store  Store
	log    ledger.Ledger
	logger *slog.Logger
	meters *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger for failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.meters = m }
}

func NewService(store Store, log ledger.Ledger, opts ...Option) *Service {
	s := &Service{store: store, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LogAction appends an entry tying the action to the calling actor and the
// supplied content hash, then commits an AuditEntryCreated event.
func (s *Service) LogAction(ctx context.Context, batchID domain.BatchID, action, details, dataHash string) (*Entry, error) {
	if batchID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "batch id is required")
	}
	if action == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "action is required")
	}

	entry := &Entry{
		BatchID:   batchID,
		Action:    action,
		Actor:     requestcontext.Actor(ctx),
		Timestamp: requestcontext.Now(ctx),
		Details:   details,
		DataHash:  dataHash,
	}
	if err := s.store.Append(ctx, entry); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "audit append failed",
				"batch_id", batchID,
				"action", action,
				"error", err,
			)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
	}

	if _, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventAuditEntryCreated,
		Key:   string(batchID),
		Actor: entry.Actor,
		At:    entry.Timestamp,
		Attrs: map[string]string{"action": action},
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit audit event")
	}

	if s.meters != nil {
		s.meters.AuditEntries.Inc()
	}
	return entry, nil
}

// BatchAuditTrail returns all entries for the batch in original insertion
// order. A batch nobody has logged against yields an empty trail, not an error.
func (s *Service) BatchAuditTrail(ctx context.Context, batchID domain.BatchID) ([]Entry, error) {
	if batchID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "batch id is required")
	}
	return s.store.ListByBatch(ctx, batchID)
}

// VerifyDataHash reports whether the stored hash at entryID equals hash.
func (s *Service) VerifyDataHash(ctx context.Context, entryID uint64, hash string) (bool, error) {
	entry, err := s.store.Get(ctx, entryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "invalid entry id")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit entry")
	}
	return entry.DataHash == hash, nil
}

// TotalEntries counts all entries across all batches.
func (s *Service) TotalEntries(ctx context.Context) (uint64, error) {
	return s.store.Count(ctx)
}
