package coldchain

import (
	"context"
	"errors"
	"fmt"

	"pharmatrace/internal/audit"
	"pharmatrace/internal/ledger"
	"pharmatrace/internal/platform/metrics"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
	"pharmatrace/pkg/platform/sentinel"
	"pharmatrace/pkg/requestcontext"
)

// Service tracks cold-chain telemetry. Readings come only from sensors on the
// operator-managed allow-list, and a reading outside the batch threshold marks
// the batch permanently as violated.
type Service struct {
	store  Store
	log    ledger.Ledger
	trail  audit.Trail
	meters *metrics.Metrics
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.meters = m }
}

func NewService(store Store, log ledger.Ledger, trail audit.Trail, opts ...Option) *Service {
	s := &Service{store: store, log: log, trail: trail}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireOperator(ctx context.Context) error {
	if !requestcontext.Roles(ctx).Has(domain.RoleOperator) {
		return dErrors.New(dErrors.CodeForbidden, "caller may not manage cold-chain configuration")
	}
	return nil
}

// AuthorizeSensor adds the actor to the sensor allow-list.
func (s *Service) AuthorizeSensor(ctx context.Context, sensor domain.Actor) error {
	if err := requireOperator(ctx); err != nil {
		return err
	}
	if sensor.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "sensor is required")
	}
	_, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventSensorAuthorized,
		Key:   string(sensor),
		Actor: requestcontext.Actor(ctx),
		At:    requestcontext.Now(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit sensor event")
	}
	if err := s.store.SetSensor(ctx, sensor, true); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to authorize sensor")
	}
	return nil
}

// RevokeSensor removes the actor from the sensor allow-list.
func (s *Service) RevokeSensor(ctx context.Context, sensor domain.Actor) error {
	if err := requireOperator(ctx); err != nil {
		return err
	}
	_, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventSensorRevoked,
		Key:   string(sensor),
		Actor: requestcontext.Actor(ctx),
		At:    requestcontext.Now(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit sensor event")
	}
	if err := s.store.SetSensor(ctx, sensor, false); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke sensor")
	}
	return nil
}

// SetThreshold configures the acceptable temperature range for a batch.
// Readings recorded before any threshold exists are stored unevaluated.
func (s *Service) SetThreshold(ctx context.Context, batchID domain.BatchID, t Threshold) error {
	if err := requireOperator(ctx); err != nil {
		return err
	}
	if batchID.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "batch id is required")
	}
	if t.Min > t.Max {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid threshold range")
	}
	_, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventThresholdSet,
		Key:   string(batchID),
		Actor: requestcontext.Actor(ctx),
		At:    requestcontext.Now(ctx),
		Attrs: map[string]string{"min": t.Min.String(), "max": t.Max.String()},
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit threshold event")
	}
	details := fmt.Sprintf("threshold set to [%s, %s]", t.Min, t.Max)
	if _, err := s.trail.LogAction(ctx, batchID, "THRESHOLD_SET", details, audit.HashDetails(details)); err != nil {
		return err
	}
	if err := s.store.SetThreshold(ctx, batchID, t); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set threshold")
	}
	return nil
}

// RecordTemperature stores one sensor observation. The violation flag is
// decided here, against the threshold in force at insert time.
func (s *Service) RecordTemperature(ctx context.Context, batchID domain.BatchID, value Centidegrees, location string) (*Reading, error) {
	caller := requestcontext.Actor(ctx)
	ok, err := s.store.IsSensor(ctx, caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check sensor")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not an authorized sensor")
	}
	if batchID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "batch id is required")
	}

	now := requestcontext.Now(ctx)
	reading := &Reading{
		BatchID:     batchID,
		Temperature: value,
		Timestamp:   now,
		Location:    location,
		Sensor:      caller,
	}
	threshold, err := s.store.GetThreshold(ctx, batchID)
	switch {
	case err == nil:
		reading.Violation = !threshold.Contains(value)
	case errors.Is(err, sentinel.ErrNotFound):
		// No threshold configured yet; the reading is stored unevaluated.
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load threshold")
	}

	// Event and audit appends precede the write: an append failure leaves no
	// reading behind. Every reading gets an audit entry; a violation gets a
	// second one on top.
	if _, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventTemperatureRecorded,
		Key:   string(batchID),
		Actor: caller,
		At:    now,
		Attrs: map[string]string{"temperature": value.String(), "location": location},
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit reading event")
	}
	details := fmt.Sprintf("temperature %s recorded at %s", value, location)
	if _, err := s.trail.LogAction(ctx, batchID, "TEMPERATURE_RECORDED", details, audit.HashDetails(details)); err != nil {
		return nil, err
	}

	if reading.Violation {
		if _, err := s.log.Append(ctx, ledger.Event{
			Type:  ledger.EventTemperatureViolation,
			Key:   string(batchID),
			Actor: caller,
			At:    now,
			Attrs: map[string]string{
				"temperature": value.String(),
				"min":         threshold.Min.String(),
				"max":         threshold.Max.String(),
			},
		}); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit violation event")
		}
		violation := fmt.Sprintf("temperature excursion %s outside [%s, %s] at %s",
			value, threshold.Min, threshold.Max, location)
		if _, err := s.trail.LogAction(ctx, batchID, "TEMPERATURE_VIOLATION", violation, audit.HashDetails(violation)); err != nil {
			return nil, err
		}
	}

	if err := s.store.AppendReading(ctx, reading); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record reading")
	}
	if s.meters != nil {
		s.meters.TemperatureReadings.Inc()
		if reading.Violation {
			s.meters.TemperatureViolations.Inc()
		}
	}
	return reading, nil
}

// HasViolations reports whether the batch ever had an out-of-range reading.
func (s *Service) HasViolations(ctx context.Context, batchID domain.BatchID) (bool, error) {
	readings, err := s.store.ListReadings(ctx, batchID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load readings")
	}
	return HasViolations(readings), nil
}

// Readings returns every reading recorded for the batch, oldest first.
func (s *Service) Readings(ctx context.Context, batchID domain.BatchID) ([]Reading, error) {
	readings, err := s.store.ListReadings(ctx, batchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load readings")
	}
	return readings, nil
}

// Threshold returns the configured range for the batch, if any.
func (s *Service) Threshold(ctx context.Context, batchID domain.BatchID) (*Threshold, error) {
	t, err := s.store.GetThreshold(ctx, batchID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no threshold configured")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load threshold")
	}
	return t, nil
}

// IsSensor reports whether the actor is on the sensor allow-list.
func (s *Service) IsSensor(ctx context.Context, actor domain.Actor) (bool, error) {
	return s.store.IsSensor(ctx, actor)
}
