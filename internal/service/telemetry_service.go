// Package service mirrors classroom snapshots to the configured telemetry
// sinks.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"smartclassroom/internal/logging"
	"smartclassroom/internal/models"
	"smartclassroom/internal/repository"
	"smartclassroom/internal/simulator"
)

// Defaults for exporter protection.
const (
	DefaultExportTimeout   = 5 * time.Second
	DefaultTripAfter       = 3
	DefaultBreakerCooldown = 30 * time.Second
	subscriptionBuffer     = 16
)

// Exporter writes one snapshot to a sink.
type Exporter interface {
	Export(ctx context.Context, snap models.Snapshot) error
}

// ExporterFunc adapts a function to Exporter.
type ExporterFunc func(ctx context.Context, snap models.Snapshot) error

// Export calls f.
func (f ExporterFunc) Export(ctx context.Context, snap models.Snapshot) error {
	return f(ctx, snap)
}

// InfluxDBExporter writes snapshots of classroomID through repo.
func InfluxDBExporter(repo repository.Repository, classroomID string) Exporter {
	return ExporterFunc(func(ctx context.Context, snap models.Snapshot) error {
		return repo.WriteSnapshot(ctx, classroomID, snap)
	})
}

type sink struct {
	name     string
	exporter Exporter
	breaker  *gobreaker.CircuitBreaker
}

// TelemetryService fans snapshots out to every registered exporter. Each
// exporter sits behind a circuit breaker so an unreachable sink is skipped
// instead of being retried on every tick.
type TelemetryService struct {
	sinks     []*sink
	timeout   time.Duration
	tripAfter uint32
	cooldown  time.Duration
	logger    *zap.Logger
}

// Option customises a TelemetryService.
type Option func(*TelemetryService)

// WithExportTimeout bounds a single export.
func WithExportTimeout(d time.Duration) Option {
	return func(s *TelemetryService) { s.timeout = d }
}

// WithBreaker sets how many consecutive failures open a sink's breaker and
// how long it stays open.
func WithBreaker(tripAfter uint32, cooldown time.Duration) Option {
	return func(s *TelemetryService) {
		s.tripAfter = tripAfter
		s.cooldown = cooldown
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *TelemetryService) { s.logger = logging.OrNop(l) }
}

// NewTelemetryService creates a service without exporters.
func NewTelemetryService(opts ...Option) *TelemetryService {
	s := &TelemetryService{
		timeout:   DefaultExportTimeout,
		tripAfter: DefaultTripAfter,
		cooldown:  DefaultBreakerCooldown,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddExporter registers an exporter. It must be called before Start.
func (s *TelemetryService) AddExporter(name string, e Exporter) {
	tripAfter := s.tripAfter
	logger := s.logger
	s.sinks = append(s.sinks, &sink{
		name:     name,
		exporter: e,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     s.cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return tripAfter > 0 && counts.ConsecutiveFailures >= tripAfter
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("exporter breaker changed state",
					zap.String("exporter", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}),
	})
}

// Exporters returns the names of the registered exporters.
func (s *TelemetryService) Exporters() []string {
	names := make([]string, len(s.sinks))
	for i, k := range s.sinks {
		names[i] = k.name
	}
	return names
}

// Start exports every snapshot received on snapshots until ctx is cancelled
// or the channel is closed. Export failures are logged and never stop the
// loop.
func (s *TelemetryService) Start(ctx context.Context, snapshots <-chan models.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			s.Export(ctx, snap)
		}
	}
}

// Follow subscribes to store and exports its ticks until ctx is cancelled.
// Its signature matches session.Worker.
func (s *TelemetryService) Follow(ctx context.Context, store *simulator.Store) error {
	if len(s.sinks) == 0 {
		return nil
	}
	snapshots, unsubscribe := store.Subscribe(subscriptionBuffer)
	defer unsubscribe()

	s.logger.Info("telemetry export started", zap.Strings("exporters", s.Exporters()))
	return s.Start(ctx, snapshots)
}

// Export sends snap to every exporter and returns the failures joined.
func (s *TelemetryService) Export(ctx context.Context, snap models.Snapshot) error {
	var errs []error
	for _, k := range s.sinks {
		if err := s.exportOne(ctx, k, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *TelemetryService) exportOne(ctx context.Context, k *sink, snap models.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := k.breaker.Execute(func() (interface{}, error) {
		return nil, k.exporter.Export(ctx, snap)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.logger.Debug("exporter skipped", zap.String("exporter", k.name))
	default:
		s.logger.Error("export failed", zap.String("exporter", k.name), zap.Error(err))
	}
	return fmt.Errorf("%s: %w", k.name, err)
}
