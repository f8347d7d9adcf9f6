// Package simulator holds the simulated classroom state and advances it on a
// fixed cadence.
//
// A Store has exactly one writer, the tick handler, and any number of readers.
// Readers always receive copies.
package simulator

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"smartclassroom/internal/logging"
	"smartclassroom/internal/models"
)

// DefaultInterval is the time between two ticks.
const DefaultInterval = 3 * time.Second

// historyLabelLayout renders the wall-clock label of a history point.
const historyLabelLayout = "15:04"

// ErrAlreadyRunning is returned by Run when the store is already ticking.
var ErrAlreadyRunning = errors.New("simulator: store is already running")

// Store is the authoritative in-memory snapshot of the simulated classroom.
type Store struct {
	mu         sync.RWMutex
	sensors    models.SensorReading
	engagement models.EngagementSnapshot
	history    []models.ChartPoint
	forecast   []models.ChartPoint
	updatedAt  time.Time
	ticks      uint64

	rng      *rand.Rand
	now      func() time.Time
	interval time.Duration
	logger   *zap.Logger
	running  atomic.Bool

	subMu   sync.Mutex
	subs    map[int]chan models.Snapshot
	nextSub int
}

// Option customises a Store.
type Option func(*Store)

// WithRand sets the random source. The store takes ownership of r.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rng = r }
}

// WithSeed seeds a PCG source, for reproducible runs.
func WithSeed(seed1, seed2 uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed1, seed2)))
}

// WithClock sets the clock used for history labels and snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithInterval sets the tick interval used by Run.
func WithInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNop(l) }
}

// WithBaseline replaces the default starting readings.
func WithBaseline(sensors models.SensorReading, engagement models.EngagementSnapshot) Option {
	return func(s *Store) {
		s.sensors = sensors
		s.engagement = engagement
	}
}

// New creates a store holding the baseline readings, the static forecast and
// a synthetic history window.
func New(opts ...Option) *Store {
	s := &Store{
		sensors:    DefaultSensors(),
		engagement: DefaultEngagement(),
		forecast:   DefaultForecast(),
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:        time.Now,
		interval:   DefaultInterval,
		logger:     zap.NewNop(),
		subs:       make(map[int]chan models.Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = syntheticHistory(s.rng)
	s.updatedAt = s.now()
	return s
}

// Interval returns the tick interval.
func (s *Store) Interval() time.Duration {
	return s.interval
}

// Run ticks the store every interval until ctx is cancelled. Cancelling ctx
// stops the timer; Run then returns nil.
func (s *Store) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("simulation started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("simulation stopped", zap.Uint64("ticks", s.Ticks()))
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick advances the simulation by one step.
//
// The history point appended by a tick carries the engagement value from
// before that tick's update, so the chart trails the live value by one tick.
func (s *Store) Tick() {
	s.mu.Lock()
	previous := s.engagement.AvgEngagement
	now := s.now()

	s.sensors = s.nextSensors(s.sensors)
	s.engagement = s.nextEngagement(s.engagement)
	s.history = appendBounded(s.history, models.NewChartPoint(now.Format(historyLabelLayout), float64(previous)), HistoryCapacity)
	s.updatedAt = now
	s.ticks++

	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("tick",
		zap.Uint64("tick", snap.tick),
		zap.Float64("temperature", snap.Sensors.Temperature),
		zap.Int("avgEngagement", snap.Engagement.AvgEngagement))
	s.publish(snap.Snapshot)
}

func (s *Store) nextSensors(prev models.SensorReading) models.SensorReading {
	return models.SensorReading{
		Temperature: round1(prev.Temperature + s.jitter(TemperatureDelta)),
		Humidity:    round1(prev.Humidity + s.jitter(HumidityDelta)),
		CO2:         int(math.Floor(float64(prev.CO2) + s.jitter(CO2Delta))),
		Light:       int(math.Floor(float64(prev.Light) + s.jitter(LightDelta))),
		Noise:       round1(prev.Noise + s.jitter(NoiseDelta)),
		AirQuality:  int(math.Floor(float64(prev.AirQuality) + s.jitter(AirQualityDelta))),
	}
}

func (s *Store) nextEngagement(prev models.EngagementSnapshot) models.EngagementSnapshot {
	next := prev
	avg := int(math.Floor(float64(prev.AvgEngagement) + s.jitter(EngagementDelta)))
	next.AvgEngagement = min(100, max(0, avg))

	// Weights drift independently and are not renormalised.
	for _, e := range models.Emotions {
		w := prev.EmotionBreakdown.Weight(e) + s.jitter(EmotionDelta(e))
		next.EmotionBreakdown = next.EmotionBreakdown.WithWeight(e, math.Max(0, w))
	}
	return next
}

// jitter draws uniformly from [-d, d]; float rounding makes +d reachable.
func (s *Store) jitter(d float64) float64 {
	return s.rng.Float64()*2*d - d
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// appendBounded appends p and drops the oldest points beyond capacity.
func appendBounded(points []models.ChartPoint, p models.ChartPoint, capacity int) []models.ChartPoint {
	points = append(points, p)
	if over := len(points) - capacity; over > 0 {
		points = append(points[:0:0], points[over:]...)
	}
	return points
}

// Sensors returns the current sensor reading.
func (s *Store) Sensors() models.SensorReading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sensors
}

// Engagement returns the current engagement snapshot.
func (s *Store) Engagement() models.EngagementSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engagement
}

// History returns the rolling engagement history, oldest first.
func (s *Store) History() []models.ChartPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePoints(s.history)
}

// Forecast returns the static temperature forecast.
func (s *Store) Forecast() []models.ChartPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePoints(s.forecast)
}

// Ticks returns the number of completed ticks.
func (s *Store) Ticks() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks
}

// Snapshot returns the current sensors and engagement as one consistent value.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked().Snapshot
}

type tickSnapshot struct {
	models.Snapshot
	tick uint64
}

func (s *Store) snapshotLocked() tickSnapshot {
	return tickSnapshot{
		Snapshot: models.Snapshot{
			Sensors:    s.sensors,
			Engagement: s.engagement,
			Timestamp:  s.updatedAt,
		},
		tick: s.ticks,
	}
}

func clonePoints(points []models.ChartPoint) []models.ChartPoint {
	out := make([]models.ChartPoint, len(points))
	for i, p := range points {
		out[i] = p.Clone()
	}
	return out
}
