package repository

import (
	"context"
	"fmt"
	"strings"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"

	"smartclassroom/internal/logging"
	"smartclassroom/internal/models"
)

// Measurement names.
const (
	SensorMeasurement     = "classroom_sensors"
	EngagementMeasurement = "classroom_engagement"
)

// Repository stores classroom snapshots.
type Repository interface {
	WriteSnapshot(ctx context.Context, classroomID string, snap models.Snapshot) error
	BucketExists(ctx context.Context, name string) (bool, error)
	CreateBucket(ctx context.Context, name string) error
	Close()
}

// InfluxDBRepository writes snapshots to one InfluxDB bucket.
type InfluxDBRepository struct {
	client influxdb2.Client
	org    string
	bucket string
	logger *zap.Logger
}

// NewInfluxDBRepository creates a new InfluxDBRepository. No connection is
// made until the first call.
func NewInfluxDBRepository(url, token, org, bucket string, logger *zap.Logger) *InfluxDBRepository {
	return &InfluxDBRepository{
		client: influxdb2.NewClient(url, token),
		org:    org,
		bucket: bucket,
		logger: logging.OrNop(logger),
	}
}

// Bucket returns the bucket snapshots are written to.
func (r *InfluxDBRepository) Bucket() string {
	return r.bucket
}

// WriteSnapshot writes the sensor and engagement points of snap.
func (r *InfluxDBRepository) WriteSnapshot(ctx context.Context, classroomID string, snap models.Snapshot) error {
	writeAPI := r.client.WriteAPIBlocking(r.org, r.bucket)

	err := writeAPI.WritePoint(ctx, SensorPoint(classroomID, snap), EngagementPoint(classroomID, snap))
	if err != nil {
		return fmt.Errorf("error writing to InfluxDB: %w", err)
	}
	r.logger.Debug("snapshot written to InfluxDB",
		zap.String("bucket", r.bucket),
		zap.String("classroom", classroomID),
		zap.Time("at", snap.Timestamp))
	return nil
}

// SensorPoint converts the sensor reading of snap to a point.
func SensorPoint(classroomID string, snap models.Snapshot) *write.Point {
	s := snap.Sensors
	return influxdb2.NewPoint(
		SensorMeasurement,
		map[string]string{"classroom": classroomID},
		map[string]interface{}{
			"temperature": s.Temperature,
			"humidity":    s.Humidity,
			"co2":         s.CO2,
			"light":       s.Light,
			"noise":       s.Noise,
			"air_quality": s.AirQuality,
		},
		snap.Timestamp,
	)
}

// EngagementPoint converts the engagement snapshot of snap to a point.
func EngagementPoint(classroomID string, snap models.Snapshot) *write.Point {
	e := snap.Engagement
	fields := map[string]interface{}{
		"total_students": e.TotalStudents,
		"avg_engagement": e.AvgEngagement,
	}
	for _, w := range e.EmotionBreakdown.Entries() {
		fields["emotion_"+string(w.Emotion)] = w.Weight
	}
	return influxdb2.NewPoint(
		EngagementMeasurement,
		map[string]string{
			"classroom": classroomID,
			"occupancy": string(e.OccupancyStatus),
		},
		fields,
		snap.Timestamp,
	)
}

// BucketExists checks if a bucket exists in InfluxDB.
func (r *InfluxDBRepository) BucketExists(ctx context.Context, name string) (bool, error) {
	_, err := r.client.BucketsAPI().FindBucketByName(ctx, name)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return false, nil
		}
		return false, fmt.Errorf("error checking bucket existence: %w", err)
	}
	return true, nil
}

// CreateBucket creates a new bucket in the repository's organization.
func (r *InfluxDBRepository) CreateBucket(ctx context.Context, name string) error {
	org, err := r.client.OrganizationsAPI().FindOrganizationByName(ctx, r.org)
	if err != nil {
		return fmt.Errorf("error finding organization '%s': %w", r.org, err)
	}
	if org == nil {
		return fmt.Errorf("organization '%s' not found", r.org)
	}

	if _, err := r.client.BucketsAPI().CreateBucketWithName(ctx, org, name); err != nil {
		return fmt.Errorf("error creating bucket '%s': %w", name, err)
	}
	r.logger.Info("bucket created", zap.String("bucket", name), zap.String("org", r.org))
	return nil
}

// EnsureBucket creates the snapshot bucket when it does not exist yet.
func (r *InfluxDBRepository) EnsureBucket(ctx context.Context) error {
	exists, err := r.BucketExists(ctx, r.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return r.CreateBucket(ctx, r.bucket)
}

// Close releases the client's resources.
func (r *InfluxDBRepository) Close() {
	r.client.Close()
}
