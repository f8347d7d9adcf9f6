package models

import "time"

// ChartPoint is one sample of a dashboard chart series.
type ChartPoint struct {
	Label  string   `json:"time" yaml:"time"`
	Value  float64  `json:"value" yaml:"value"`
	Value2 *float64 `json:"value2,omitempty" yaml:"value2,omitempty"`
}

// NewChartPoint builds a single-series point.
func NewChartPoint(label string, value float64) ChartPoint {
	return ChartPoint{Label: label, Value: value}
}

// NewPairedChartPoint builds a point carrying a secondary series value.
func NewPairedChartPoint(label string, value, value2 float64) ChartPoint {
	return ChartPoint{Label: label, Value: value, Value2: &value2}
}

// Clone returns a copy that shares no memory with p.
func (p ChartPoint) Clone() ChartPoint {
	if p.Value2 != nil {
		v := *p.Value2
		p.Value2 = &v
	}
	return p
}

// Snapshot is the state of the classroom at one instant.
type Snapshot struct {
	Sensors    SensorReading      `json:"sensors" yaml:"sensors"`
	Engagement EngagementSnapshot `json:"engagement" yaml:"engagement"`
	Timestamp  time.Time          `json:"timestamp" yaml:"timestamp"`
}
