package simulator

import (
	"fmt"
	"math/rand/v2"

	"smartclassroom/internal/models"
)

// HistoryCapacity is the number of engagement points kept in the rolling window.
const HistoryCapacity = 10

// Per-tick jitter widths. Each field moves by at most its delta per tick.
const (
	TemperatureDelta = 0.2
	HumidityDelta    = 0.5
	CO2Delta         = 10
	LightDelta       = 5
	NoiseDelta       = 1
	AirQualityDelta  = 2
	EngagementDelta  = 3
)

// emotionJitter is the per-tick jitter width of each emotion weight.
var emotionJitter = map[models.Emotion]float64{
	models.EmotionHappy:     2,
	models.EmotionNeutral:   2,
	models.EmotionSurprised: 1,
	models.EmotionSad:       1,
	models.EmotionAngry:     0.5,
}

// EmotionDelta returns the per-tick jitter width of e.
func EmotionDelta(e models.Emotion) float64 {
	return emotionJitter[e]
}

// DefaultSensors is the baseline sensor reading.
func DefaultSensors() models.SensorReading {
	return models.SensorReading{
		Temperature: 28.7,
		Humidity:    74.9,
		CO2:         800,
		Light:       450,
		Noise:       47.5,
		AirQuality:  136,
	}
}

// DefaultEngagement is the baseline engagement snapshot.
func DefaultEngagement() models.EngagementSnapshot {
	return models.EngagementSnapshot{
		TotalStudents:   32,
		AvgEngagement:   78,
		OccupancyStatus: models.OccupancyHigh,
		EmotionBreakdown: models.EmotionBreakdown{
			Happy:     30,
			Neutral:   50,
			Surprised: 10,
			Sad:       5,
			Angry:     5,
		},
	}
}

// DefaultForecast is the temperature forecast shown next to the live readings.
// It is generated once and never updated.
func DefaultForecast() []models.ChartPoint {
	return []models.ChartPoint{
		models.NewPairedChartPoint("Now", 28.7, 29.0),
		models.NewPairedChartPoint("+5m", 28.9, 29.2),
		models.NewPairedChartPoint("+10m", 29.1, 29.5),
		models.NewPairedChartPoint("+15m", 29.0, 29.3),
	}
}

// syntheticHistory fills the window with hourly points from 10:00 with
// engagement drawn uniformly from [60, 90).
func syntheticHistory(rng *rand.Rand) []models.ChartPoint {
	history := make([]models.ChartPoint, 0, HistoryCapacity)
	for i := range HistoryCapacity {
		history = append(history, models.NewChartPoint(fmt.Sprintf("%d:00", 10+i), 60+rng.Float64()*30))
	}
	return history
}
