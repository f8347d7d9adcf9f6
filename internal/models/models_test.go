package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseEmotion(t *testing.T) {
	e, err := ParseEmotion(" Surprised ")
	require.NoError(t, err)
	assert.Equal(t, EmotionSurprised, e)

	_, err = ParseEmotion("bored")
	assert.Error(t, err)
}

func TestEmotionBreakdown(t *testing.T) {
	b := EmotionBreakdown{Happy: 30, Neutral: 50, Surprised: 10, Sad: 5, Angry: 5}

	assert.Equal(t, []EmotionWeight{
		{EmotionHappy, 30},
		{EmotionNeutral, 50},
		{EmotionSurprised, 10},
		{EmotionSad, 5},
		{EmotionAngry, 5},
	}, b.Entries())
	assert.Equal(t, 100.0, b.Total())
	assert.Zero(t, b.Weight(Emotion("bored")))

	c := b.WithWeight(EmotionAngry, 9)
	assert.Equal(t, 9.0, c.Angry)
	assert.Equal(t, 5.0, b.Angry, "WithWeight leaves the receiver alone")
	assert.Equal(t, b, b.WithWeight(Emotion("bored"), 1))
}

func TestChartPoint(t *testing.T) {
	p := NewPairedChartPoint("Now", 28.7, 29.0)
	c := p.Clone()
	*c.Value2 = 1
	assert.Equal(t, 29.0, *p.Value2)

	b, err := json.Marshal(NewChartPoint("10:00", 72))
	require.NoError(t, err)
	assert.JSONEq(t, `{"time":"10:00","value":72}`, string(b))
}

func TestYAMLFieldNamesMatchJSON(t *testing.T) {
	b, err := yaml.Marshal(Snapshot{
		Sensors:    SensorReading{AirQuality: 42},
		Engagement: EngagementSnapshot{AvgEngagement: 78, EmotionBreakdown: EmotionBreakdown{Happy: 30}},
	})
	require.NoError(t, err)

	var decoded struct {
		Sensors    map[string]any `yaml:"sensors"`
		Engagement map[string]any `yaml:"engagement"`
	}
	require.NoError(t, yaml.Unmarshal(b, &decoded))
	assert.EqualValues(t, 42, decoded.Sensors["airQuality"])
	assert.EqualValues(t, 78, decoded.Engagement["avgEngagement"])
	assert.Contains(t, decoded.Engagement, "emotionBreakdown")
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(ErrorCodeNoActiveSession, "nobody is signed in", nil, 409)
	assert.EqualError(t, err, "[no_active_session] nobody is signed in")

	b, jerr := json.Marshal(err)
	require.NoError(t, jerr)
	assert.JSONEq(t, `{"code":"no_active_session","message":"nobody is signed in"}`, string(b))
}
