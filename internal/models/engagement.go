package models

import (
	"fmt"
	"strings"
)

// OccupancyStatus is the coarse occupancy level of the room.
type OccupancyStatus string

const (
	OccupancyLow    OccupancyStatus = "Low"
	OccupancyMedium OccupancyStatus = "Medium"
	OccupancyHigh   OccupancyStatus = "High"
)

// Emotion is a facial-expression category reported by the engagement camera.
type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionNeutral   Emotion = "neutral"
	EmotionSurprised Emotion = "surprised"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
)

// Emotions lists every category in canonical order.
var Emotions = []Emotion{EmotionHappy, EmotionNeutral, EmotionSurprised, EmotionSad, EmotionAngry}

// ParseEmotion resolves a category name, ignoring case.
func ParseEmotion(s string) (Emotion, error) {
	for _, e := range Emotions {
		if strings.EqualFold(string(e), strings.TrimSpace(s)) {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown emotion %q", s)
}

// EmotionWeight pairs a category with its weight.
type EmotionWeight struct {
	Emotion Emotion `json:"emotion" yaml:"emotion"`
	Weight  float64 `json:"weight" yaml:"weight"`
}

// EmotionBreakdown holds one weight per emotion. Weights are not required
// to sum to 100.
type EmotionBreakdown struct {
	Happy     float64 `json:"happy" yaml:"happy"`
	Neutral   float64 `json:"neutral" yaml:"neutral"`
	Surprised float64 `json:"surprised" yaml:"surprised"`
	Sad       float64 `json:"sad" yaml:"sad"`
	Angry     float64 `json:"angry" yaml:"angry"`
}

// Weight returns the weight of e, or zero for an unknown category.
func (b EmotionBreakdown) Weight(e Emotion) float64 {
	if p := b.field(e); p != nil {
		return *p
	}
	return 0
}

// WithWeight returns a copy of b with e set to w.
func (b EmotionBreakdown) WithWeight(e Emotion, w float64) EmotionBreakdown {
	if p := b.field(e); p != nil {
		*p = w
	}
	return b
}

// Entries enumerates the weights in canonical order.
func (b EmotionBreakdown) Entries() []EmotionWeight {
	out := make([]EmotionWeight, 0, len(Emotions))
	for _, e := range Emotions {
		out = append(out, EmotionWeight{Emotion: e, Weight: b.Weight(e)})
	}
	return out
}

// Total is the sum of all weights.
func (b EmotionBreakdown) Total() float64 {
	return b.Happy + b.Neutral + b.Surprised + b.Sad + b.Angry
}

func (b *EmotionBreakdown) field(e Emotion) *float64 {
	switch e {
	case EmotionHappy:
		return &b.Happy
	case EmotionNeutral:
		return &b.Neutral
	case EmotionSurprised:
		return &b.Surprised
	case EmotionSad:
		return &b.Sad
	case EmotionAngry:
		return &b.Angry
	}
	return nil
}

// EngagementSnapshot summarises student engagement in the room.
type EngagementSnapshot struct {
	TotalStudents    int              `json:"totalStudents" yaml:"totalStudents"`
	AvgEngagement    int              `json:"avgEngagement" yaml:"avgEngagement"` // 0-100
	OccupancyStatus  OccupancyStatus  `json:"occupancyStatus" yaml:"occupancyStatus"`
	EmotionBreakdown EmotionBreakdown `json:"emotionBreakdown" yaml:"emotionBreakdown"`
}
