package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"smartclassroom/internal/models"
)

func TestDominantEmotion(t *testing.T) {
	tests := []struct {
		name string
		in   models.EmotionBreakdown
		want models.Emotion
	}{
		{"default mix", models.EmotionBreakdown{Happy: 30, Neutral: 50, Surprised: 10, Sad: 5, Angry: 5}, models.EmotionNeutral},
		{"clear winner", models.EmotionBreakdown{Happy: 1, Neutral: 2, Surprised: 3, Sad: 4, Angry: 9}, models.EmotionAngry},
		{"tie goes to first in order", models.EmotionBreakdown{Happy: 10, Neutral: 40, Surprised: 40, Sad: 40}, models.EmotionNeutral},
		{"all zero", models.EmotionBreakdown{}, models.EmotionHappy},
		{"late tie", models.EmotionBreakdown{Sad: 7, Angry: 7}, models.EmotionSad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DominantEmotion(tt.in))
			assert.Equal(t, tt.want, DominantEmotion(tt.in), "same input, same answer")
		})
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(defaultContext())

	assert.True(t, strings.HasPrefix(prompt, `You are the "Smart Classroom Assistant" for DLSUD (De La Salle University - Dasmarinas).`+"\n"), prompt)
	for _, want := range []string{
		"Your goal is to help students, faculty, and admins understand the classroom environment.",
		"- Temperature: 28.7 degrees C (Ideal: 22-26 C)",
		"- Humidity: 74.9% (Ideal: 30-60%)",
		"- CO2 Levels: 800 ppm",
		"- Light Level: 450 lux",
		"- Noise Level: 47.5 dBA",
		"- Air Quality Index: 136",
		"- Total Students: 32",
		"- Average Engagement Score: 78%",
		"- Predominant Emotion: neutral",
	} {
		assert.Contains(t, prompt, want)
	}
}
