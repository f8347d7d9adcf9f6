package assistant

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"smartclassroom/internal/models"
)

// Context is the classroom state the assistant answers about.
type Context struct {
	Sensors    models.SensorReading
	Engagement models.EngagementSnapshot
}

// ContextFromSnapshot extracts the assistant context from a store snapshot.
func ContextFromSnapshot(s models.Snapshot) Context {
	return Context{Sensors: s.Sensors, Engagement: s.Engagement}
}

// DominantEmotion returns the emotion with the largest weight. Ties go to
// the emotion that comes first in canonical order.
func DominantEmotion(b models.EmotionBreakdown) models.Emotion {
	entries := b.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Weight > entries[j].Weight
	})
	return entries[0].Emotion
}

// BuildSystemPrompt renders the instructions and live classroom data sent
// ahead of the user's question.
func BuildSystemPrompt(c Context) string {
	var sb strings.Builder
	sb.WriteString(`You are the "Smart Classroom Assistant" for DLSUD (De La Salle University - Dasmarinas).
Your goal is to help students, faculty, and admins understand the classroom environment.

Current Real-time Classroom Data:
`)
	fmt.Fprintf(&sb, "- Temperature: %s degrees C (Ideal: 22-26 C)\n", formatFloat(c.Sensors.Temperature))
	fmt.Fprintf(&sb, "- Humidity: %s%% (Ideal: 30-60%%)\n", formatFloat(c.Sensors.Humidity))
	fmt.Fprintf(&sb, "- CO2 Levels: %d ppm\n", c.Sensors.CO2)
	fmt.Fprintf(&sb, "- Light Level: %d lux\n", c.Sensors.Light)
	fmt.Fprintf(&sb, "- Noise Level: %s dBA\n", formatFloat(c.Sensors.Noise))
	fmt.Fprintf(&sb, "- Air Quality Index: %d\n", c.Sensors.AirQuality)

	sb.WriteString("\nEngagement Data:\n")
	fmt.Fprintf(&sb, "- Total Students: %d\n", c.Engagement.TotalStudents)
	fmt.Fprintf(&sb, "- Average Engagement Score: %d%%\n", c.Engagement.AvgEngagement)
	fmt.Fprintf(&sb, "- Predominant Emotion: %s\n", DominantEmotion(c.Engagement.EmotionBreakdown))

	sb.WriteString(`
Instructions:
1. Answer the user's question directly based on the data above.
2. If values are outside ideal ranges (e.g., high temp, high humidity), suggest improvements.
3. Keep responses concise and conversational (under 50 words usually).
4. Be polite and professional.
`)
	return sb.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
