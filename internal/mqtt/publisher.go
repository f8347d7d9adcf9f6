package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"smartclassroom/internal/logging"
	"smartclassroom/internal/models"
)

// ClassroomPlaceholder is replaced by the classroom id in topic patterns.
const ClassroomPlaceholder = "{classroom}"

// QoS is the delivery guarantee of snapshot messages: at least once.
const QoS byte = 1

// TokenPublisher is the part of mqtt.Client used by Publisher.
type TokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Message is the payload broadcast for every snapshot.
type Message struct {
	Classroom string `json:"classroom"`
	models.Snapshot
}

// Publisher sends snapshots of one classroom.
type Publisher struct {
	client    TokenPublisher
	topic     string
	classroom string
	logger    *zap.Logger
}

// NewPublisher creates a publisher writing to topicPattern with the
// classroom placeholder filled in.
func NewPublisher(client TokenPublisher, topicPattern, classroomID string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:    client,
		topic:     formatTopic(topicPattern, classroomID),
		classroom: classroomID,
		logger:    logging.OrNop(logger),
	}
}

// Topic returns the resolved topic.
func (p *Publisher) Topic() string {
	return p.topic
}

// PublishSnapshot publishes snap and waits for the broker to acknowledge it
// or ctx to end.
func (p *Publisher) PublishSnapshot(ctx context.Context, snap models.Snapshot) error {
	payload, err := json.Marshal(Message{Classroom: p.classroom, Snapshot: snap})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	token := p.client.Publish(p.topic, QoS, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}

	p.logger.Debug("snapshot published", zap.String("topic", p.topic))
	return nil
}

func formatTopic(pattern, classroomID string) string {
	return strings.ReplaceAll(pattern, ClassroomPlaceholder, classroomID)
}
