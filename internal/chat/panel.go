// Package chat keeps the transcript of the classroom assistant chat panel.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smartclassroom/internal/assistant"
	"smartclassroom/internal/logging"
	"smartclassroom/internal/models"
)

// Greeting is the assistant turn every transcript starts with.
const Greeting = "Hello! I am your Smart Classroom Assistant. Ask me about the temperature, engagement levels, or environment quality!"

// ErrEmptyQuery is returned when a submitted message is blank.
var ErrEmptyQuery = errors.New("chat: message must not be empty")

// Responder answers a question about the classroom.
type Responder interface {
	Respond(ctx context.Context, query string, c assistant.Context) string
}

// StateSource provides the live classroom state.
type StateSource interface {
	Snapshot() models.Snapshot
}

// Exchange is the pair of turns produced by one submission.
type Exchange struct {
	User  models.ChatTurn `json:"user"`
	Reply models.ChatTurn `json:"reply"`
}

// Panel owns an append-only transcript. Submissions may overlap; replies are
// appended in the order they complete.
type Panel struct {
	mu    sync.RWMutex
	turns []models.ChatTurn

	inFlight atomic.Int64

	responder Responder
	state     StateSource
	now       func() time.Time
	newID     func() string
	logger    *zap.Logger
}

// Option customises a Panel.
type Option func(*Panel)

// WithClock sets the clock stamping new turns.
func WithClock(now func() time.Time) Option {
	return func(p *Panel) { p.now = now }
}

// WithIDGenerator sets the function producing turn ids.
func WithIDGenerator(newID func() string) Option {
	return func(p *Panel) { p.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Panel) { p.logger = logging.OrNop(l) }
}

// NewPanel creates a panel whose transcript holds only the greeting.
func NewPanel(responder Responder, state StateSource, opts ...Option) *Panel {
	p := &Panel{
		responder: responder,
		state:     state,
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.turns = []models.ChatTurn{p.newTurn(models.SpeakerAssistant, Greeting)}
	return p
}

// Submit appends text as a user turn, asks the assistant about the current
// classroom state and appends its reply.
//
// The request is detached from ctx cancellation: once submitted, the reply is
// always appended.
func (p *Panel) Submit(ctx context.Context, text string) (Exchange, error) {
	if strings.TrimSpace(text) == "" {
		return Exchange{}, ErrEmptyQuery
	}

	user := p.append(models.SpeakerUser, text)

	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)

	snap := p.state.Snapshot()
	p.logger.Debug("chat question submitted", zap.String("turn", user.ID), zap.Int64("inFlight", p.inFlight.Load()))
	answer := p.responder.Respond(context.WithoutCancel(ctx), text, assistant.ContextFromSnapshot(snap))

	reply := p.append(models.SpeakerAssistant, answer)
	return Exchange{User: user, Reply: reply}, nil
}

// Transcript returns every turn, oldest first.
func (p *Panel) Transcript() []models.ChatTurn {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.ChatTurn, len(p.turns))
	copy(out, p.turns)
	return out
}

// InFlight returns the number of submissions awaiting a reply.
func (p *Panel) InFlight() int {
	return int(p.inFlight.Load())
}

// Typing reports whether the assistant is composing at least one reply.
func (p *Panel) Typing() bool {
	return p.InFlight() > 0
}

func (p *Panel) append(speaker models.Speaker, text string) models.ChatTurn {
	t := p.newTurn(speaker, text)
	p.mu.Lock()
	p.turns = append(p.turns, t)
	p.mu.Unlock()
	return t
}

func (p *Panel) newTurn(speaker models.Speaker, text string) models.ChatTurn {
	return models.ChatTurn{
		ID:        p.newID(),
		Speaker:   speaker,
		Text:      text,
		CreatedAt: p.now(),
	}
}
