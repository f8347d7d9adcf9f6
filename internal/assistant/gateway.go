// Package assistant turns a classroom question plus the live classroom state
// into a single request to an external text-generation model.
//
// The gateway never fails: every outcome, including a missing credential or a
// transport error, is a string the chat panel can display.
package assistant

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"smartclassroom/internal/config"
	"smartclassroom/internal/logging"
)

// Fixed replies.
const (
	MissingKeyResponse = "Simulated Response: API Key is missing. Please configure GEMINI_API_KEY in the server environment."
	EmptyResponse      = "I'm having trouble analyzing the data right now."
	ErrorResponse      = "I encountered an error connecting to the smart classroom brain. Please try again."
)

// Gateway answers classroom questions. A Gateway without a generator runs in
// degraded mode.
type Gateway struct {
	generator Generator
	timeout   time.Duration
	logger    *zap.Logger
}

// GatewayOption customises a Gateway.
type GatewayOption func(*Gateway)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.timeout = d }
}

// WithLogger sets the logger used to report failures.
func WithLogger(l *zap.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = logging.OrNop(l) }
}

// NewGateway creates a gateway sending requests to gen. A nil gen yields a
// degraded gateway.
func NewGateway(gen Generator, opts ...GatewayOption) *Gateway {
	g := &Gateway{generator: gen, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewFromConfig builds the gateway described by cfg. Without an API key the
// gateway is degraded and no client is created.
func NewFromConfig(ctx context.Context, cfg config.AssistantConfig, logger *zap.Logger) (*Gateway, error) {
	logger = logging.OrNop(logger)
	opts := []GatewayOption{WithTimeout(cfg.Timeout), WithLogger(logger)}

	if cfg.APIKey == "" {
		logger.Info("assistant running in degraded mode: no API key configured")
		return NewGateway(nil, opts...), nil
	}

	switch cfg.Transport {
	case config.TransportREST:
		return NewGateway(NewRESTGenerator(cfg.BaseURL, cfg.APIKey, cfg.Timeout), opts...), nil
	case config.TransportSDK, "":
		gen, err := NewGenAIGenerator(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return NewGateway(gen, opts...), nil
	default:
		return nil, fmt.Errorf("unknown assistant transport %q", cfg.Transport)
	}
}

// Degraded reports whether the gateway answers with the placeholder reply.
func (g *Gateway) Degraded() bool {
	return g.generator == nil
}

// Respond answers query using the classroom state in c. query must be
// non-empty; callers trim and validate it.
func (g *Gateway) Respond(ctx context.Context, query string, c Context) (reply string) {
	if g.generator == nil {
		return MissingKeyResponse
	}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("assistant request panicked", zap.Any("panic", r))
			reply = ErrorResponse
		}
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	turns := []Turn{
		{Role: RoleUser, Text: BuildSystemPrompt(c)},
		{Role: RoleUser, Text: query},
	}
	start := time.Now()
	text, err := g.generator.Generate(ctx, Model, turns)
	if err != nil {
		g.logger.Error("assistant request failed",
			zap.String("model", Model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return ErrorResponse
	}
	if text == "" {
		g.logger.Warn("assistant returned an empty answer", zap.String("model", Model))
		return EmptyResponse
	}

	g.logger.Debug("assistant answered",
		zap.String("model", Model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(text)))
	return text
}
