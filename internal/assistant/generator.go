package assistant

import "context"

// Model is the text-generation model every request is sent to.
const Model = "gemini-3-flash-preview"

// Turn roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one message sent to the text-generation backend.
type Turn struct {
	Role string
	Text string
}

// Generator is an external text-generation capability.
type Generator interface {
	Generate(ctx context.Context, model string, turns []Turn) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, model string, turns []Turn) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, model string, turns []Turn) (string, error) {
	return f(ctx, model, turns)
}
