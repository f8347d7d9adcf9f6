package models

import "time"

// Speaker identifies the author of a chat turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// ChatTurn is one message of the chat transcript.
type ChatTurn struct {
	ID        string    `json:"id" yaml:"id"`
	Speaker   Speaker   `json:"role" yaml:"role"`
	Text      string    `json:"text" yaml:"text"`
	CreatedAt time.Time `json:"timestamp" yaml:"timestamp"`
}
