package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one entry of a chat's ordered conversation history.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Chat is a conversation session belonging to exactly one user. The history
// is persisted as an opaque serialized string; owner never changes.
type Chat struct {
	ID        string
	OwnerID   string
	Messages  string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Ticket is the zero-or-one escalation attached to this chat,
	// populated by joined reads.
	Ticket *Ticket
}

// History decodes the chat's serialized message history.
func (c *Chat) History() ([]Message, error) {
	return DecodeHistory(c.Messages)
}

// EncodeHistory serializes an ordered message history for storage.
func EncodeHistory(history []Message) (string, error) {
	if history == nil {
		history = []Message{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("encode history: %w", err)
	}
	return string(raw), nil
}

// DecodeHistory parses a serialized message history.
func DecodeHistory(serialized string) ([]Message, error) {
	if serialized == "" {
		return []Message{}, nil
	}
	var history []Message
	if err := json.Unmarshal([]byte(serialized), &history); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return history, nil
}
