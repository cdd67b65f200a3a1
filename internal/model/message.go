package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MessageKind identifies the variant of a message received from the
// remote assistant. The engine handles each kind exhaustively.
type MessageKind string

const (
	KindText        MessageKind = "text"
	KindToolUse     MessageKind = "tool-use"
	KindToolResult  MessageKind = "tool-result"
	KindFinalResult MessageKind = "final-result"
	KindError       MessageKind = "error"
)

// Valid reports whether k is a known message kind.
func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindToolUse, KindToolResult, KindFinalResult, KindError:
		return true
	}
	return false
}

// Message is one unit received from the remote assistant during a turn.
type Message struct {
	// Identity
	ID string `json:"id"`

	// Content
	Kind    MessageKind `json:"kind"`
	Role    Role        `json:"role"`
	Content string      `json:"content,omitempty"`

	// Tool payloads, set only for tool-use / tool-result kinds.
	ToolName  string          `json:"tool_name,omitempty"`
	ToolInput json.RawMessage `json:"tool_input,omitempty"`

	// Sequence is the monotonic index within the conversation.
	// Sequence numbers are strictly increasing and gap-free.
	Sequence int `json:"sequence"`

	// LLM metadata (nullable for non-assistant messages)
	Model      *string `json:"model,omitempty"`
	TokensIn   *int    `json:"tokens_in,omitempty"`
	TokensOut  *int    `json:"tokens_out,omitempty"`
	LatencyMs  *int64  `json:"latency_ms,omitempty"`
	StopReason *string `json:"stop_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ValidateSequence checks that msgs carry strictly increasing, gap-free
// sequence numbers starting at next. A violation means the remote stream
// was reordered or duplicated.
func ValidateSequence(msgs []Message, next int) error {
	for i, m := range msgs {
		if !m.Kind.Valid() {
			return fmt.Errorf("message %d: unknown kind %q", i, m.Kind)
		}
		if m.Sequence != next {
			return fmt.Errorf("message %d: sequence %d, want %d", i, m.Sequence, next)
		}
		next++
	}
	return nil
}
