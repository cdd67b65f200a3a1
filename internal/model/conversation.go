// Package model defines data structures for the design assistant core.
package model

import (
	"time"
)

// Mode selects how the conversation engine drives the session.
type Mode string

const (
	ModeInteractive    Mode = "interactive"
	ModeNonInteractive Mode = "non-interactive"
)

// TurnStatus is the terminal state of one turn.
type TurnStatus string

const (
	TurnCompleted TurnStatus = "completed"
	TurnFailed    TurnStatus = "failed"
	TurnTimedOut  TurnStatus = "timed_out"
)

// ConversationStatus is the state of the conversation as a whole.
type ConversationStatus string

const (
	StatusActive    ConversationStatus = "active"
	StatusCompleted ConversationStatus = "completed"
	StatusExhausted ConversationStatus = "exhausted"
	StatusCancelled ConversationStatus = "cancelled"
	StatusFailed    ConversationStatus = "failed"
)

// Turn is one round of prompt sent and messages received. A turn is
// created when its prompt is dispatched and closed when a final-result or
// error message is observed, or on timeout/cancellation.
type Turn struct {
	Prompt    string     `json:"prompt"`
	Messages  []Message  `json:"messages"`
	Status    TurnStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   time.Time  `json:"ended_at"`
}

// Conversation is the top-level aggregate: the ordered turn log plus the
// design record being built and session metadata. The conversation engine
// exclusively owns and mutates it for the session's lifetime; the
// transcript store only reads snapshots.
type Conversation struct {
	ID            string             `json:"id"`
	StartedAt     time.Time          `json:"started_at"`
	Mode          Mode               `json:"mode"`
	MaxTurns      int                `json:"max_turns"`
	Status        ConversationStatus `json:"status"`
	InitialPrompt string             `json:"initial_prompt"`
	Turns         []Turn             `json:"turns"`
	Record        DesignRecord       `json:"design_record"`
}

// MessageCount returns the total number of messages across all turns.
func (c *Conversation) MessageCount() int {
	n := 0
	for _, t := range c.Turns {
		n += len(t.Messages)
	}
	return n
}

// NextSequence returns the sequence number the next received message
// must carry.
func (c *Conversation) NextSequence() int {
	return c.MessageCount()
}

// Terminal reports whether the conversation has reached a terminal
// status and must not be mutated further.
func (c *Conversation) Terminal() bool {
	return c.Status != StatusActive
}
