// Package domain contains the core business entities and interfaces.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConversationStatus represents the lifecycle state of a chat conversation.
type ConversationStatus string

const (
	ConversationStatusActive ConversationStatus = "active"
	ConversationStatusEnded  ConversationStatus = "ended"
)

// Turn is a single message in a conversation, from either side.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the persisted state of one chat-widget session.
// A browser session owns exactly one conversation, keyed by its
// client-generated session ID.
type Conversation struct {
	ID              uuid.UUID          `json:"id"`
	SessionID       string             `json:"session_id"`
	AgentID         *uuid.UUID         `json:"agent_id,omitempty"`
	Turns           []Turn             `json:"turns"`
	Status          ConversationStatus `json:"status"`
	LeadQualified   bool               `json:"lead_qualified"`
	ConversionScore int                `json:"conversion_score"`
	LeadID          *uuid.UUID         `json:"lead_id,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewConversation creates an active conversation for a session.
func NewConversation(sessionID string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:        uuid.New(),
		SessionID: sessionID,
		Status:    ConversationStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendTurn adds a message to the end of the turn history.
func (c *Conversation) AppendTurn(role, content string) {
	c.Turns = append(c.Turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// RecentTurns returns the last n turns, or all of them if fewer exist.
func (c *Conversation) RecentTurns(n int) []Turn {
	if n <= 0 || len(c.Turns) <= n {
		return c.Turns
	}
	return c.Turns[len(c.Turns)-n:]
}

// HasLead returns true once a lead has been materialized for this session.
// The reference is never overwritten after it is first set.
func (c *Conversation) HasLead() bool {
	return c.LeadID != nil
}

// UserTurnCount returns the number of visitor messages in the history.
func (c *Conversation) UserTurnCount() int {
	count := 0
	for _, t := range c.Turns {
		if t.Role == "user" {
			count++
		}
	}
	return count
}

// End marks the conversation as ended.
func (c *Conversation) End() {
	c.Status = ConversationStatusEnded
	c.UpdatedAt = time.Now().UTC()
}

// ConversationListFilter defines optional filters for listing conversations.
type ConversationListFilter struct {
	Status    *ConversationStatus
	Qualified *bool
}
