package domain

import (
	"time"

	"github.com/google/uuid"
)

// Agent is the configurable persona behind the chat widget.
type Agent struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	Personality    string    `json:"personality,omitempty"`
	WelcomeMessage string    `json:"welcome_message,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TrainingPair is a curated question/answer row embedded into the agent's
// system prompt as grounding material.
type TrainingPair struct {
	ID        uuid.UUID  `json:"id"`
	AgentID   *uuid.UUID `json:"agent_id,omitempty"`
	Question  string     `json:"question"`
	Answer    string     `json:"answer"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewTrainingPair creates an active training pair.
func NewTrainingPair(question, answer string, agentID *uuid.UUID) *TrainingPair {
	now := time.Now().UTC()
	return &TrainingPair{
		ID:        uuid.New(),
		AgentID:   agentID,
		Question:  question,
		Answer:    answer,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
