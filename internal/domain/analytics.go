package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsEventType classifies raw site events.
type AnalyticsEventType string

const (
	AnalyticsEventPageView   AnalyticsEventType = "page_view"
	AnalyticsEventConversion AnalyticsEventType = "conversion"
)

// AnalyticsEvent is one raw event row recorded by the marketing site.
// The dashboard aggregators reduce these into display metrics; events are
// never mutated after insert.
type AnalyticsEvent struct {
	ID        uuid.UUID              `json:"id"`
	EventType AnalyticsEventType     `json:"event_type"`
	Page      string                 `json:"page,omitempty"`
	ProjectID *uuid.UUID             `json:"project_id,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewAnalyticsEvent creates an event stamped with the current time.
func NewAnalyticsEvent(eventType AnalyticsEventType, page, sessionID string) *AnalyticsEvent {
	return &AnalyticsEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Page:      page,
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
	}
}

// ValidAnalyticsEventType reports whether t is a known event type.
func ValidAnalyticsEventType(t AnalyticsEventType) bool {
	return t == AnalyticsEventPageView || t == AnalyticsEventConversion
}
