// Package audit provides structured audit logging for admin operations and
// security-relevant events.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/sanitize"
)

// EventType represents the type of audit event.
type EventType string

const (
	// Admin data changes
	EventLeadUpdated         EventType = "admin.lead.updated"
	EventLeadDeleted         EventType = "admin.lead.deleted"
	EventProjectCreated      EventType = "admin.project.created"
	EventProjectUpdated      EventType = "admin.project.updated"
	EventProjectDeleted      EventType = "admin.project.deleted"
	EventContentUpdated      EventType = "admin.content.updated"
	EventContentDeleted      EventType = "admin.content.deleted"
	EventTrainingPairCreated EventType = "admin.training.created"
	EventTrainingPairUpdated EventType = "admin.training.updated"
	EventTrainingPairDeleted EventType = "admin.training.deleted"
	EventSettingChanged      EventType = "admin.setting.changed"
	EventConversationEnded   EventType = "admin.conversation.ended"

	// Chat pipeline
	EventLeadMaterialized EventType = "chat.lead.materialized"
	EventModelCallFailed  EventType = "chat.model.failed"

	// Authorization
	EventAccessDenied      EventType = "authz.access.denied"
	EventRateLimitExceeded EventType = "authz.ratelimit.exceeded"

	// System lifecycle
	EventServiceStarted  EventType = "system.started"
	EventServiceStopping EventType = "system.stopping"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event represents an audit log entry.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`

	// Source of the event.
	SourceIP  string `json:"source_ip,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	// Resource being accessed or modified.
	ResourceType string `json:"resource_type,omitempty"`
	ResourceID   string `json:"resource_id,omitempty"`

	Action  string `json:"action"`
	Outcome string `json:"outcome"` // "success", "failure", "denied"
	Reason  string `json:"reason,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Logger provides audit logging capabilities. Event metadata and reasons
// pass through the sanitizer before being written; transcripts and
// upstream errors can carry contact details or credentials.
type Logger struct {
	logger    *zap.Logger
	sanitizer *sanitize.Sanitizer
}

// NewLogger creates a new audit logger.
func NewLogger(baseLogger *zap.Logger) *Logger {
	return &Logger{
		logger:    baseLogger.Named("audit"),
		sanitizer: sanitize.NewDefault(),
	}
}

// Log records an audit event.
func (l *Logger) Log(ctx context.Context, event *Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	level := zap.InfoLevel
	switch event.Severity {
	case SeverityWarning:
		level = zap.WarnLevel
	case SeverityError:
		level = zap.ErrorLevel
	}

	var metadataJSON []byte
	if len(event.Metadata) > 0 {
		var err error
		metadataJSON, err = json.Marshal(l.sanitizer.Map(event.Metadata))
		if err != nil {
			metadataJSON = []byte(`{"error":"failed to marshal metadata"}`)
		}
	}

	fields := []zap.Field{
		zap.String("audit_id", event.ID),
		zap.Time("audit_timestamp", event.Timestamp),
		zap.String("event_type", string(event.Type)),
		zap.String("severity", string(event.Severity)),
		zap.String("action", event.Action),
		zap.String("outcome", event.Outcome),
	}
	if event.SourceIP != "" {
		fields = append(fields, zap.String("source_ip", event.SourceIP))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.SessionID != "" {
		fields = append(fields, zap.String("session_id", event.SessionID))
	}
	if event.ResourceType != "" {
		fields = append(fields, zap.String("resource_type", event.ResourceType))
	}
	if event.ResourceID != "" {
		fields = append(fields, zap.String("resource_id", event.ResourceID))
	}
	if event.Reason != "" {
		fields = append(fields, zap.String("reason", l.sanitizer.String(event.Reason)))
	}
	if len(metadataJSON) > 0 {
		fields = append(fields, zap.ByteString("metadata", metadataJSON))
	}

	if ce := l.logger.Check(level, "audit event"); ce != nil {
		ce.Write(fields...)
	}
}

// DataChanged logs an admin mutation of a stored resource.
func (l *Logger) DataChanged(ctx context.Context, eventType EventType, resourceType, resourceID, requestID string, metadata map[string]interface{}) {
	l.Log(ctx, &Event{
		Type:         eventType,
		Severity:     SeverityInfo,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    requestID,
		Action:       string(eventType),
		Outcome:      "success",
		Metadata:     metadata,
	})
}

// LeadMaterialized logs a lead created from a chat conversation.
func (l *Logger) LeadMaterialized(ctx context.Context, leadID, sessionID string, score int) {
	l.Log(ctx, &Event{
		Type:         EventLeadMaterialized,
		Severity:     SeverityInfo,
		ResourceType: "lead",
		ResourceID:   leadID,
		SessionID:    sessionID,
		Action:       "lead materialized from conversation",
		Outcome:      "success",
		Metadata: map[string]interface{}{
			"conversion_score": score,
		},
	})
}

// ModelCallFailed logs a failed language-model call.
func (l *Logger) ModelCallFailed(ctx context.Context, sessionID, requestID, reason string) {
	l.Log(ctx, &Event{
		Type:      EventModelCallFailed,
		Severity:  SeverityError,
		SessionID: sessionID,
		RequestID: requestID,
		Action:    "model completion call",
		Outcome:   "failure",
		Reason:    reason,
	})
}

// AccessDenied logs a rejected admin request.
func (l *Logger) AccessDenied(ctx context.Context, ip, requestID, path, reason string) {
	l.Log(ctx, &Event{
		Type:      EventAccessDenied,
		Severity:  SeverityWarning,
		SourceIP:  ip,
		RequestID: requestID,
		Action:    "access " + path,
		Outcome:   "denied",
		Reason:    reason,
	})
}

// RateLimitExceeded logs a throttled request.
func (l *Logger) RateLimitExceeded(ctx context.Context, identifier, ip, requestID string) {
	l.Log(ctx, &Event{
		Type:      EventRateLimitExceeded,
		Severity:  SeverityWarning,
		SourceIP:  ip,
		RequestID: requestID,
		Action:    "rate limit check",
		Outcome:   "denied",
		Reason:    "limit exceeded for " + identifier,
	})
}

// ServiceStarted logs service startup.
func (l *Logger) ServiceStarted(ctx context.Context, environment string) {
	l.Log(ctx, &Event{
		Type:     EventServiceStarted,
		Severity: SeverityInfo,
		Action:   "service started",
		Outcome:  "success",
		Metadata: map[string]interface{}{
			"environment": environment,
		},
	})
}

// ServiceStopping logs service shutdown.
func (l *Logger) ServiceStopping(ctx context.Context, reason string) {
	l.Log(ctx, &Event{
		Type:     EventServiceStopping,
		Severity: SeverityInfo,
		Action:   "service stopping",
		Outcome:  "success",
		Reason:   reason,
	})
}
