package audit

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(t *testing.T) (*Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	return NewLogger(zap.New(core)), logs
}

func TestLog_FillsIDAndTimestamp(t *testing.T) {
	logger, logs := newObservedLogger(t)

	logger.Log(context.Background(), &Event{
		Type:    EventSettingChanged,
		Action:  "update setting",
		Outcome: "success",
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["audit_id"] == "" {
		t.Error("expected audit_id to be generated")
	}
	if fields["event_type"] != string(EventSettingChanged) {
		t.Errorf("unexpected event_type %v", fields["event_type"])
	}
}

func TestLog_SeverityMapsToLevel(t *testing.T) {
	logger, logs := newObservedLogger(t)

	logger.Log(context.Background(), &Event{
		Type:     EventModelCallFailed,
		Severity: SeverityError,
		Action:   "model call",
		Outcome:  "failure",
	})
	logger.Log(context.Background(), &Event{
		Type:     EventAccessDenied,
		Severity: SeverityWarning,
		Action:   "access",
		Outcome:  "denied",
	})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zap.ErrorLevel {
		t.Errorf("expected error level, got %v", entries[0].Level)
	}
	if entries[1].Level != zap.WarnLevel {
		t.Errorf("expected warn level, got %v", entries[1].Level)
	}
}

func TestLeadMaterialized(t *testing.T) {
	logger, logs := newObservedLogger(t)

	logger.LeadMaterialized(context.Background(), "lead-1", "sess-1", 80)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["resource_id"] != "lead-1" {
		t.Errorf("expected resource_id lead-1, got %v", fields["resource_id"])
	}
	if fields["session_id"] != "sess-1" {
		t.Errorf("expected session_id sess-1, got %v", fields["session_id"])
	}
}

func TestAccessDenied(t *testing.T) {
	logger, logs := newObservedLogger(t)

	logger.AccessDenied(context.Background(), "10.0.0.1", "req-1", "/admin/api/leads", "invalid token")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Errorf("expected warn level, got %v", entries[0].Level)
	}
	fields := entries[0].ContextMap()
	if fields["outcome"] != "denied" {
		t.Errorf("expected outcome denied, got %v", fields["outcome"])
	}
}
