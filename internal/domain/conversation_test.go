package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewConversation(t *testing.T) {
	conv := NewConversation("session-abc")

	if conv.SessionID != "session-abc" {
		t.Errorf("expected session ID session-abc, got %s", conv.SessionID)
	}
	if conv.Status != ConversationStatusActive {
		t.Errorf("expected status active, got %s", conv.Status)
	}
	if conv.HasLead() {
		t.Error("new conversation should not reference a lead")
	}
	if conv.ConversionScore != 0 {
		t.Errorf("expected zero score, got %d", conv.ConversionScore)
	}
}

func TestConversation_AppendTurn(t *testing.T) {
	conv := NewConversation("session-abc")
	conv.AppendTurn("user", "hello")
	conv.AppendTurn("assistant", "hi there")

	if len(conv.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(conv.Turns))
	}
	if conv.Turns[0].Role != "user" || conv.Turns[1].Role != "assistant" {
		t.Error("turns not appended in order")
	}
	if conv.Turns[0].Timestamp.IsZero() {
		t.Error("expected turn timestamp to be set")
	}
}

func TestConversation_RecentTurns(t *testing.T) {
	conv := NewConversation("session-abc")
	for i := 0; i < 15; i++ {
		conv.AppendTurn("user", "msg")
	}

	recent := conv.RecentTurns(10)
	if len(recent) != 10 {
		t.Errorf("expected 10 recent turns, got %d", len(recent))
	}

	all := conv.RecentTurns(0)
	if len(all) != 15 {
		t.Errorf("expected all 15 turns for n=0, got %d", len(all))
	}

	short := NewConversation("s")
	short.AppendTurn("user", "only")
	if len(short.RecentTurns(10)) != 1 {
		t.Error("expected full history when shorter than n")
	}
}

func TestConversation_UserTurnCount(t *testing.T) {
	conv := NewConversation("session-abc")
	conv.AppendTurn("user", "one")
	conv.AppendTurn("assistant", "reply")
	conv.AppendTurn("user", "two")

	if got := conv.UserTurnCount(); got != 2 {
		t.Errorf("expected 2 user turns, got %d", got)
	}
}

func TestConversation_HasLead(t *testing.T) {
	conv := NewConversation("session-abc")
	id := uuid.New()
	conv.LeadID = &id

	if !conv.HasLead() {
		t.Error("expected HasLead after setting reference")
	}
}

func TestConversation_End(t *testing.T) {
	conv := NewConversation("session-abc")
	conv.End()

	if conv.Status != ConversationStatusEnded {
		t.Errorf("expected status ended, got %s", conv.Status)
	}
}
