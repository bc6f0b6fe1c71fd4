package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"

	"github.com/LeeSpain/vision-sync-server/internal/audit"
	"github.com/LeeSpain/vision-sync-server/internal/config"
	"github.com/LeeSpain/vision-sync-server/internal/metrics"
	"github.com/LeeSpain/vision-sync-server/internal/qualify"
	"github.com/LeeSpain/vision-sync-server/internal/service"
)

func newChatTestServer(t *testing.T, completer *stubCompleter) *chi.Mux {
	t.Helper()
	logger := zaptest.NewLogger(t)

	chatService := service.NewChatService(
		newStubConversationRepo(),
		newStubLeadRepo(),
		newStubAgentRepo(),
		newStubProjectRepo(),
		service.NewSettingsService(newStubSettingsRepo(), logger),
		completer,
		qualify.NewRegexExtractor(),
		nil,
		nil,
		config.ChatConfig{MaxReplyWords: 120, ContactAskThreshold: 2, HistoryWindow: 10, MaxMessageLength: 4000},
		metrics.NewMetricsWithRegistry(prometheus.NewRegistry()),
		audit.NewLogger(logger),
		logger,
	)

	r := chi.NewRouter()
	NewChatHandler(chatService, logger).RegisterRoutes(r)
	return r
}

func TestChatHandler_HandleChat(t *testing.T) {
	router := newChatTestServer(t, &stubCompleter{reply: "Hello from the agent."})

	body := `{"message": "Tell me about your projects", "sessionId": "s-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp service.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Response != "Hello from the agent." {
		t.Errorf("Response = %q", resp.Response)
	}
	if resp.SessionID != "s-1" {
		t.Errorf("SessionID = %q", resp.SessionID)
	}
}

func TestChatHandler_HandleChat_EmptyMessage(t *testing.T) {
	router := newChatTestServer(t, &stubCompleter{})

	body := `{"message": "", "sessionId": "s-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChatHandler_HandleChat_MalformedJSON(t *testing.T) {
	router := newChatTestServer(t, &stubCompleter{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChatHandler_HandleChat_ModelFailureCarriesFallback(t *testing.T) {
	router := newChatTestServer(t, &stubCompleter{err: errors.New("upstream timeout")})

	body := `{"message": "hello", "sessionId": "s-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code < 500 {
		t.Errorf("status = %d, want 5xx", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Response != service.FallbackResponse {
		t.Errorf("Response = %q, want the fallback text", resp.Response)
	}
	if resp.Error == "" {
		t.Error("Error field is empty")
	}
}
