package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/service"
)

// ChatHandler serves the public chat widget endpoint.
type ChatHandler struct {
	chat   *service.ChatService
	logger *zap.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat *service.ChatService, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		panic("logger is required")
	}
	return &ChatHandler{chat: chat, logger: logger}
}

// RegisterRoutes registers the chat route on the router.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.HandleChat)
}

// HandleChat processes one widget message and returns the model's reply
// with qualification state.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req service.ChatRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	resp, err := h.chat.HandleMessage(r.Context(), &req)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, resp)
}
