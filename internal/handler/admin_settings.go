package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/LeeSpain/vision-sync-server/internal/domain"
	apperrors "github.com/LeeSpain/vision-sync-server/internal/errors"
)

// ChatSettingsRequest is the body for the chat settings form. The stored
// values override process configuration for the keys they cover.
type ChatSettingsRequest struct {
	BusinessName   string `json:"business_name"`
	WelcomeMessage string `json:"welcome_message"`
	ModelAPIKey    string `json:"model_api_key"`
	ModelName      string `json:"model_name"`
	MaxReplyWords  int    `json:"max_reply_words"`
}

// SettingValueRequest is the body for a single setting write.
type SettingValueRequest struct {
	Value string `json:"value"`
}

// HandleGetSettings returns every stored setting plus the effective chat
// settings. The model credential is masked on the way out.
func (h *AdminHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.GetAllSettings(r.Context())
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	chatSettings, err := h.settings.GetChatSettings(r.Context())
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	masked := make([]*domain.Setting, 0, len(settings))
	for _, s := range settings {
		if s.Key == domain.SettingKeyModelAPIKey {
			s = &domain.Setting{Key: s.Key, Value: maskSecret(s.Value)}
		}
		masked = append(masked, s)
	}

	JSON(w, r, http.StatusOK, map[string]interface{}{
		"settings": masked,
		"chat": map[string]interface{}{
			"business_name":   chatSettings.BusinessName,
			"welcome_message": chatSettings.WelcomeMessage,
			"model_api_key":   maskSecret(chatSettings.ModelAPIKey),
			"model_name":      chatSettings.ModelName,
			"max_reply_words": chatSettings.MaxReplyWords,
		},
	})
}

// HandleSaveChatSettings stores the chat settings form.
func (h *AdminHandler) HandleSaveChatSettings(w http.ResponseWriter, r *http.Request) {
	var req ChatSettingsRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	if req.MaxReplyWords < 0 {
		ServiceError(w, r, h.logger, apperrors.ValidationFailed("max_reply_words must not be negative"))
		return
	}

	settings := &domain.ChatSettings{
		BusinessName:   req.BusinessName,
		WelcomeMessage: req.WelcomeMessage,
		ModelAPIKey:    req.ModelAPIKey,
		ModelName:      req.ModelName,
		MaxReplyWords:  req.MaxReplyWords,
	}
	if err := h.settings.SaveChatSettings(r.Context(), settings); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, map[string]string{"status": "saved"})
}

// HandleSetSetting writes one setting by key.
func (h *AdminHandler) HandleSetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req SettingValueRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	if err := h.settings.Set(r.Context(), key, req.Value); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, map[string]string{"status": "saved"})
}

// HandleDeleteSetting removes a setting, restoring configured defaults.
func (h *AdminHandler) HandleDeleteSetting(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

// maskSecret hides all but the last four characters of a credential.
func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}
