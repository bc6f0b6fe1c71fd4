// Package handler provides the HTTP surface: the public chat and site
// endpoints, the admin JSON API, and the ops probes.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/LeeSpain/vision-sync-server/internal/errors"
	"github.com/LeeSpain/vision-sync-server/internal/middleware"
	"github.com/LeeSpain/vision-sync-server/internal/repository"
	"github.com/LeeSpain/vision-sync-server/internal/service"
)

// maxBodyBytes caps JSON request bodies. Chat payloads carry at most a
// message plus a short widget-side history.
const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON shape of every error this API returns.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// Response carries the fallback text the chat widget should display
	// when the model call failed. Empty on every other error.
	Response string `json:"response,omitempty"`
}

// JSON writes a JSON response, echoing the request ID header when present.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if reqID := middleware.GetRequestID(r.Context()); reqID != "" {
		w.Header().Set("X-Request-ID", reqID)
	}
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// APIError writes an error response with an explicit status and message.
func APIError(w http.ResponseWriter, r *http.Request, status int, message string) {
	JSON(w, r, status, ErrorResponse{
		Error:     message,
		RequestID: middleware.GetRequestID(r.Context()),
	})
}

// ServiceError maps a service-layer error onto the wire. Model failures
// additionally carry the widget fallback text so the frontend always has
// something to render.
func ServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := apperrors.GetHTTPStatus(err)
	code := apperrors.GetCode(err)

	if errors.Is(err, repository.ErrNotFound) {
		status = http.StatusNotFound
		code = apperrors.CodeNotFound
	}

	resp := ErrorResponse{
		Error:     publicMessage(err, status),
		Code:      string(code),
		RequestID: middleware.GetRequestID(r.Context()),
	}
	if code == apperrors.CodeModelUnavailable {
		resp.Response = service.FallbackResponse
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	JSON(w, r, status, resp)
}

// publicMessage keeps internal error detail out of 5xx responses.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// DecodeJSON reads a capped JSON body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.ValidationFailed("request body is empty")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.ValidationFailed(fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		}
		return apperrors.ValidationFailed("request body is not valid JSON")
	}
	return nil
}

// URLParamUUID parses a chi URL parameter as a UUID.
func URLParamUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationFailed(fmt.Sprintf("%s is not a valid UUID", name))
	}
	return id, nil
}
