package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/domain"
	apperrors "github.com/LeeSpain/vision-sync-server/internal/errors"
	"github.com/LeeSpain/vision-sync-server/internal/metrics"
)

// ChangeNotifier receives a signal when dashboard-relevant rows change.
type ChangeNotifier interface {
	Notify()
}

// AnalyticsService ingests raw site events. Append-only; reduction happens
// in the dashboard service.
type AnalyticsService struct {
	repo     domain.AnalyticsRepository
	notifier ChangeNotifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(repo domain.AnalyticsRepository, notifier ChangeNotifier, m *metrics.Metrics, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// RecordEventRequest is one inbound event from the marketing site.
type RecordEventRequest struct {
	EventType domain.AnalyticsEventType `json:"event_type"`
	Page      string                    `json:"page,omitempty"`
	SessionID string                    `json:"session_id,omitempty"`
	ProjectID *uuid.UUID                `json:"project_id,omitempty"`
	Metadata  map[string]interface{}    `json:"metadata,omitempty"`
}

// Record validates and stores one event.
func (s *AnalyticsService) Record(ctx context.Context, req *RecordEventRequest) error {
	if !domain.ValidAnalyticsEventType(req.EventType) {
		return apperrors.ValidationFailed("unknown event type")
	}

	event := domain.NewAnalyticsEvent(req.EventType, req.Page, req.SessionID)
	event.ProjectID = req.ProjectID
	event.Metadata = req.Metadata

	if err := s.repo.Insert(ctx, event); err != nil {
		return apperrors.DatabaseError("insert analytics event", err)
	}

	s.metrics.RecordAnalyticsEvent(string(req.EventType))
	if s.notifier != nil {
		s.notifier.Notify()
	}

	s.logger.Debug("analytics event recorded",
		zap.String("event_type", string(req.EventType)),
		zap.String("page", req.Page),
	)

	return nil
}
