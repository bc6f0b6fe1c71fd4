package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/clock"
	"github.com/LeeSpain/vision-sync-server/internal/domain"
	apperrors "github.com/LeeSpain/vision-sync-server/internal/errors"
)

// DashboardSnapshot is one complete recomputation of the admin dashboard
// metrics. Snapshots are immutable; the refresher swaps in a new one.
type DashboardSnapshot struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Window      time.Duration `json:"window"`

	LeadFunnel    map[domain.LeadStatus]int   `json:"lead_funnel"`
	LeadsBySource map[domain.LeadSource]int   `json:"leads_by_source"`
	Priorities    map[domain.LeadPriority]int `json:"priorities"`

	Chat     ChatSummary          `json:"chat"`
	Daily    []DailyTrend         `json:"daily"`
	Projects []ProjectPerformance `json:"projects"`
	Traffic  TrafficSummary       `json:"traffic"`
}

// ChatSummary aggregates conversation outcomes inside the window.
type ChatSummary struct {
	Conversations int     `json:"conversations"`
	Qualified     int     `json:"qualified"`
	LeadsCreated  int     `json:"leads_created"`
	AverageScore  float64 `json:"average_score"`
}

// DailyTrend is one day's activity, oldest first.
type DailyTrend struct {
	Date          string `json:"date"` // YYYY-MM-DD, UTC
	Leads         int    `json:"leads"`
	Conversations int    `json:"conversations"`
	PageViews     int    `json:"page_views"`
	Conversions   int    `json:"conversions"`
}

// ProjectPerformance is per-project traffic inside the window.
type ProjectPerformance struct {
	ProjectID   string `json:"project_id"`
	Title       string `json:"title"`
	PageViews   int    `json:"page_views"`
	Conversions int    `json:"conversions"`
}

// TrafficSummary aggregates raw analytics events inside the window.
type TrafficSummary struct {
	PageViews      int            `json:"page_views"`
	Conversions    int            `json:"conversions"`
	UniqueSessions int            `json:"unique_sessions"`
	TopPages       map[string]int `json:"top_pages"`
}

// DashboardService recomputes dashboard metrics from raw rows. Every
// computation is a fresh, independent read-and-reduce; there is no
// incremental state to drift.
type DashboardService struct {
	leadRepo      domain.LeadRepository
	convRepo      domain.ConversationRepository
	projectRepo   domain.ProjectRepository
	analyticsRepo domain.AnalyticsRepository
	clk           clock.Clock
	logger        *zap.Logger
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(
	leadRepo domain.LeadRepository,
	convRepo domain.ConversationRepository,
	projectRepo domain.ProjectRepository,
	analyticsRepo domain.AnalyticsRepository,
	clk clock.Clock,
	logger *zap.Logger,
) *DashboardService {
	if clk == nil {
		clk = clock.New()
	}
	return &DashboardService{
		leadRepo:      leadRepo,
		convRepo:      convRepo,
		projectRepo:   projectRepo,
		analyticsRepo: analyticsRepo,
		clk:           clk,
		logger:        logger,
	}
}

// Compute reads all raw rows inside the window and reduces them into a
// snapshot.
func (s *DashboardService) Compute(ctx context.Context, window time.Duration) (*DashboardSnapshot, error) {
	now := s.clk.NowUTC()
	since := now.Add(-window)

	leads, err := s.leadRepo.ListCreatedSince(ctx, since)
	if err != nil {
		return nil, apperrors.DatabaseError("list leads for dashboard", err)
	}

	conversations, err := s.convRepo.ListCreatedSince(ctx, since)
	if err != nil {
		return nil, apperrors.DatabaseError("list conversations for dashboard", err)
	}

	events, err := s.analyticsRepo.ListSince(ctx, since)
	if err != nil {
		return nil, apperrors.DatabaseError("list analytics events for dashboard", err)
	}

	projects, err := s.projectRepo.List(ctx, nil)
	if err != nil {
		return nil, apperrors.DatabaseError("list projects for dashboard", err)
	}

	snapshot := &DashboardSnapshot{
		GeneratedAt:   now,
		Window:        window,
		LeadFunnel:    make(map[domain.LeadStatus]int),
		LeadsBySource: make(map[domain.LeadSource]int),
		Priorities:    make(map[domain.LeadPriority]int),
	}

	s.reduceLeads(snapshot, leads)
	s.reduceConversations(snapshot, conversations)
	s.reduceTraffic(snapshot, events)
	snapshot.Projects = s.reduceProjects(projects, events)
	snapshot.Daily = s.reduceDaily(leads, conversations, events)

	s.logger.Debug("dashboard snapshot computed",
		zap.Int("leads", len(leads)),
		zap.Int("conversations", len(conversations)),
		zap.Int("events", len(events)),
	)

	return snapshot, nil
}

func (s *DashboardService) reduceLeads(snapshot *DashboardSnapshot, leads []*domain.Lead) {
	for _, lead := range leads {
		snapshot.LeadFunnel[lead.Status]++
		snapshot.LeadsBySource[lead.Source]++
		snapshot.Priorities[lead.Priority]++
	}
}

func (s *DashboardService) reduceConversations(snapshot *DashboardSnapshot, conversations []*domain.Conversation) {
	var scoreSum int
	for _, conv := range conversations {
		snapshot.Chat.Conversations++
		if conv.LeadQualified {
			snapshot.Chat.Qualified++
		}
		if conv.HasLead() {
			snapshot.Chat.LeadsCreated++
		}
		scoreSum += conv.ConversionScore
	}
	if snapshot.Chat.Conversations > 0 {
		snapshot.Chat.AverageScore = float64(scoreSum) / float64(snapshot.Chat.Conversations)
	}
}

func (s *DashboardService) reduceTraffic(snapshot *DashboardSnapshot, events []*domain.AnalyticsEvent) {
	sessions := make(map[string]struct{})
	topPages := make(map[string]int)

	for _, event := range events {
		switch event.EventType {
		case domain.AnalyticsEventPageView:
			snapshot.Traffic.PageViews++
			if event.Page != "" {
				topPages[event.Page]++
			}
		case domain.AnalyticsEventConversion:
			snapshot.Traffic.Conversions++
		}
		if event.SessionID != "" {
			sessions[event.SessionID] = struct{}{}
		}
	}

	snapshot.Traffic.UniqueSessions = len(sessions)
	snapshot.Traffic.TopPages = topPages
}

func (s *DashboardService) reduceProjects(projects []*domain.Project, events []*domain.AnalyticsEvent) []ProjectPerformance {
	byID := make(map[string]*ProjectPerformance, len(projects))
	result := make([]ProjectPerformance, 0, len(projects))

	for _, p := range projects {
		result = append(result, ProjectPerformance{
			ProjectID: p.ID.String(),
			Title:     p.Title,
		})
	}
	for i := range result {
		byID[result[i].ProjectID] = &result[i]
	}

	for _, event := range events {
		if event.ProjectID == nil {
			continue
		}
		perf, ok := byID[event.ProjectID.String()]
		if !ok {
			continue
		}
		switch event.EventType {
		case domain.AnalyticsEventPageView:
			perf.PageViews++
		case domain.AnalyticsEventConversion:
			perf.Conversions++
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].PageViews != result[j].PageViews {
			return result[i].PageViews > result[j].PageViews
		}
		return result[i].Title < result[j].Title
	})

	return result
}

func (s *DashboardService) reduceDaily(leads []*domain.Lead, conversations []*domain.Conversation, events []*domain.AnalyticsEvent) []DailyTrend {
	byDay := make(map[string]*DailyTrend)

	day := func(t time.Time) *DailyTrend {
		key := t.UTC().Format("2006-01-02")
		trend, ok := byDay[key]
		if !ok {
			trend = &DailyTrend{Date: key}
			byDay[key] = trend
		}
		return trend
	}

	for _, lead := range leads {
		day(lead.CreatedAt).Leads++
	}
	for _, conv := range conversations {
		day(conv.CreatedAt).Conversations++
	}
	for _, event := range events {
		switch event.EventType {
		case domain.AnalyticsEventPageView:
			day(event.CreatedAt).PageViews++
		case domain.AnalyticsEventConversion:
			day(event.CreatedAt).Conversions++
		}
	}

	result := make([]DailyTrend, 0, len(byDay))
	for _, trend := range byDay {
		result = append(result, *trend)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })

	return result
}
