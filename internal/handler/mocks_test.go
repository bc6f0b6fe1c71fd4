package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LeeSpain/vision-sync-server/internal/ai"
	"github.com/LeeSpain/vision-sync-server/internal/domain"
	"github.com/LeeSpain/vision-sync-server/internal/repository"
	"github.com/LeeSpain/vision-sync-server/internal/service"
)

// stubConversationRepo is an in-memory domain.ConversationRepository.
type stubConversationRepo struct {
	mu            sync.RWMutex
	conversations map[string]*domain.Conversation
}

func newStubConversationRepo() *stubConversationRepo {
	return &stubConversationRepo{conversations: make(map[string]*domain.Conversation)}
}

func (s *stubConversationRepo) Upsert(ctx context.Context, conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *conv
	s.conversations[conv.SessionID] = &cp
	return nil
}

func (s *stubConversationRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if conv, ok := s.conversations[sessionID]; ok {
		cp := *conv
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, conv := range s.conversations {
		if conv.ID == id {
			cp := *conv
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubConversationRepo) List(ctx context.Context, filter *domain.ConversationListFilter, limit, offset int) ([]*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		result = append(result, conv)
	}
	return result, nil
}

func (s *stubConversationRepo) Count(ctx context.Context, filter *domain.ConversationListFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations), nil
}

func (s *stubConversationRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.ConversationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conv := range s.conversations {
		if conv.ID == id {
			conv.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *stubConversationRepo) ListCreatedSince(ctx context.Context, since time.Time) ([]*domain.Conversation, error) {
	return s.List(ctx, nil, 0, 0)
}

// stubLeadRepo is an in-memory domain.LeadRepository.
type stubLeadRepo struct {
	mu    sync.RWMutex
	leads map[uuid.UUID]*domain.Lead
}

func newStubLeadRepo() *stubLeadRepo {
	return &stubLeadRepo{leads: make(map[uuid.UUID]*domain.Lead)}
}

func (s *stubLeadRepo) Create(ctx context.Context, lead *domain.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *lead
	s.leads[lead.ID] = &cp
	return nil
}

func (s *stubLeadRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if lead, ok := s.leads[id]; ok {
		cp := *lead
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubLeadRepo) Update(ctx context.Context, lead *domain.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[lead.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *lead
	s.leads[lead.ID] = &cp
	return nil
}

func (s *stubLeadRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.leads, id)
	return nil
}

func (s *stubLeadRepo) List(ctx context.Context, filter *domain.LeadListFilter, limit, offset int) ([]*domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		if filter != nil && filter.Status != nil && lead.Status != *filter.Status {
			continue
		}
		result = append(result, lead)
	}
	return result, nil
}

func (s *stubLeadRepo) Count(ctx context.Context, filter *domain.LeadListFilter) (int, error) {
	leads, _ := s.List(ctx, filter, 0, 0)
	return len(leads), nil
}

func (s *stubLeadRepo) ListCreatedSince(ctx context.Context, since time.Time) ([]*domain.Lead, error) {
	return s.List(ctx, nil, 0, 0)
}

// stubProjectRepo is an in-memory domain.ProjectRepository.
type stubProjectRepo struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]*domain.Project
}

func newStubProjectRepo() *stubProjectRepo {
	return &stubProjectRepo{projects: make(map[uuid.UUID]*domain.Project)}
}

func (s *stubProjectRepo) Create(ctx context.Context, project *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ID] = project
	return nil
}

func (s *stubProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.projects[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubProjectRepo) Update(ctx context.Context, project *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ID]; !ok {
		return repository.ErrNotFound
	}
	s.projects[project.ID] = project
	return nil
}

func (s *stubProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

func (s *stubProjectRepo) List(ctx context.Context, filter *domain.ProjectListFilter) ([]*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if filter != nil && filter.VisibleOnly && !p.Visible {
			continue
		}
		if filter != nil && filter.Section != "" && !p.InSection(filter.Section) {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

// stubAgentRepo is an in-memory domain.AgentRepository.
type stubAgentRepo struct {
	mu    sync.RWMutex
	agent *domain.Agent
	pairs []*domain.TrainingPair
}

func newStubAgentRepo() *stubAgentRepo {
	return &stubAgentRepo{}
}

func (s *stubAgentRepo) GetActive(ctx context.Context) (*domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.agent == nil {
		return nil, repository.ErrNotFound
	}
	return s.agent, nil
}

func (s *stubAgentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.agent != nil && s.agent.ID == id {
		return s.agent, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubAgentRepo) ListTrainingPairs(ctx context.Context, activeOnly bool) ([]*domain.TrainingPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !activeOnly {
		return s.pairs, nil
	}
	result := make([]*domain.TrainingPair, 0, len(s.pairs))
	for _, p := range s.pairs {
		if p.Active {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *stubAgentRepo) CreateTrainingPair(ctx context.Context, pair *domain.TrainingPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs = append(s.pairs, pair)
	return nil
}

func (s *stubAgentRepo) UpdateTrainingPair(ctx context.Context, pair *domain.TrainingPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pairs {
		if p.ID == pair.ID {
			s.pairs[i] = pair
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *stubAgentRepo) DeleteTrainingPair(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pairs {
		if p.ID == id {
			s.pairs = append(s.pairs[:i], s.pairs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// stubContentRepo is an in-memory domain.ContentRepository.
type stubContentRepo struct {
	mu       sync.RWMutex
	sections map[string]*domain.ContentSection
}

func newStubContentRepo() *stubContentRepo {
	return &stubContentRepo{sections: make(map[string]*domain.ContentSection)}
}

func (s *stubContentRepo) GetByKey(ctx context.Context, key string) (*domain.ContentSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if section, ok := s.sections[key]; ok {
		return section, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubContentRepo) List(ctx context.Context) ([]*domain.ContentSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.ContentSection, 0, len(s.sections))
	for _, section := range s.sections {
		result = append(result, section)
	}
	return result, nil
}

func (s *stubContentRepo) Upsert(ctx context.Context, section *domain.ContentSection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[section.Key] = section
	return nil
}

func (s *stubContentRepo) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sections[key]; !ok {
		return repository.ErrNotFound
	}
	delete(s.sections, key)
	return nil
}

// stubSettingsRepo is an in-memory domain.SettingsRepository.
type stubSettingsRepo struct {
	mu     sync.RWMutex
	values map[string]string
}

func newStubSettingsRepo() *stubSettingsRepo {
	return &stubSettingsRepo{values: make(map[string]string)}
}

func (s *stubSettingsRepo) Get(ctx context.Context, key string) (*domain.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return &domain.Setting{Key: key, Value: v}, nil
	}
	return nil, nil
}

func (s *stubSettingsRepo) GetAll(ctx context.Context) ([]*domain.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.Setting, 0, len(s.values))
	for k, v := range s.values {
		result = append(result, &domain.Setting{Key: k, Value: v})
	}
	return result, nil
}

func (s *stubSettingsRepo) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *stubSettingsRepo) SetMany(ctx context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

func (s *stubSettingsRepo) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// stubAnalyticsRepo is an in-memory domain.AnalyticsRepository.
type stubAnalyticsRepo struct {
	mu     sync.RWMutex
	events []*domain.AnalyticsEvent
}

func newStubAnalyticsRepo() *stubAnalyticsRepo {
	return &stubAnalyticsRepo{}
}

func (s *stubAnalyticsRepo) Insert(ctx context.Context, event *domain.AnalyticsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *stubAnalyticsRepo) ListSince(ctx context.Context, since time.Time) ([]*domain.AnalyticsEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events, nil
}

// stubCompleter is a scripted model client.
type stubCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
}

func (s *stubCompleter) Chat(ctx context.Context, req ai.ChatRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if s.reply == "" {
		return "Happy to help!", nil
	}
	return s.reply, nil
}

// stubSnapshotProvider serves a fixed dashboard snapshot.
type stubSnapshotProvider struct {
	snapshot *service.DashboardSnapshot
}

func (s *stubSnapshotProvider) Snapshot() *service.DashboardSnapshot {
	return s.snapshot
}
