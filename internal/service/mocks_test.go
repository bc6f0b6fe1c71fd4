package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LeeSpain/vision-sync-server/internal/ai"
	"github.com/LeeSpain/vision-sync-server/internal/domain"
	"github.com/LeeSpain/vision-sync-server/internal/repository"
)

// MockConversationRepository is an in-memory domain.ConversationRepository.
type MockConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*domain.Conversation

	// For tracking method calls
	UpsertCalls         int
	GetBySessionIDCalls int

	// For injecting errors
	UpsertError         error
	GetBySessionIDError error
	ListError           error
}

func NewMockConversationRepository() *MockConversationRepository {
	return &MockConversationRepository{
		conversations: make(map[string]*domain.Conversation),
	}
}

func (m *MockConversationRepository) Upsert(ctx context.Context, conv *domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.UpsertError != nil {
		return m.UpsertError
	}
	stored, ok := m.conversations[conv.SessionID]
	if ok && conv.LeadID == nil {
		// lead reference survives an upsert that carries none
		conv.LeadID = stored.LeadID
	}
	cp := *conv
	m.conversations[conv.SessionID] = &cp
	return nil
}

func (m *MockConversationRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.GetBySessionIDCalls++
	if m.GetBySessionIDError != nil {
		return nil, m.GetBySessionIDError
	}
	if conv, ok := m.conversations[sessionID]; ok {
		cp := *conv
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, conv := range m.conversations {
		if conv.ID == id {
			cp := *conv
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockConversationRepository) List(ctx context.Context, filter *domain.ConversationListFilter, limit, offset int) ([]*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	result := make([]*domain.Conversation, 0, len(m.conversations))
	for _, conv := range m.conversations {
		result = append(result, conv)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *MockConversationRepository) Count(ctx context.Context, filter *domain.ConversationListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conversations), nil
}

func (m *MockConversationRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.ConversationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, conv := range m.conversations {
		if conv.ID == id {
			conv.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *MockConversationRepository) ListCreatedSince(ctx context.Context, since time.Time) ([]*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	result := make([]*domain.Conversation, 0)
	for _, conv := range m.conversations {
		if !conv.CreatedAt.Before(since) {
			result = append(result, conv)
		}
	}
	return result, nil
}

// Stored returns the persisted conversation for assertions.
func (m *MockConversationRepository) Stored(sessionID string) *domain.Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conversations[sessionID]
}

// MockLeadRepository is an in-memory domain.LeadRepository.
type MockLeadRepository struct {
	mu    sync.RWMutex
	leads map[uuid.UUID]*domain.Lead

	// For tracking method calls
	CreateCalls int
	UpdateCalls int
	DeleteCalls int

	// For injecting errors
	CreateError error
	UpdateError error
	ListError   error
}

func NewMockLeadRepository() *MockLeadRepository {
	return &MockLeadRepository{
		leads: make(map[uuid.UUID]*domain.Lead),
	}
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *lead
	m.leads[lead.ID] = &cp
	return nil
}

func (m *MockLeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if lead, ok := m.leads[id]; ok {
		cp := *lead
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockLeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.leads[lead.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *lead
	m.leads[lead.ID] = &cp
	return nil
}

func (m *MockLeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if _, ok := m.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

func (m *MockLeadRepository) List(ctx context.Context, filter *domain.LeadListFilter, limit, offset int) ([]*domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	result := make([]*domain.Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		result = append(result, lead)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *MockLeadRepository) Count(ctx context.Context, filter *domain.LeadListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.leads), nil
}

func (m *MockLeadRepository) ListCreatedSince(ctx context.Context, since time.Time) ([]*domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	result := make([]*domain.Lead, 0)
	for _, lead := range m.leads {
		if !lead.CreatedAt.Before(since) {
			result = append(result, lead)
		}
	}
	return result, nil
}

// LeadCount returns the number of stored leads.
func (m *MockLeadRepository) LeadCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.leads)
}

// MockAgentRepository is an in-memory domain.AgentRepository.
type MockAgentRepository struct {
	mu    sync.RWMutex
	Agent *domain.Agent
	Pairs []*domain.TrainingPair

	// For injecting errors
	GetActiveError error
	ListPairsError error

	CreatePairCalls int
	UpdatePairCalls int
	DeletePairCalls int
}

func NewMockAgentRepository() *MockAgentRepository {
	return &MockAgentRepository{}
}

func (m *MockAgentRepository) GetActive(ctx context.Context) (*domain.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetActiveError != nil {
		return nil, m.GetActiveError
	}
	if m.Agent == nil {
		return nil, repository.ErrNotFound
	}
	return m.Agent, nil
}

func (m *MockAgentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Agent != nil && m.Agent.ID == id {
		return m.Agent, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockAgentRepository) ListTrainingPairs(ctx context.Context, activeOnly bool) ([]*domain.TrainingPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListPairsError != nil {
		return nil, m.ListPairsError
	}
	if !activeOnly {
		return m.Pairs, nil
	}
	result := make([]*domain.TrainingPair, 0, len(m.Pairs))
	for _, p := range m.Pairs {
		if p.Active {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockAgentRepository) CreateTrainingPair(ctx context.Context, pair *domain.TrainingPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatePairCalls++
	m.Pairs = append(m.Pairs, pair)
	return nil
}

func (m *MockAgentRepository) UpdateTrainingPair(ctx context.Context, pair *domain.TrainingPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdatePairCalls++
	for i, p := range m.Pairs {
		if p.ID == pair.ID {
			m.Pairs[i] = pair
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *MockAgentRepository) DeleteTrainingPair(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletePairCalls++
	for i, p := range m.Pairs {
		if p.ID == id {
			m.Pairs = append(m.Pairs[:i], m.Pairs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// MockProjectRepository is an in-memory domain.ProjectRepository.
type MockProjectRepository struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]*domain.Project

	CreateCalls int
	UpdateCalls int
	DeleteCalls int

	CreateError error
	ListError   error
}

func NewMockProjectRepository() *MockProjectRepository {
	return &MockProjectRepository{
		projects: make(map[uuid.UUID]*domain.Project),
	}
}

func (m *MockProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	m.projects[project.ID] = project
	return nil
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if _, ok := m.projects[project.ID]; !ok {
		return repository.ErrNotFound
	}
	m.projects[project.ID] = project
	return nil
}

func (m *MockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if _, ok := m.projects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *MockProjectRepository) List(ctx context.Context, filter *domain.ProjectListFilter) ([]*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	result := make([]*domain.Project, 0, len(m.projects))
	for _, p := range m.projects {
		if filter != nil && filter.VisibleOnly && !p.Visible {
			continue
		}
		if filter != nil && filter.Section != "" && !p.InSection(filter.Section) {
			continue
		}
		if filter != nil && filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result, nil
}

// MockContentRepository is an in-memory domain.ContentRepository.
type MockContentRepository struct {
	mu       sync.RWMutex
	sections map[string]*domain.ContentSection

	UpsertCalls int
	DeleteCalls int

	UpsertError error
}

func NewMockContentRepository() *MockContentRepository {
	return &MockContentRepository{
		sections: make(map[string]*domain.ContentSection),
	}
}

func (m *MockContentRepository) GetByKey(ctx context.Context, key string) (*domain.ContentSection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sections[key]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockContentRepository) List(ctx context.Context) ([]*domain.ContentSection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.ContentSection, 0, len(m.sections))
	for _, s := range m.sections {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (m *MockContentRepository) Upsert(ctx context.Context, section *domain.ContentSection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.sections[section.Key] = section
	return nil
}

func (m *MockContentRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if _, ok := m.sections[key]; !ok {
		return repository.ErrNotFound
	}
	delete(m.sections, key)
	return nil
}

// MockSettingsRepository is an in-memory domain.SettingsRepository.
type MockSettingsRepository struct {
	mu     sync.RWMutex
	values map[string]string

	GetAllCalls  int
	SetManyCalls int

	GetAllError  error
	SetManyError error
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{
		values: make(map[string]string),
	}
}

func (m *MockSettingsRepository) Get(ctx context.Context, key string) (*domain.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[key]; ok {
		return &domain.Setting{Key: key, Value: v}, nil
	}
	return nil, nil
}

func (m *MockSettingsRepository) GetAll(ctx context.Context) ([]*domain.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.GetAllCalls++
	if m.GetAllError != nil {
		return nil, m.GetAllError
	}
	result := make([]*domain.Setting, 0, len(m.values))
	for k, v := range m.values {
		result = append(result, &domain.Setting{Key: k, Value: v})
	}
	return result, nil
}

func (m *MockSettingsRepository) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MockSettingsRepository) SetMany(ctx context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetManyCalls++
	if m.SetManyError != nil {
		return m.SetManyError
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *MockSettingsRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// MockAnalyticsRepository is an in-memory domain.AnalyticsRepository.
type MockAnalyticsRepository struct {
	mu     sync.RWMutex
	Events []*domain.AnalyticsEvent

	InsertCalls int
	InsertError error
	ListError   error
}

func NewMockAnalyticsRepository() *MockAnalyticsRepository {
	return &MockAnalyticsRepository{}
}

func (m *MockAnalyticsRepository) Insert(ctx context.Context, event *domain.AnalyticsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if m.InsertError != nil {
		return m.InsertError
	}
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockAnalyticsRepository) ListSince(ctx context.Context, since time.Time) ([]*domain.AnalyticsEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	result := make([]*domain.AnalyticsEvent, 0)
	for _, e := range m.Events {
		if !e.CreatedAt.Before(since) {
			result = append(result, e)
		}
	}
	return result, nil
}

// MockCompleter is a scripted ChatCompleter.
type MockCompleter struct {
	mu sync.Mutex

	// Replies are returned in order; the last one repeats.
	Replies []string
	Err     error

	ChatCalls int
	// LastRequest records the most recent request for assertions.
	LastRequest ai.ChatRequest
}

func (m *MockCompleter) Chat(ctx context.Context, req ai.ChatRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCalls++
	m.LastRequest = req
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Replies) == 0 {
		return "Thanks for your message!", nil
	}
	idx := m.ChatCalls - 1
	if idx >= len(m.Replies) {
		idx = len(m.Replies) - 1
	}
	return m.Replies[idx], nil
}

// MockNotifier counts change notifications.
type MockNotifier struct {
	mu    sync.Mutex
	Count int
}

func (m *MockNotifier) Notify() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Count++
}
