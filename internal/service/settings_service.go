package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/clock"
	"github.com/LeeSpain/vision-sync-server/internal/domain"
)

// settingsCacheTTL bounds how long a cached settings read may serve. Writes
// through this service invalidate immediately; the TTL exists so a key
// rotated directly in the database is picked up without a restart.
const settingsCacheTTL = 30 * time.Second

// SettingsService manages stored application settings. Settings in the
// database override process configuration for the keys they cover.
type SettingsService struct {
	repo   domain.SettingsRepository
	clk    clock.Clock
	logger *zap.Logger

	// Cache for settings to avoid a DB round trip on every chat turn
	cache    map[string]string
	cacheMu  sync.RWMutex
	cacheSet bool
	cacheAt  time.Time
}

// NewSettingsService creates a new settings service.
func NewSettingsService(repo domain.SettingsRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		repo:   repo,
		clk:    clock.New(),
		logger: logger,
		cache:  make(map[string]string),
	}
}

// GetChatSettings retrieves all chat-related settings as a typed struct.
func (s *SettingsService) GetChatSettings(ctx context.Context) (*domain.ChatSettings, error) {
	settingsMap, err := s.getAllAsMap(ctx)
	if err != nil {
		return nil, err
	}

	return domain.NewChatSettingsFromMap(settingsMap), nil
}

// SaveChatSettings saves all chat-related settings from a typed struct.
func (s *SettingsService) SaveChatSettings(ctx context.Context, settings *domain.ChatSettings) error {
	settingsMap := settings.ToMap()

	if err := s.repo.SetMany(ctx, settingsMap); err != nil {
		return err
	}

	// Invalidate cache
	s.invalidateCache()

	s.logger.Info("chat settings saved",
		zap.String("business_name", settings.BusinessName),
		zap.String("model", settings.ModelName),
		zap.Int("max_reply_words", settings.MaxReplyWords),
	)

	return nil
}

// Get retrieves a single setting value.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	// Check cache first
	s.cacheMu.RLock()
	if s.cacheFresh() {
		if v, ok := s.cache[key]; ok {
			s.cacheMu.RUnlock()
			return v, nil
		}
	}
	s.cacheMu.RUnlock()

	// Fetch from DB
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if setting == nil {
		return "", nil
	}

	return setting.Value, nil
}

// Set updates a single setting value.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if err := s.repo.Set(ctx, key, value); err != nil {
		return err
	}

	// Update cache
	s.cacheMu.Lock()
	if s.cacheSet {
		s.cache[key] = value
	}
	s.cacheMu.Unlock()

	s.logger.Info("setting updated", zap.String("key", key))

	return nil
}

// Delete removes a setting, falling back to configured defaults.
func (s *SettingsService) Delete(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}

	s.invalidateCache()

	s.logger.Info("setting deleted", zap.String("key", key))

	return nil
}

// GetAllSettings retrieves all settings.
func (s *SettingsService) GetAllSettings(ctx context.Context) ([]*domain.Setting, error) {
	return s.repo.GetAll(ctx)
}

// getAllAsMap retrieves all settings as a map, using cache if available.
func (s *SettingsService) getAllAsMap(ctx context.Context) (map[string]string, error) {
	s.cacheMu.RLock()
	if s.cacheFresh() {
		// Return copy of cache
		result := make(map[string]string, len(s.cache))
		for k, v := range s.cache {
			result[k] = v
		}
		s.cacheMu.RUnlock()
		return result, nil
	}
	s.cacheMu.RUnlock()

	// Fetch from DB and populate cache
	settings, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	settingsMap := make(map[string]string, len(settings))
	for _, setting := range settings {
		settingsMap[setting.Key] = setting.Value
	}

	s.cacheMu.Lock()
	s.cache = settingsMap
	s.cacheSet = true
	s.cacheAt = s.clk.Now()
	s.cacheMu.Unlock()

	return settingsMap, nil
}

// cacheFresh reports whether the cache is populated and within its TTL.
// Callers must hold cacheMu.
func (s *SettingsService) cacheFresh() bool {
	return s.cacheSet && s.clk.Now().Sub(s.cacheAt) < settingsCacheTTL
}

// invalidateCache clears the settings cache.
func (s *SettingsService) invalidateCache() {
	s.cacheMu.Lock()
	s.cache = make(map[string]string)
	s.cacheSet = false
	s.cacheMu.Unlock()
}

// RefreshCache forces a reload of the settings cache from the database.
func (s *SettingsService) RefreshCache(ctx context.Context) error {
	s.invalidateCache()
	_, err := s.getAllAsMap(ctx)
	return err
}
