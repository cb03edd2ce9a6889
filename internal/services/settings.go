package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/beeboo/storefront/internal/cache"
	"github.com/beeboo/storefront/internal/db"
	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/models"
)

const (
	DefaultSettingsTTL    = 5 * time.Minute
	maxAnnouncementLength = 280
)

// SettingsService reads and writes the storefront settings documents through
// a cache.
type SettingsService struct {
	store  SettingsRepository
	cache  cache.Provider
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewSettingsService(store SettingsRepository, cacheProvider cache.Provider, ttl time.Duration, logger *slog.Logger) *SettingsService {
	if ttl <= 0 {
		ttl = DefaultSettingsTTL
	}
	return &SettingsService{
		store:  store,
		cache:  cacheProvider,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (s *SettingsService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Get returns both settings documents. Missing documents read as defaults.
func (s *SettingsService) Get(ctx context.Context) (*models.StoreSettings, error) {
	settings := &models.StoreSettings{
		FestivalTheme: models.FestivalTheme{ActiveTheme: models.ThemeNone},
	}
	if err := s.load(ctx, db.SettingAnnouncement, &settings.Announcement); err != nil {
		return nil, err
	}
	if err := s.load(ctx, db.SettingFestivalTheme, &settings.FestivalTheme); err != nil {
		return nil, err
	}
	if !models.IsFestivalTheme(settings.FestivalTheme.ActiveTheme) {
		settings.FestivalTheme.ActiveTheme = models.ThemeNone
	}
	return settings, nil
}

func (s *SettingsService) UpdateAnnouncement(ctx context.Context, text string) (*models.Announcement, error) {
	text = strings.TrimSpace(text)
	if len([]rune(text)) > maxAnnouncementLength {
		return nil, validationError(map[string]string{
			"text": fmt.Sprintf("Announcement must be at most %d characters", maxAnnouncementLength),
		})
	}

	announcement := &models.Announcement{Text: text, UpdatedAt: s.now().UTC()}
	if err := s.save(ctx, db.SettingAnnouncement, announcement); err != nil {
		return nil, err
	}
	return announcement, nil
}

func (s *SettingsService) UpdateFestivalTheme(ctx context.Context, theme string) (*models.FestivalTheme, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		theme = models.ThemeNone
	}
	if !models.IsFestivalTheme(theme) {
		return nil, validationError(map[string]string{"activeTheme": "Unknown festival theme"})
	}

	festival := &models.FestivalTheme{ActiveTheme: theme, UpdatedAt: s.now().UTC()}
	if err := s.save(ctx, db.SettingFestivalTheme, festival); err != nil {
		return nil, err
	}
	return festival, nil
}

// load fills dest from the cache or the store. A missing document leaves dest as is.
func (s *SettingsService) load(ctx context.Context, key string, dest any) error {
	logger := s.loggerFromContext(ctx)
	cacheKey := cache.SettingsKey(key)

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey)
		if err == nil {
			if decodeErr := decodeSetting(raw, dest); decodeErr == nil {
				return nil
			}
			logger.Warn("discarding undecodable cached setting", "key", key)
		} else if !errors.Is(err, cache.ErrNotFound) {
			logger.Warn("settings cache read failed", "error", err, "key", key)
		}
	}

	// Missing documents cache their defaults too.
	if err := s.store.Get(ctx, key, dest); err != nil && !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("failed to load setting %s: %w", key, err)
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, cacheKey, dest, s.ttl); err != nil {
			logger.Warn("settings cache write failed", "error", err, "key", key)
		}
	}
	return nil
}

func (s *SettingsService) save(ctx context.Context, key string, value any) error {
	if err := s.store.Put(ctx, key, value); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.SettingsKey(key)); err != nil {
			s.loggerFromContext(ctx).Warn("settings cache invalidation failed", "error", err, "key", key)
		}
	}
	s.loggerFromContext(ctx).Info("setting updated", "key", key)
	return nil
}

func decodeSetting(raw string, dest any) error {
	return json.Unmarshal([]byte(raw), dest)
}
