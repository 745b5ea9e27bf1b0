package data

import (
	"context"
	"errors"
	"time"

	"chatanalytics/cmd/analytics-service/internal/biz"
	"chatanalytics/cmd/analytics-service/internal/conf"
	"chatanalytics/cmd/analytics-service/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// DefaultFlagsTTL 开关缓存时间
const DefaultFlagsTTL = 5 * time.Second

// SettingsFlagSource overlays the analytics_settings record of the settings
// store on top of a fallback source. The merged result is cached briefly so
// that the store is not hit on every event.
type SettingsFlagSource struct {
	repo     domain.SettingsRepository
	fallback biz.FlagSource
	cache    *expirable.LRU[string, domain.Flags]
	logger   *zap.Logger
}

// NewSettingsFlagSource 创建设置开关来源
func NewSettingsFlagSource(repo domain.SettingsRepository, fallback biz.FlagSource, ttl time.Duration, logger *zap.Logger) *SettingsFlagSource {
	if ttl <= 0 {
		ttl = DefaultFlagsTTL
	}
	return &SettingsFlagSource{
		repo:     repo,
		fallback: fallback,
		cache:    expirable.NewLRU[string, domain.Flags](1, nil, ttl),
		logger:   logger.With(zap.String("component", "chat_analytics")),
	}
}

// Flags 返回当前开关
func (s *SettingsFlagSource) Flags(ctx context.Context) domain.Flags {
	if flags, ok := s.cache.Get(domain.SettingAnalytics); ok {
		return flags
	}

	flags := s.fallback.Flags(ctx)

	record, err := s.repo.GetSetting(ctx, domain.SettingAnalytics)
	switch {
	case err == nil:
		flags = overlay(flags, record)
	case errors.Is(err, domain.ErrSettingNotFound):
	default:
		s.logger.Warn("analytics settings unavailable, using configured flags",
			zap.String("event", "settings_load"),
			zap.Error(err),
		)
	}

	s.cache.Add(domain.SettingAnalytics, flags)
	return flags
}

// Invalidate 清除缓存
func (s *SettingsFlagSource) Invalidate() {
	s.cache.Purge()
}

// Reload applies a reloaded config file. Records of a memory settings store
// are refreshed and the cached flags dropped, so edits apply to the next event.
func (s *SettingsFlagSource) Reload(c *conf.Config) {
	if mem, ok := s.repo.(*MemorySettingsRepo); ok {
		for name, value := range c.Settings.Records {
			mem.Put(name, value)
		}
	}
	s.Invalidate()
	s.logger.Info("analytics settings cache invalidated", zap.String("event", "config_reload"))
}

func overlay(flags domain.Flags, record *domain.Setting) domain.Flags {
	if v, ok := record.Bool("enable_message_metrics"); ok {
		flags.EnableMessageMetrics = v
	}
	if v, ok := record.Bool("enable_sentiment_metrics"); ok {
		flags.EnableSentimentMetrics = v
	}
	if v, ok := record.Bool("enable_rag_metrics"); ok {
		flags.EnableRAGMetrics = v
	}
	if v := record.String("default_message"); v != "" {
		flags.DefaultMessage = v
	}
	return flags
}
