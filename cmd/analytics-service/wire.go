//go:build wireinject
// +build wireinject

package main

import (
	"chatanalytics/cmd/analytics-service/internal/app"
	"chatanalytics/cmd/analytics-service/internal/biz"
	"chatanalytics/cmd/analytics-service/internal/conf"
	"chatanalytics/cmd/analytics-service/internal/data"
	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/cmd/analytics-service/internal/infra/sentiment"
	"chatanalytics/cmd/analytics-service/internal/infra/tokenizer"
	"chatanalytics/cmd/analytics-service/internal/metrics"
	"chatanalytics/cmd/analytics-service/internal/server"
	"chatanalytics/cmd/analytics-service/internal/service"
	"chatanalytics/pkg/auth"
	"chatanalytics/pkg/health"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ProviderSet 依赖注入集合
var ProviderSet = wire.NewSet(
	// Metrics
	prometheus.NewRegistry,
	metrics.NewCatalog,
	metrics.NewExposer,

	// Data层
	data.NewSettingsRepository,
	data.NewVectorStatsRepository,
	provideFlagWatcher,
	provideFlagSource,

	// Infrastructure
	provideSentimentBackend,
	tokenizer.NewTiktokenCounter,
	wire.Bind(new(biz.TokenCounter), new(*tokenizer.TiktokenCounter)),

	// Biz
	provideSentimentAnalyzer,
	provideAnalyticsOptions,
	biz.NewModelNameResolver,
	wire.Bind(new(biz.ModelNamer), new(*biz.ModelNameResolver)),
	biz.NewAnalyticsUsecase,
	provideVectorCollector,

	// Service
	service.NewAnalyticsService,

	// Server
	provideJWTManager,
	provideHealthChecker,
	server.NewHTTPServer,
	server.NewKafkaServer,

	app.NewApp,
)

// provideFlagWatcher 提供配置文件开关监听器
func provideFlagWatcher(c *conf.Config, logger *zap.Logger) *conf.FlagWatcher {
	return conf.NewFlagWatcher(c.Path, c.Analytics, logger)
}

// provideFlagSource layers the settings record over the watched config flags.
func provideFlagSource(repo domain.SettingsRepository, watcher *conf.FlagWatcher, c *conf.Config, logger *zap.Logger) biz.FlagSource {
	source := data.NewSettingsFlagSource(repo, watcher, c.Analytics.FlagsTTL, logger)
	watcher.OnReload(source.Reload)
	return source
}

// provideSentimentBackend 提供情绪分析后端
func provideSentimentBackend(c *conf.Config, logger *zap.Logger) biz.SentimentBackend {
	s := c.Sentiment
	return sentiment.NewBackend(sentiment.Config{
		Backend: s.Backend,
		Pipeline: sentiment.PipelineConfig{
			BaseURL:         s.Pipeline.BaseURL,
			Model:           s.Pipeline.Model,
			Timeout:         s.Pipeline.Timeout,
			DownloadTimeout: s.Pipeline.DownloadTimeout,
		},
		Transformer: sentiment.TransformerConfig{
			BaseURL: s.Transformer.BaseURL,
			Model:   s.Transformer.Model,
			Timeout: s.Transformer.Timeout,
		},
	}, logger)
}

// provideSentimentAnalyzer 提供情绪分析器
func provideSentimentAnalyzer(backend biz.SentimentBackend, c *conf.Config, catalog *metrics.Catalog, logger *zap.Logger) *biz.SentimentAnalyzer {
	return biz.NewSentimentAnalyzer(backend, c.Sentiment.MaxChars, catalog, logger)
}

// provideAnalyticsOptions 提供分析选项
func provideAnalyticsOptions(c *conf.Config) biz.AnalyticsOptions {
	return biz.AnalyticsOptions{TrackBotMessages: c.Analytics.TrackBotMessages}
}

// provideVectorCollector returns nil when the vector store is disabled.
func provideVectorCollector(repo domain.VectorStatsRepository, c *conf.Config, catalog *metrics.Catalog, logger *zap.Logger) *biz.VectorStatsCollector {
	if repo == nil {
		return nil
	}
	return biz.NewVectorStatsCollector(repo, c.VectorStore.Collections, c.VectorStore.RefreshInterval, catalog, logger)
}

// provideJWTManager returns nil when no feedback secret is configured.
func provideJWTManager(c *conf.Config) *auth.JWTManager {
	if c.Auth.JWTSecret == "" {
		return nil
	}
	return auth.NewJWTManager(auth.Config{
		Secret:                 c.Auth.JWTSecret,
		Algorithm:              c.Auth.JWTAlgorithm,
		Issuer:                 c.Auth.Issuer,
		TempSubjectPrefix:      c.Auth.TempSubjectPrefix,
		AllowTemporarySessions: c.Auth.AllowTemporarySessions,
	})
}

// provideHealthChecker 提供健康检查
//
// Remote sentiment backends add a probe of their service; it only degrades
// health since classification falls back to neutral.
func provideHealthChecker(repo domain.SettingsRepository, analyzer *biz.SentimentAnalyzer, backend biz.SentimentBackend, c *conf.Config) *health.HealthChecker {
	checker := health.NewHealthChecker()
	checker.Register(health.NewPingChecker("settings_store", repo.Ping), true)
	checker.Register(health.NewFuncChecker("sentiment_backend", func() (bool, string) {
		if analyzer.Ready() {
			return true, ""
		}
		return false, analyzer.Backend() + " backend not warmed up"
	}), false)
	if prober, ok := backend.(biz.ServiceProber); ok {
		checker.Register(health.NewServiceChecker("sentiment_service", prober.HealthCheck, c.Sentiment.HealthThreshold), false)
	}
	return checker
}

// initApp 初始化应用
func initApp(*conf.Config, *zap.Logger) (*app.App, func(), error) {
	panic(wire.Build(ProviderSet))
}
