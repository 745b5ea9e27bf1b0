package app

import (
	"context"

	"chatanalytics/cmd/analytics-service/internal/biz"
	"chatanalytics/cmd/analytics-service/internal/conf"
	"chatanalytics/cmd/analytics-service/internal/metrics"
	"chatanalytics/cmd/analytics-service/internal/server"
	"chatanalytics/cmd/analytics-service/internal/service"

	"go.uber.org/zap"
)

// App 应用程序
type App struct {
	Logger      *zap.Logger
	HTTPServer  *server.HTTPServer
	KafkaServer *server.KafkaServer
	Service     *service.AnalyticsService
	FlagWatcher *conf.FlagWatcher
	Catalog     *metrics.Catalog
	// Collector is nil when vector memory gauges are disabled.
	Collector *biz.VectorStatsCollector

	config *conf.Config
}

// NewApp 创建应用程序
func NewApp(
	config *conf.Config,
	logger *zap.Logger,
	httpServer *server.HTTPServer,
	kafkaServer *server.KafkaServer,
	svc *service.AnalyticsService,
	watcher *conf.FlagWatcher,
	catalog *metrics.Catalog,
	collector *biz.VectorStatsCollector,
) *App {
	return &App{
		Logger:      logger,
		HTTPServer:  httpServer,
		KafkaServer: kafkaServer,
		Service:     svc,
		FlagWatcher: watcher,
		Catalog:     catalog,
		Collector:   collector,
		config:      config,
	}
}

// Start starts the background work. It returns once everything is launched;
// the goroutines stop when ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	analytics := a.config.Analytics
	a.Catalog.SetInstanceInfo(analytics.CoreVersion, analytics.FrontendVersion)
	a.Catalog.SetPluginInfo(analytics.PluginID, analytics.PluginVersion)

	a.FlagWatcher.Start()

	// model download can take minutes, never block start-up on it
	if a.config.Sentiment.Prewarm {
		go a.Service.Prewarm(ctx)
	}

	if a.Collector != nil {
		go a.Collector.Run(ctx)
	}

	if err := a.KafkaServer.Start(ctx); err != nil {
		return err
	}

	a.Logger.Info("Application started successfully")
	return nil
}

// Stop 停止后台任务
func (a *App) Stop() error {
	a.Logger.Info("Cleaning up resources...")
	if err := a.KafkaServer.Stop(); err != nil {
		a.Logger.Error("Failed to stop Kafka consumer", zap.Error(err))
		return err
	}
	return nil
}
