package conf

import (
	"context"
	"sync/atomic"

	"chatanalytics/cmd/analytics-service/internal/domain"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// FlagWatcher serves the analytics flags of the config file and reloads
// them whenever the file changes.
type FlagWatcher struct {
	v        *viper.Viper
	flags    atomic.Pointer[domain.Flags]
	onReload []func(*Config)
	logger   *zap.Logger
}

// NewFlagWatcher 创建开关监听器
func NewFlagWatcher(configPath string, initial AnalyticsConfig, logger *zap.Logger) *FlagWatcher {
	w := &FlagWatcher{
		v:      newViper(configPath),
		logger: logger.With(zap.String("component", "chat_analytics")),
	}
	flags := initial.Flags()
	w.flags.Store(&flags)
	return w
}

// Flags 返回当前开关
func (w *FlagWatcher) Flags(context.Context) domain.Flags {
	return *w.flags.Load()
}

// OnReload registers fn to run after every successful reload. Register
// before Start.
func (w *FlagWatcher) OnReload(fn func(*Config)) {
	w.onReload = append(w.onReload, fn)
}

// Start begins watching the config file. Without a readable file the
// initial flags stay in effect.
func (w *FlagWatcher) Start() {
	if err := w.v.ReadInConfig(); err != nil {
		w.logger.Warn("config file not watched",
			zap.String("event", "config_reload"),
			zap.Error(err),
		)
		return
	}

	w.v.OnConfigChange(func(e fsnotify.Event) {
		w.reload(e.Name)
	})
	w.v.WatchConfig()
}

func (w *FlagWatcher) reload(file string) {
	cfg, err := decode(w.v)
	if err != nil {
		w.logger.Error("config reload failed",
			zap.String("event", "config_reload"),
			zap.String("file", file),
			zap.Error(err),
		)
		return
	}

	flags := cfg.Analytics.Flags()
	w.flags.Store(&flags)
	for _, fn := range w.onReload {
		fn(cfg)
	}
	w.logger.Info("analytics flags reloaded",
		zap.String("event", "config_reload"),
		zap.Bool("enable_message_metrics", flags.EnableMessageMetrics),
		zap.Bool("enable_sentiment_metrics", flags.EnableSentimentMetrics),
		zap.Bool("enable_rag_metrics", flags.EnableRAGMetrics),
	)
}
