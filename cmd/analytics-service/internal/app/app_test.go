package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"chatanalytics/cmd/analytics-service/internal/biz"
	"chatanalytics/cmd/analytics-service/internal/conf"
	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/cmd/analytics-service/internal/metrics"
	"chatanalytics/cmd/analytics-service/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type warmingBackend struct {
	warmed atomic.Int32
}

func (b *warmingBackend) Name() string { return "warming" }

func (b *warmingBackend) Classify(context.Context, string) (float64, error) { return 0, nil }

func (b *warmingBackend) Warm(context.Context) error {
	b.warmed.Add(1)
	return nil
}

type staticVectors struct{}

func (staticVectors) CountPoints(context.Context, string) (int64, error)  { return 12, nil }
func (staticVectors) CountSources(context.Context, string) (int64, error) { return 3, nil }

type nopNamer struct{}

func (nopNamer) LLMName(context.Context, *domain.ModelHint) string      { return "m" }
func (nopNamer) EmbedderName(context.Context, *domain.ModelHint) string { return "e" }

func TestApp_Start(t *testing.T) {
	cfg := &conf.Config{
		Path: "does-not-exist.yaml",
		Analytics: conf.AnalyticsConfig{
			EnableMessageMetrics: true,
			CoreVersion:          "1.7.0",
			FrontendVersion:      "1.2.0",
			PluginID:             "chat_analytics",
			PluginVersion:        "0.3.1",
		},
		Sentiment: conf.SentimentConfig{Prewarm: true},
	}

	catalog := metrics.NewCatalog(prometheus.NewRegistry())
	backend := &warmingBackend{}
	analyzer := biz.NewSentimentAnalyzer(backend, 0, catalog, zap.NewNop())
	uc := biz.NewAnalyticsUsecase(catalog, analyzer, biz.StaticFlags(cfg.Analytics.Flags()), nopNamer{}, nil, biz.AnalyticsOptions{}, zap.NewNop())
	collector := biz.NewVectorStatsCollector(staticVectors{}, []string{"episodic"}, time.Hour, catalog, zap.NewNop())
	watcher := conf.NewFlagWatcher(cfg.Path, cfg.Analytics, zap.NewNop())

	a := NewApp(cfg, zap.NewNop(), nil, nil, service.NewAnalyticsService(uc), watcher, catalog, collector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx))

	assert.Equal(t, 1.0, testutil.ToFloat64(catalog.InstanceInfo.WithLabelValues("1.7.0", "1.2.0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(catalog.PluginInfo.WithLabelValues("chat_analytics", "0.3.1")))

	assert.Eventually(t, func() bool { return backend.warmed.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(catalog.VectorMemoryPoints.WithLabelValues("episodic")) == 12
	}, time.Second, 10*time.Millisecond)

	assert.NoError(t, a.Stop())
}
