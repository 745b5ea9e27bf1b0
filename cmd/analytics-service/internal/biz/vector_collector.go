package biz

import (
	"context"
	"time"

	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/cmd/analytics-service/internal/metrics"

	"go.uber.org/zap"
)

// DefaultVectorRefreshInterval 向量库统计刷新间隔
const DefaultVectorRefreshInterval = time.Minute

// VectorStatsCollector periodically copies the size of the vector memory
// collections into gauges.
type VectorStatsCollector struct {
	repo        domain.VectorStatsRepository
	collections []string
	interval    time.Duration
	catalog     *metrics.Catalog
	logger      *zap.Logger
}

// NewVectorStatsCollector 创建向量统计采集器
func NewVectorStatsCollector(
	repo domain.VectorStatsRepository,
	collections []string,
	interval time.Duration,
	catalog *metrics.Catalog,
	logger *zap.Logger,
) *VectorStatsCollector {
	if interval <= 0 {
		interval = DefaultVectorRefreshInterval
	}
	return &VectorStatsCollector{
		repo:        repo,
		collections: collections,
		interval:    interval,
		catalog:     catalog,
		logger:      logger.With(zap.String("component", "chat_analytics")),
	}
}

// Run refreshes immediately and then on every tick until ctx is done.
func (c *VectorStatsCollector) Run(ctx context.Context) {
	c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

// Refresh 刷新所有集合的统计
func (c *VectorStatsCollector) Refresh(ctx context.Context) {
	for _, collection := range c.collections {
		points, err := c.repo.CountPoints(ctx, collection)
		if err != nil {
			c.fail(collection, err)
		} else {
			c.catalog.VectorMemoryPoints.WithLabelValues(collection).Set(float64(points))
		}

		sources, err := c.repo.CountSources(ctx, collection)
		if err != nil {
			c.fail(collection, err)
		} else {
			c.catalog.VectorMemorySources.WithLabelValues(collection).Set(float64(sources))
		}
	}
}

func (c *VectorStatsCollector) fail(collection string, err error) {
	c.catalog.AnalyticsErrors.WithLabelValues("vector_memory_stats").Inc()
	c.logger.Warn("vector memory stats refresh failed",
		zap.String("event", "vector_memory_stats"),
		zap.String("collection", collection),
		zap.Error(err),
	)
}
