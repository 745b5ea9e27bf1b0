package data

import (
	"context"
	"fmt"
	"time"

	"chatanalytics/cmd/analytics-service/internal/conf"
	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/pkg/cache"
	"chatanalytics/pkg/database"

	"go.uber.org/zap"
)

// NewSettingsRepository 按配置选择设置存储
func NewSettingsRepository(c *conf.Config, logger *zap.Logger) (domain.SettingsRepository, func(), error) {
	cfg := c.Settings

	switch cfg.Driver {
	case "memory", "":
		return NewMemorySettingsRepo(cfg.Records), func() {}, nil

	case "postgres":
		db, err := database.NewDB(&database.Config{
			Driver:          "postgres",
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return NewGormSettingsRepo(db), cleanup, nil

	case "redis":
		rc := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, &cache.CacheOptions{
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("settings store connected", zap.String("driver", "redis"), zap.String("addr", cfg.Redis.Addr))
		return NewRedisSettingsRepo(rc), func() { rc.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported settings driver: %s", cfg.Driver)
	}
}

// NewVectorStatsRepository connects to Milvus when vector memory gauges are
// enabled. A nil repository means the collector is not started.
func NewVectorStatsRepository(c *conf.Config, logger *zap.Logger) (domain.VectorStatsRepository, func(), error) {
	cfg := c.VectorStore
	if !cfg.Enabled {
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cli, err := NewMilvusClient(ctx, cfg.Address)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("vector store connected", zap.String("address", cfg.Address))

	return NewMilvusVectorStats(cli, cfg.SourceField, cfg.QueryLimit, logger), func() { cli.Close() }, nil
}
