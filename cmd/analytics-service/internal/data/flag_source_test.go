package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"chatanalytics/cmd/analytics-service/internal/biz"
	"chatanalytics/cmd/analytics-service/internal/conf"
	"chatanalytics/cmd/analytics-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// countingRepo counts lookups and can fail.
type countingRepo struct {
	*MemorySettingsRepo
	calls int
	err   error
}

func (r *countingRepo) GetSetting(ctx context.Context, name string) (*domain.Setting, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.MemorySettingsRepo.GetSetting(ctx, name)
}

func TestSettingsFlagSource(t *testing.T) {
	ctx := context.Background()
	defaults := biz.StaticFlags(domain.DefaultFlags())

	t.Run("store overrides per field", func(t *testing.T) {
		repo := &countingRepo{MemorySettingsRepo: NewMemorySettingsRepo(map[string]map[string]any{
			"analytics_settings": {"enable_rag_metrics": false, "default_message": "No idea."},
		})}
		src := NewSettingsFlagSource(repo, defaults, time.Minute, zap.NewNop())

		flags := src.Flags(ctx)
		assert.False(t, flags.EnableRAGMetrics)
		assert.True(t, flags.EnableMessageMetrics)
		assert.True(t, flags.EnableSentimentMetrics)
		assert.Equal(t, "No idea.", flags.DefaultMessage)
	})

	t.Run("cached until invalidated", func(t *testing.T) {
		repo := &countingRepo{MemorySettingsRepo: NewMemorySettingsRepo(nil)}
		src := NewSettingsFlagSource(repo, defaults, time.Minute, zap.NewNop())

		src.Flags(ctx)
		src.Flags(ctx)
		assert.Equal(t, 1, repo.calls)

		repo.Put("analytics_settings", map[string]any{"enable_message_metrics": false})
		src.Invalidate()
		assert.False(t, src.Flags(ctx).EnableMessageMetrics)
		assert.Equal(t, 2, repo.calls)
	})

	t.Run("config reload refreshes memory records", func(t *testing.T) {
		repo := NewMemorySettingsRepo(map[string]map[string]any{
			"analytics_settings": {"enable_rag_metrics": true},
		})
		src := NewSettingsFlagSource(repo, defaults, time.Hour, zap.NewNop())
		assert.True(t, src.Flags(ctx).EnableRAGMetrics)

		cfg := &conf.Config{}
		cfg.Settings.Records = map[string]map[string]any{
			"analytics_settings": {"enable_rag_metrics": false},
		}
		src.Reload(cfg)

		assert.False(t, src.Flags(ctx).EnableRAGMetrics)
	})

	t.Run("store failure falls back to defaults", func(t *testing.T) {
		repo := &countingRepo{MemorySettingsRepo: NewMemorySettingsRepo(nil), err: errors.New("timeout")}
		src := NewSettingsFlagSource(repo, defaults, time.Minute, zap.NewNop())

		assert.Equal(t, domain.DefaultFlags(), src.Flags(ctx))
	})

	t.Run("wrong types are ignored", func(t *testing.T) {
		repo := &countingRepo{MemorySettingsRepo: NewMemorySettingsRepo(map[string]map[string]any{
			"analytics_settings": {"enable_rag_metrics": "no"},
		})}
		src := NewSettingsFlagSource(repo, defaults, time.Minute, zap.NewNop())

		assert.True(t, src.Flags(ctx).EnableRAGMetrics)
	})
}
