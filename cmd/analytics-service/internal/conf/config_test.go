package conf

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chatanalytics/cmd/analytics-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, doc map[string]any) string {
	t.Helper()

	data, err := yaml.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "analytics-service.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults fill missing keys", func(t *testing.T) {
		path := writeConfig(t, map[string]any{
			"server": map[string]any{"http_port": 9100},
		})

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 9100, cfg.Server.HTTPPort)
		assert.Equal(t, path, cfg.Path)
		assert.True(t, cfg.Analytics.EnableMessageMetrics)
		assert.True(t, cfg.Analytics.EnableRAGMetrics)
		assert.Equal(t, domain.DefaultFallbackMessage, cfg.Analytics.DefaultMessage)
		assert.Equal(t, "lexicon", cfg.Sentiment.Backend)
		assert.Equal(t, 2000, cfg.Sentiment.MaxChars)
		assert.True(t, cfg.Sentiment.Prewarm)
		assert.Equal(t, 2*time.Second, cfg.Sentiment.HealthThreshold)
		assert.Equal(t, 300*time.Second, cfg.Sentiment.Pipeline.DownloadTimeout)
		assert.Equal(t, "tmp_", cfg.Auth.TempSubjectPrefix)
		assert.Equal(t, []string{"chat.lifecycle"}, cfg.Kafka.Topics)
		assert.Equal(t, "memory", cfg.Settings.Driver)
	})

	t.Run("file values win", func(t *testing.T) {
		path := writeConfig(t, map[string]any{
			"analytics": map[string]any{
				"enable_rag_metrics": false,
				"default_message":    "I don't know.",
				"flags_ttl":          "30s",
			},
			"sentiment": map[string]any{
				"backend": "pipeline",
				"pipeline": map[string]any{
					"base_url": "http://nlp:8080",
					"model":    "it_core_news_sm",
				},
			},
			"settings": map[string]any{
				"driver": "memory",
				"records": map[string]any{
					"llm_selected": map[string]any{"name": "LLMOpenAIConfig"},
				},
			},
		})

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.False(t, cfg.Analytics.EnableRAGMetrics)
		assert.Equal(t, 30*time.Second, cfg.Analytics.FlagsTTL)
		assert.Equal(t, "pipeline", cfg.Sentiment.Backend)
		assert.Equal(t, "it_core_news_sm", cfg.Sentiment.Pipeline.Model)
		assert.Equal(t, "LLMOpenAIConfig", cfg.Settings.Records["llm_selected"]["name"])

		flags := cfg.Analytics.Flags()
		assert.False(t, flags.EnableRAGMetrics)
		assert.Equal(t, "I don't know.", flags.DefaultMessage)
	})

	t.Run("secrets from environment", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("REDIS_PASSWORD", "hunter2")

		cfg, err := Load(writeConfig(t, map[string]any{}))
		require.NoError(t, err)
		assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
		assert.Equal(t, "hunter2", cfg.Settings.Redis.Password)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestFlagWatcher(t *testing.T) {
	path := writeConfig(t, map[string]any{})
	cfg, err := Load(path)
	require.NoError(t, err)

	w := NewFlagWatcher(path, cfg.Analytics, zap.NewNop())
	assert.True(t, w.Flags(context.Background()).EnableRAGMetrics)

	var reloaded *Config
	w.OnReload(func(c *Config) { reloaded = c })

	// simulate a file change
	require.NoError(t, os.WriteFile(path, []byte("analytics:\n  enable_rag_metrics: false\nsettings:\n  records:\n    llm_selected:\n      name: LLMOllamaConfig\n"), 0o600))
	require.NoError(t, w.v.ReadInConfig())
	w.reload(path)

	assert.False(t, w.Flags(context.Background()).EnableRAGMetrics)
	assert.True(t, w.Flags(context.Background()).EnableMessageMetrics)
	require.NotNil(t, reloaded)
	assert.Equal(t, "LLMOllamaConfig", reloaded.Settings.Records["llm_selected"]["name"])
}
