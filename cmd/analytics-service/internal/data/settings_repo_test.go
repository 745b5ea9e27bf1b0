package data

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/pkg/cache"
	"chatanalytics/pkg/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

func TestMemorySettingsRepo(t *testing.T) {
	repo := NewMemorySettingsRepo(map[string]map[string]any{
		"llm_selected": {"name": "LLMOpenAIConfig"},
	})
	ctx := context.Background()

	s, err := repo.GetSetting(ctx, "llm_selected")
	require.NoError(t, err)
	assert.Equal(t, "LLMOpenAIConfig", s.String("name"))

	_, err = repo.GetSetting(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSettingNotFound)

	repo.Put("missing", map[string]any{"x": true})
	s, err = repo.GetSetting(ctx, "missing")
	require.NoError(t, err)
	v, ok := s.Bool("x")
	assert.True(t, ok)
	assert.True(t, v)
}

func newMockGorm(t *testing.T) (*GormSettingsRepo, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := database.Open(postgres.New(postgres.Config{Conn: sqlDB}))
	require.NoError(t, err)

	return NewGormSettingsRepo(db), mock
}

func TestGormSettingsRepo(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT * FROM "settings" WHERE name = $1`)

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockGorm(t)
		rows := sqlmock.NewRows([]string{"name", "value"}).
			AddRow("LLMOpenAIConfig", []byte(`{"model_name":"gpt-4o-mini","temperature":0.7}`))
		mock.ExpectQuery(query).WillReturnRows(rows)

		s, err := repo.GetSetting(ctx, "LLMOpenAIConfig")
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", s.String("model_name"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockGorm(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"name", "value"}))

		_, err := repo.GetSetting(ctx, "llm_selected")
		assert.ErrorIs(t, err, domain.ErrSettingNotFound)
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newMockGorm(t)
		mock.ExpectQuery(query).WillReturnError(errors.New("connection reset"))

		_, err := repo.GetSetting(ctx, "llm_selected")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrSettingNotFound)
	})
}

func TestRedisSettingsRepo(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), &cache.CacheOptions{KeyPrefix: "cheshire"})
	repo := NewRedisSettingsRepo(c)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	require.NoError(t, mr.Set("cheshire:setting:embedder_selected", `{"name":"EmbedderOpenAIConfig"}`))
	s, err := repo.GetSetting(ctx, "embedder_selected")
	require.NoError(t, err)
	assert.Equal(t, "EmbedderOpenAIConfig", s.String("name"))

	require.NoError(t, c.SetObject(ctx, "setting:analytics_settings", map[string]any{"enable_rag_metrics": false}, 0))
	s, err = repo.GetSetting(ctx, "analytics_settings")
	require.NoError(t, err)
	v, ok := s.Bool("enable_rag_metrics")
	assert.True(t, ok)
	assert.False(t, v)

	_, err = repo.GetSetting(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSettingNotFound)

	mr.SetError("LOADING")
	_, err = repo.GetSetting(ctx, "embedder_selected")
	assert.Error(t, err)
}
