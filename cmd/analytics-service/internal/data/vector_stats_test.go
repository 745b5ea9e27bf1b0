package data

import (
	"context"
	"errors"
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mockMilvus serves canned statistics and query results.
type mockMilvus struct {
	stats   map[string]string
	sources []string
	err     error
	limit   int64
}

func (m *mockMilvus) GetCollectionStatistics(_ context.Context, _ string) (map[string]string, error) {
	return m.stats, m.err
}

func (m *mockMilvus) Query(_ context.Context, _ string, _ []string, _ string, fields []string, _ ...client.SearchQueryOptionFunc) (client.ResultSet, error) {
	if m.err != nil {
		return nil, m.err
	}
	return client.ResultSet{entity.NewColumnVarChar(fields[0], m.sources)}, nil
}

func TestMilvusVectorStats(t *testing.T) {
	ctx := context.Background()

	t.Run("points from row_count", func(t *testing.T) {
		s := newMilvusVectorStats(&mockMilvus{stats: map[string]string{"row_count": "42"}}, "", 0, zap.NewNop())
		n, err := s.CountPoints(ctx, "declarative")
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)
	})

	t.Run("distinct sources", func(t *testing.T) {
		s := newMilvusVectorStats(&mockMilvus{sources: []string{"a.pdf", "b.pdf", "a.pdf", "https://x.y/z"}}, "source", 100, zap.NewNop())
		n, err := s.CountSources(ctx, "declarative")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("full page is logged", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		s := newMilvusVectorStats(&mockMilvus{sources: []string{"a.pdf", "b.pdf", "c.pdf"}}, "source", 3, zap.New(core))

		n, err := s.CountSources(ctx, "declarative")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		require.Equal(t, 1, logs.FilterMessage("source count truncated at query limit").Len())
	})

	t.Run("errors are wrapped", func(t *testing.T) {
		s := newMilvusVectorStats(&mockMilvus{err: errors.New("unavailable")}, "", 0, zap.NewNop())
		_, err := s.CountPoints(ctx, "declarative")
		assert.ErrorContains(t, err, "declarative")
		_, err = s.CountSources(ctx, "declarative")
		assert.Error(t, err)
	})

	t.Run("bad row_count", func(t *testing.T) {
		s := newMilvusVectorStats(&mockMilvus{stats: map[string]string{}}, "", 0, zap.NewNop())
		_, err := s.CountPoints(ctx, "declarative")
		assert.Error(t, err)
	})
}
