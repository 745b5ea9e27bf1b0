package data

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"go.uber.org/zap"
)

// DefaultSourceQueryLimit 统计来源时最多读取的记录数
const DefaultSourceQueryLimit = 16384

// milvusAPI is the part of the Milvus client used for statistics.
type milvusAPI interface {
	GetCollectionStatistics(ctx context.Context, collName string) (map[string]string, error)
	Query(ctx context.Context, collectionName string, partitionNames []string, expr string, outputFields []string, opts ...client.SearchQueryOptionFunc) (client.ResultSet, error)
}

// MilvusVectorStats reports the size of the vector memory collections.
type MilvusVectorStats struct {
	cli         milvusAPI
	sourceField string
	limit       int64
	logger      *zap.Logger
}

// NewMilvusVectorStats 创建向量库统计
func NewMilvusVectorStats(cli client.Client, sourceField string, limit int64, logger *zap.Logger) *MilvusVectorStats {
	return newMilvusVectorStats(cli, sourceField, limit, logger)
}

func newMilvusVectorStats(cli milvusAPI, sourceField string, limit int64, logger *zap.Logger) *MilvusVectorStats {
	if sourceField == "" {
		sourceField = "source"
	}
	if limit <= 0 {
		limit = DefaultSourceQueryLimit
	}
	return &MilvusVectorStats{
		cli:         cli,
		sourceField: sourceField,
		limit:       limit,
		logger:      logger.With(zap.String("component", "chat_analytics")),
	}
}

// NewMilvusClient 连接 Milvus
func NewMilvusClient(ctx context.Context, address string) (client.Client, error) {
	cli, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("connect milvus %s: %w", address, err)
	}
	return cli, nil
}

// CountPoints returns the row count of a collection.
func (s *MilvusVectorStats) CountPoints(ctx context.Context, collection string) (int64, error) {
	stats, err := s.cli.GetCollectionStatistics(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("collection statistics %s: %w", collection, err)
	}
	rows, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse row_count of %s: %w", collection, err)
	}
	return rows, nil
}

// CountSources returns the number of distinct document sources in a
// collection, reading at most limit rows. A full page means the count is a
// lower bound; raise vector_store.query_limit when that is logged.
func (s *MilvusVectorStats) CountSources(ctx context.Context, collection string) (int64, error) {
	rs, err := s.cli.Query(ctx, collection, nil, "", []string{s.sourceField}, client.WithLimit(s.limit))
	if err != nil {
		return 0, fmt.Errorf("query sources %s: %w", collection, err)
	}

	column := rs.GetColumn(s.sourceField)
	if column == nil {
		return 0, fmt.Errorf("collection %s has no %q field", collection, s.sourceField)
	}

	if int64(column.Len()) >= s.limit {
		s.logger.Warn("source count truncated at query limit",
			zap.String("event", "vector_stats"),
			zap.String("collection", collection),
			zap.Int64("limit", s.limit),
		)
	}

	seen := make(map[string]struct{})
	for i := 0; i < column.Len(); i++ {
		v, err := column.Get(i)
		if err != nil {
			return 0, err
		}
		switch source := v.(type) {
		case string:
			seen[source] = struct{}{}
		case []byte:
			seen[string(source)] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}
