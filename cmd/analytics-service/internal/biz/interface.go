package biz

import (
	"context"
	"time"

	"chatanalytics/cmd/analytics-service/internal/domain"
)

// SentimentBackend 情绪分类后端
type SentimentBackend interface {
	// Name identifies the backend in metrics and logs.
	Name() string
	// Classify returns a polarity in [-1, 1].
	Classify(ctx context.Context, text string) (float64, error)
}

// Warmer is implemented by backends that acquire a model lazily.
type Warmer interface {
	Warm(ctx context.Context) error
}

// ModelStater is implemented by lazily loading backends that can report the
// outcome of their model acquisition without triggering it.
type ModelStater interface {
	ModelState() (done bool, err error)
}

// ServiceProber is implemented by backends that call a remote service.
type ServiceProber interface {
	HealthCheck(ctx context.Context) error
}

// FlagSource 指标开关来源，每个事件读取一次
type FlagSource interface {
	Flags(ctx context.Context) domain.Flags
}

// TokenCounter 文本 token 计数器
type TokenCounter interface {
	CountTokens(text string) int
}

// ModelNamer 模型名称解析
type ModelNamer interface {
	LLMName(ctx context.Context, hint *domain.ModelHint) string
	EmbedderName(ctx context.Context, hint *domain.ModelHint) string
}

// StaticFlags is a FlagSource that never changes.
type StaticFlags domain.Flags

// Flags 返回固定开关
func (f StaticFlags) Flags(context.Context) domain.Flags {
	return domain.Flags(f)
}

// Clock 时间来源
type Clock func() time.Time
