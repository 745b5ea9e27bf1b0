package sentiment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultDownloadTimeout 模型下载超时
const DefaultDownloadTimeout = 300 * time.Second

// ModelAPI loads and downloads named language models on the NLP service.
type ModelAPI interface {
	// Load returns domain.ErrModelNotInstalled when the model is absent.
	Load(ctx context.Context, model string) error
	Download(ctx context.Context, model string) error
}

type loadResult struct {
	err error
}

// ModelLoader acquires each model at most once per process. Concurrent first
// callers share one attempt and the outcome, success or failure, is memoized.
type ModelLoader struct {
	api             ModelAPI
	downloadTimeout time.Duration
	logger          *zap.Logger

	group   singleflight.Group
	results sync.Map // model name -> *loadResult
}

// NewModelLoader 创建模型加载器
func NewModelLoader(api ModelAPI, downloadTimeout time.Duration, logger *zap.Logger) *ModelLoader {
	if downloadTimeout <= 0 {
		downloadTimeout = DefaultDownloadTimeout
	}
	return &ModelLoader{
		api:             api,
		downloadTimeout: downloadTimeout,
		logger:          logger.With(zap.String("component", "chat_analytics")),
	}
}

// Ensure returns nil once the model is loaded, or the memoized failure.
func (l *ModelLoader) Ensure(ctx context.Context, model string) error {
	if v, ok := l.results.Load(model); ok {
		return v.(*loadResult).err
	}

	v, _, _ := l.group.Do(model, func() (interface{}, error) {
		if v, ok := l.results.Load(model); ok {
			return v, nil
		}

		// the attempt outlives a cancelled first caller so its result can be cached
		res := &loadResult{err: l.acquire(context.WithoutCancel(ctx), model)}
		l.results.Store(model, res)

		if res.err != nil {
			l.logger.Error("sentiment model unavailable, falling back to neutral",
				zap.String("event", "model_acquisition"),
				zap.String("model", model),
				zap.Error(res.err),
			)
		} else {
			l.logger.Info("sentiment model loaded",
				zap.String("event", "model_acquisition"),
				zap.String("model", model),
			)
		}
		return res, nil
	})

	return v.(*loadResult).err
}

// Result returns the memoized outcome for model. done is false while no
// acquisition has completed.
func (l *ModelLoader) Result(model string) (done bool, err error) {
	v, ok := l.results.Load(model)
	if !ok {
		return false, nil
	}
	return true, v.(*loadResult).err
}

func (l *ModelLoader) acquire(ctx context.Context, model string) error {
	ctx, span := observability.StartSpan(ctx, "analytics-service/sentiment", "ModelLoader.acquire")
	defer span.End()
	observability.SetAttributes(span, attribute.String("model", model))

	err := l.api.Load(ctx, model)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrModelNotInstalled) {
		observability.RecordError(span, err)
		return fmt.Errorf("%w: load %s: %w", domain.ErrModelUnavailable, model, err)
	}

	l.logger.Info("sentiment model not installed, downloading",
		zap.String("event", "model_download"),
		zap.String("model", model),
		zap.Duration("timeout", l.downloadTimeout),
	)

	dctx, cancel := context.WithTimeout(ctx, l.downloadTimeout)
	defer cancel()
	if err := l.api.Download(dctx, model); err != nil {
		observability.RecordError(span, err)
		return fmt.Errorf("%w: download %s: %w", domain.ErrModelUnavailable, model, err)
	}

	if err := l.api.Load(ctx, model); err != nil {
		observability.RecordError(span, err)
		return fmt.Errorf("%w: load %s after download: %w", domain.ErrModelUnavailable, model, err)
	}
	return nil
}
