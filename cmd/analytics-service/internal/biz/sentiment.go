package biz

import (
	"context"
	"fmt"
	"sync/atomic"
	"unicode/utf8"

	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/cmd/analytics-service/internal/metrics"

	"go.uber.org/zap"
)

// DefaultMaxSentimentChars 分类前的最大字符数
const DefaultMaxSentimentChars = 2000

// SentimentAnalyzer wraps a SentimentBackend so that a classification never
// fails: input is truncated, errors and panics degrade to neutral, and the
// result is clamped to [-1, 1].
type SentimentAnalyzer struct {
	backend  SentimentBackend
	maxChars int
	catalog  *metrics.Catalog
	logger   *zap.Logger

	warmed   atomic.Bool
	reported atomic.Bool
}

// NewSentimentAnalyzer 创建情绪分析器
func NewSentimentAnalyzer(backend SentimentBackend, maxChars int, catalog *metrics.Catalog, logger *zap.Logger) *SentimentAnalyzer {
	if maxChars <= 0 {
		maxChars = DefaultMaxSentimentChars
	}
	return &SentimentAnalyzer{
		backend:  backend,
		maxChars: maxChars,
		catalog:  catalog,
		logger:   logger.With(zap.String("component", "chat_analytics"), zap.String("backend", backend.Name())),
	}
}

// Backend 返回底层后端名称
func (a *SentimentAnalyzer) Backend() string {
	return a.backend.Name()
}

// Analyze classifies text and returns the observation for the given sender.
func (a *SentimentAnalyzer) Analyze(ctx context.Context, text string, sender domain.Sender) domain.SentimentObservation {
	polarity, err := a.classify(ctx, Truncate(text, a.maxChars))
	a.syncReady()
	if err != nil {
		a.catalog.SentimentErrors.WithLabelValues(a.backend.Name()).Inc()
		a.logger.Warn("sentiment classification failed",
			zap.String("event", "sentiment_error"),
			zap.Error(err),
		)
		polarity = domain.NeutralPolarity
	}
	return domain.NewSentimentObservation(polarity, sender)
}

func (a *SentimentAnalyzer) classify(ctx context.Context, text string) (polarity float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			polarity, err = domain.NeutralPolarity, fmt.Errorf("sentiment backend panic: %v", r)
		}
	}()
	return a.backend.Classify(ctx, text)
}

// Warm triggers lazy model acquisition when the backend supports it.
func (a *SentimentAnalyzer) Warm(ctx context.Context) {
	w, ok := a.backend.(Warmer)
	if !ok {
		a.setReady(true)
		return
	}
	if err := w.Warm(ctx); err != nil {
		a.setReady(false)
		a.logger.Warn("sentiment backend warm-up failed",
			zap.String("event", "sentiment_prewarm"),
			zap.Error(err),
		)
		return
	}
	a.setReady(true)
}

// Ready reports whether the backend can classify without a cold start.
// Backends without a warm-up step are always ready; the others are ready once
// their model is loaded, whether by Warm or by a first classification.
func (a *SentimentAnalyzer) Ready() bool {
	if _, ok := a.backend.(Warmer); !ok {
		return true
	}
	a.syncReady()
	return a.warmed.Load()
}

// syncReady publishes the outcome of a lazy model acquisition once it is known.
func (a *SentimentAnalyzer) syncReady() {
	if a.reported.Load() {
		return
	}
	s, ok := a.backend.(ModelStater)
	if !ok {
		return
	}
	if done, err := s.ModelState(); done {
		a.setReady(err == nil)
	}
}

func (a *SentimentAnalyzer) setReady(ready bool) {
	a.warmed.Store(ready)
	a.reported.Store(true)
	v := 0.0
	if ready {
		v = 1
	}
	a.catalog.SentimentBackendReady.WithLabelValues(a.backend.Name()).Set(v)
}

// Truncate 按 rune 截断文本
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}
