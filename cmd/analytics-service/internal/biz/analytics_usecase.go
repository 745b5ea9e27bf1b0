package biz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/cmd/analytics-service/internal/metrics"
	"chatanalytics/pkg/observability"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tracerName = "analytics-service/biz"

const (
	// maxOpenTimings bounds turns awaiting a response across all users
	maxOpenTimings = 10000
	// openTimingTTL drops turns that never receive a response
	openTimingTTL = time.Hour
)

// AnalyticsOptions 分析用例选项
type AnalyticsOptions struct {
	// TrackBotMessages also counts and classifies emitted responses under sender="bot".
	TrackBotMessages bool
}

// llmUsage per-model token statistics
type llmUsage struct {
	input  RunningStats
	output RunningStats
}

// AnalyticsUsecase 聊天分析用例
//
// It owns the per-user session counts, the per-model usage statistics and the
// open response timings. A user has at most one open turn: a new message
// replaces the timing of an earlier turn that never got a response. Every
// operation is fail-soft: a failing metric update is counted, logged and
// skipped while sibling updates still run.
type AnalyticsUsecase struct {
	catalog  *metrics.Catalog
	analyzer *SentimentAnalyzer
	flags    FlagSource
	models   ModelNamer
	tokens   TokenCounter
	opts     AnalyticsOptions
	logger   *zap.Logger
	now      Clock

	sessionMu    sync.Mutex
	sessions     map[string]int64
	sessionStats RunningStats

	usageMu sync.Mutex
	usage   map[string]*llmUsage

	timingMu    sync.Mutex
	timings     *expirable.LRU[string, time.Time]
	openTurns   map[string]string // user id -> turn key
	maxResponse float64
}

// NewAnalyticsUsecase 创建分析用例
func NewAnalyticsUsecase(
	catalog *metrics.Catalog,
	analyzer *SentimentAnalyzer,
	flags FlagSource,
	models ModelNamer,
	tokens TokenCounter,
	opts AnalyticsOptions,
	logger *zap.Logger,
) *AnalyticsUsecase {
	if tokens == nil {
		tokens = WordCounter{}
	}
	return &AnalyticsUsecase{
		catalog:   catalog,
		analyzer:  analyzer,
		flags:     flags,
		models:    models,
		tokens:    tokens,
		opts:      opts,
		logger:    logger.With(zap.String("component", "chat_analytics")),
		now:       time.Now,
		sessions:  make(map[string]int64),
		usage:     make(map[string]*llmUsage),
		timings:   expirable.NewLRU[string, time.Time](maxOpenTimings, nil, openTimingTTL),
		openTurns: make(map[string]string),
	}
}

// SetClock replaces the time source. Tests only.
func (uc *AnalyticsUsecase) SetClock(clock Clock) {
	uc.now = clock
}

// Prewarm 预热情绪模型
func (uc *AnalyticsUsecase) Prewarm(ctx context.Context) {
	ctx, span := observability.StartSpan(ctx, tracerName, "AnalyticsUsecase.Prewarm")
	defer span.End()

	uc.analyzer.Warm(ctx)
}

// OnMessageReceived 处理用户消息
func (uc *AnalyticsUsecase) OnMessageReceived(ctx context.Context, ev domain.MessageReceived) {
	ctx, span := observability.StartSpan(ctx, tracerName, "AnalyticsUsecase.OnMessageReceived")
	defer span.End()
	observability.SetAttributes(span, attribute.String("user.id", ev.UserID))

	flags := uc.flags.Flags(ctx)

	uc.openTiming(ev.UserID, turnKey(ev.TurnID, ev.UserID))

	if flags.EnableMessageMetrics {
		uc.guard("message_counter", func() error {
			uc.catalog.MessagesTotal.WithLabelValues(string(domain.SenderUser)).Inc()
			return nil
		})
		uc.guard("browser_language", func() error {
			if lang := PrimaryLanguage(ev.LocaleHint); lang != "" {
				uc.catalog.MessagesByLanguage.WithLabelValues(lang).Inc()
			}
			return nil
		})
		uc.guard("session_stats", func() error {
			return uc.recordSession(ev.UserID)
		})
	}

	if flags.EnableSentimentMetrics && ev.Text != "" {
		uc.guard("sentiment_tracking", func() error {
			uc.trackSentiment(ctx, domain.SenderUser, ev.Text)
			return nil
		})
	}
}

// OnMemoriesRecalled 统计检索到的文档来源
func (uc *AnalyticsUsecase) OnMemoriesRecalled(ctx context.Context, ev domain.MemoriesRecalled) {
	ctx, span := observability.StartSpan(ctx, tracerName, "AnalyticsUsecase.OnMemoriesRecalled")
	defer span.End()
	observability.SetAttributes(span, attribute.Int("rag.sources", len(ev.Sources)))

	if !uc.flags.Flags(ctx).EnableRAGMetrics {
		return
	}

	for i, source := range ev.Sources {
		uc.guard("rag_metrics", func() error {
			if source == nil {
				return fmt.Errorf("source %d: %w", i, domain.ErrInvalidPayload)
			}
			uc.catalog.DocumentsRetrieved.WithLabelValues(ClusterSource(*source)).Inc()
			return nil
		})
	}
}

// OnFastReplyEmitted ends a turn through the shortcut path. The open timing is
// discarded so the turn never reaches the response-time statistics.
//
// Detection of the fallback reply is an exact string comparison; a genuine
// answer that happens to equal the default message is counted as well.
func (uc *AnalyticsUsecase) OnFastReplyEmitted(ctx context.Context, ev domain.FastReplyEmitted) {
	ctx, span := observability.StartSpan(ctx, tracerName, "AnalyticsUsecase.OnFastReplyEmitted")
	defer span.End()

	flags := uc.flags.Flags(ctx)
	uc.closeTiming(ev.UserID, turnKey(ev.TurnID, ev.UserID))

	if !flags.EnableRAGMetrics || ev.Text == "" {
		return
	}

	uc.guard("fast_reply_check", func() error {
		defaultMessage := ev.DefaultMessage
		if defaultMessage == "" {
			defaultMessage = flags.DefaultMessage
		}
		if defaultMessage == "" {
			defaultMessage = domain.DefaultFallbackMessage
		}
		if ev.Text == defaultMessage {
			uc.catalog.NoRelevantMemory.Inc()
		}
		return nil
	})
}

// OnResponseEmitted 处理助手回复
func (uc *AnalyticsUsecase) OnResponseEmitted(ctx context.Context, ev domain.ResponseEmitted) {
	ctx, span := observability.StartSpan(ctx, tracerName, "AnalyticsUsecase.OnResponseEmitted")
	defer span.End()

	flags := uc.flags.Flags(ctx)
	startedAt, open := uc.closeTiming(ev.UserID, turnKey(ev.TurnID, ev.UserID))
	finishedAt := uc.now()

	if flags.EnableMessageMetrics {
		if open {
			uc.guard("response_time", func() error {
				return uc.recordResponseTime(finishedAt.Sub(startedAt))
			})
		}
		uc.guard("token_tracking", func() error {
			return uc.recordInteraction(ctx, ev.Interaction)
		})
		if uc.opts.TrackBotMessages && ev.Text != "" {
			uc.guard("message_counter", func() error {
				uc.catalog.MessagesTotal.WithLabelValues(string(domain.SenderBot)).Inc()
				return nil
			})
		}
	}

	if flags.EnableSentimentMetrics && uc.opts.TrackBotMessages && ev.Text != "" {
		uc.guard("sentiment_tracking", func() error {
			uc.trackSentiment(ctx, domain.SenderBot, ev.Text)
			return nil
		})
	}
}

// OnDocumentsStored 统计嵌入 token
func (uc *AnalyticsUsecase) OnDocumentsStored(ctx context.Context, ev domain.DocumentsStored) {
	ctx, span := observability.StartSpan(ctx, tracerName, "AnalyticsUsecase.OnDocumentsStored")
	defer span.End()
	observability.SetAttributes(span, attribute.Int("documents", len(ev.Documents)))

	if !uc.flags.Flags(ctx).EnableRAGMetrics || len(ev.Documents) == 0 {
		return
	}

	model := uc.models.EmbedderName(ctx, ev.Embedder)
	for _, doc := range ev.Documents {
		uc.guard("embedding_token_tracking", func() error {
			uc.catalog.EmbeddingTokens.WithLabelValues(model).Add(float64(uc.tokens.CountTokens(doc)))
			return nil
		})
	}
}

// OnFeedback 记录用户反馈
func (uc *AnalyticsUsecase) OnFeedback(ctx context.Context, fb domain.Feedback) {
	_, span := observability.StartSpan(ctx, tracerName, "AnalyticsUsecase.OnFeedback")
	defer span.End()

	uc.guard("feedback", func() error {
		kind := "negative"
		if fb.Positive {
			kind = "positive"
		}
		uc.catalog.FeedbackTotal.WithLabelValues(kind).Inc()
		return nil
	})
}

func (uc *AnalyticsUsecase) recordSession(userID string) error {
	if userID == "" {
		return fmt.Errorf("empty user id: %w", domain.ErrInvalidPayload)
	}

	uc.sessionMu.Lock()
	defer uc.sessionMu.Unlock()

	n, seen := uc.sessions[userID]
	if !seen {
		uc.catalog.SessionsTotal.Inc()
	}
	n++
	uc.sessions[userID] = n

	if seen {
		uc.sessionStats.Replace(float64(n-1), float64(n))
	} else {
		uc.sessionStats.Observe(float64(n))
	}

	if avg, ok := uc.sessionStats.Average(); ok {
		uc.catalog.MessagesPerChatAvg.Set(avg)
	}
	if maxCount, ok := uc.sessionStats.Max(); ok {
		uc.catalog.MessagesPerChatMax.Set(maxCount)
	}
	return nil
}

func (uc *AnalyticsUsecase) recordResponseTime(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("negative response time %s: %w", d, domain.ErrInvalidPayload)
	}
	seconds := d.Seconds()

	uc.catalog.ResponseTimeSum.Add(seconds)
	uc.catalog.ResponseTimeCount.Inc()

	uc.timingMu.Lock()
	defer uc.timingMu.Unlock()
	if seconds > uc.maxResponse {
		uc.maxResponse = seconds
		uc.catalog.ResponseTimeMax.Set(seconds)
	}
	return nil
}

func (uc *AnalyticsUsecase) recordInteraction(ctx context.Context, in *domain.ModelInteraction) error {
	if in == nil || in.ModelType != domain.ModelTypeLLM {
		return nil
	}
	if in.InputTokens < 0 || in.OutputTokens < 0 {
		return fmt.Errorf("negative token count: %w", domain.ErrInvalidPayload)
	}

	// resolution may hit the settings store, keep it outside the usage lock
	model := uc.models.LLMName(ctx, in.Client)

	uc.catalog.LLMInputTokens.WithLabelValues(model).Add(float64(in.InputTokens))
	uc.catalog.LLMOutputTokens.WithLabelValues(model).Add(float64(in.OutputTokens))

	uc.usageMu.Lock()
	defer uc.usageMu.Unlock()

	stats, ok := uc.usage[model]
	if !ok {
		stats = &llmUsage{}
		uc.usage[model] = stats
	}
	stats.input.Observe(float64(in.InputTokens))
	stats.output.Observe(float64(in.OutputTokens))

	if avg, ok := stats.input.Average(); ok {
		uc.catalog.LLMInputTokensAvg.WithLabelValues(model).Set(avg)
	}
	if avg, ok := stats.output.Average(); ok {
		uc.catalog.LLMOutputTokensAvg.WithLabelValues(model).Set(avg)
	}
	return nil
}

// trackSentiment classifies outside every usecase lock; only collectors are touched afterwards.
func (uc *AnalyticsUsecase) trackSentiment(ctx context.Context, sender domain.Sender, text string) {
	obs := uc.analyzer.Analyze(ctx, text, sender)
	uc.catalog.SentimentScore.WithLabelValues(string(obs.Sender)).Observe(obs.Polarity)
	uc.catalog.SentimentCounts.WithLabelValues(string(obs.Sender), string(obs.Class)).Inc()
}

func (uc *AnalyticsUsecase) openTiming(userID, key string) {
	if key == "" {
		return
	}
	uc.timingMu.Lock()
	defer uc.timingMu.Unlock()

	if userID != "" {
		if prev, ok := uc.openTurns[userID]; ok && prev != key {
			uc.timings.Remove(prev)
		}
		uc.openTurns[userID] = key
	}
	uc.timings.Add(key, uc.now())
}

func (uc *AnalyticsUsecase) closeTiming(userID, key string) (time.Time, bool) {
	uc.timingMu.Lock()
	defer uc.timingMu.Unlock()

	if prev, ok := uc.openTurns[userID]; ok && prev == key {
		delete(uc.openTurns, userID)
	}
	startedAt, ok := uc.timings.Peek(key)
	if ok {
		uc.timings.Remove(key)
	}
	return startedAt, ok
}

// guard runs one metric update, absorbing its error or panic.
func (uc *AnalyticsUsecase) guard(event string, update func() error) {
	defer func() {
		if r := recover(); r != nil {
			uc.fail(event, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := update(); err != nil {
		uc.fail(event, err)
	}
}

func (uc *AnalyticsUsecase) fail(event string, err error) {
	uc.catalog.AnalyticsErrors.WithLabelValues(event).Inc()
	uc.logger.Error("analytics update failed",
		zap.String("event", event),
		zap.Error(err),
	)
}

// turnKey falls back to the user id when the host does not send a turn id.
func turnKey(turnID, userID string) string {
	if turnID != "" {
		return turnID
	}
	return userID
}
