package service

import (
	"context"
	"encoding/json"
	"testing"

	"chatanalytics/cmd/analytics-service/internal/biz"
	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/cmd/analytics-service/internal/metrics"
	"chatanalytics/pkg/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedBackend struct{ polarity float64 }

func (b fixedBackend) Name() string { return "fixed" }

func (b fixedBackend) Classify(context.Context, string) (float64, error) { return b.polarity, nil }

type namer struct{}

func (namer) LLMName(context.Context, *domain.ModelHint) string      { return "gpt-4o" }
func (namer) EmbedderName(context.Context, *domain.ModelHint) string { return "e5" }

func newTestService(t *testing.T) (*AnalyticsService, *metrics.Catalog) {
	t.Helper()
	catalog := metrics.NewCatalog(prometheus.NewRegistry())
	analyzer := biz.NewSentimentAnalyzer(fixedBackend{polarity: 0.8}, biz.DefaultMaxSentimentChars, catalog, zap.NewNop())
	uc := biz.NewAnalyticsUsecase(catalog, analyzer, biz.StaticFlags(domain.DefaultFlags()), namer{}, biz.WordCounter{}, biz.AnalyticsOptions{}, zap.NewNop())
	return NewAnalyticsService(uc), catalog
}

func TestDispatch_AllEvents(t *testing.T) {
	s, catalog := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.Dispatch(ctx, domain.EventMessageReceived,
		json.RawMessage(`{"turn_id":"t1","user_id":"u1","text":"I love it","locale_hint":"en-US"}`)))
	require.NoError(t, s.Dispatch(ctx, domain.EventMemoriesRecalled,
		json.RawMessage(`{"turn_id":"t1","user_id":"u1","sources":["https://a.com/x/y"]}`)))
	require.NoError(t, s.Dispatch(ctx, domain.EventResponseEmitted,
		json.RawMessage(`{"turn_id":"t1","user_id":"u1","interaction":{"model_type":"llm","input_tokens":10,"output_tokens":4}}`)))
	require.NoError(t, s.Dispatch(ctx, domain.EventDocumentsStored,
		json.RawMessage(`{"documents":["one two three"]}`)))
	require.NoError(t, s.Dispatch(ctx, domain.EventFastReplyEmitted,
		json.RawMessage(`{"turn_id":"t2","user_id":"u1","text":"hi"}`)))
	require.NoError(t, s.Dispatch(ctx, domain.EventFeedback,
		json.RawMessage(`{"user_id":"u1","positive":true}`)))

	assert.Equal(t, 1.0, testutil.ToFloat64(catalog.MessagesTotal.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(catalog.MessagesByLanguage.WithLabelValues("en")))
	assert.Equal(t, 1.0, testutil.ToFloat64(catalog.DocumentsRetrieved.WithLabelValues("https://a.com/x")))
	assert.Equal(t, 10.0, testutil.ToFloat64(catalog.LLMInputTokens.WithLabelValues("gpt-4o")))
	assert.Equal(t, 3.0, testutil.ToFloat64(catalog.EmbeddingTokens.WithLabelValues("e5")))
	assert.Equal(t, 1.0, testutil.ToFloat64(catalog.FeedbackTotal.WithLabelValues("positive")))
}

func TestDispatch_Errors(t *testing.T) {
	s, catalog := newTestService(t)
	ctx := context.Background()

	err := s.Dispatch(ctx, "something_else", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)

	err = s.Dispatch(ctx, domain.EventMessageReceived, json.RawMessage(`{"text":`))
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	err = s.Dispatch(ctx, domain.EventMessageReceived, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	assert.Equal(t, 0, testutil.CollectAndCount(catalog.MessagesTotal))
}

func TestHandleEnvelope(t *testing.T) {
	s, catalog := newTestService(t)

	env, err := events.NewEnvelope(string(domain.EventMessageReceived), domain.MessageReceived{UserID: "u9", Text: "fine"})
	require.NoError(t, err)
	require.NoError(t, s.HandleEnvelope(context.Background(), env))

	assert.Equal(t, 1.0, testutil.ToFloat64(catalog.MessagesTotal.WithLabelValues("user")))
	assert.Len(t, s.SupportedEventTypes(), 6)
}

func TestRecordFeedback(t *testing.T) {
	s, catalog := newTestService(t)

	s.RecordFeedback(context.Background(), "u1", false, false)
	s.RecordFeedback(context.Background(), "u1", false, true)
	s.RecordFeedback(context.Background(), "u1", false, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(catalog.FeedbackTotal.WithLabelValues("negative")))
	assert.Equal(t, 1.0, testutil.ToFloat64(catalog.FeedbackTotal.WithLabelValues("positive")))
}
