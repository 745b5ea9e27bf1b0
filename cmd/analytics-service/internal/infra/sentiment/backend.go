package sentiment

import (
	"fmt"
	"strings"

	"chatanalytics/cmd/analytics-service/internal/biz"
	"chatanalytics/cmd/analytics-service/internal/domain"

	"go.uber.org/zap"
)

// Config 情绪后端配置
type Config struct {
	Backend     string
	Pipeline    PipelineConfig
	Transformer TransformerConfig
}

// NewBackend selects the sentiment backend named by the configuration. An
// unknown name disables classification instead of failing start-up.
func NewBackend(cfg Config, logger *zap.Logger) biz.SentimentBackend {
	logger = logger.With(zap.String("component", "chat_analytics"))

	switch strings.ToLower(cfg.Backend) {
	case BackendLexicon, "":
		return NewLexiconBackend()
	case BackendPipeline:
		return NewPipelineBackend(cfg.Pipeline, logger)
	case BackendTransformer:
		return NewTransformerBackend(cfg.Transformer)
	case BackendNone:
		return NoopBackend{}
	default:
		logger.Warn("sentiment classification disabled",
			zap.String("event", "sentiment_backend"),
			zap.Error(fmt.Errorf("%w: %q", domain.ErrUnknownBackend, cfg.Backend)),
		)
		return NoopBackend{}
	}
}
