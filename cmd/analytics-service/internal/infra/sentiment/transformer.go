package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/pkg/clients/algo"
)

const (
	// BackendTransformer 多语言分类模型后端名称
	BackendTransformer = "transformer"

	// DefaultTransformerModel 默认分类模型
	DefaultTransformerModel = "cardiffnlp/twitter-xlm-roberta-base-sentiment"
)

// TransformerConfig 分类模型服务配置
type TransformerConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

type classifyRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// LabelScore 单个标签的概率
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type classifyResponse struct {
	Scores []LabelScore `json:"scores"`
}

// TransformerBackend asks a remote multilingual classifier for per-label
// probabilities and reports P(positive) - P(negative).
type TransformerBackend struct {
	client *algo.BaseClient
	model  string
}

// NewTransformerBackend 创建分类模型后端
func NewTransformerBackend(cfg TransformerConfig) *TransformerBackend {
	if cfg.Model == "" {
		cfg.Model = DefaultTransformerModel
	}
	return &TransformerBackend{
		client: algo.NewBaseClient(algo.BaseClientConfig{
			ServiceName: "sentiment-transformer",
			BaseURL:     cfg.BaseURL,
			Timeout:     cfg.Timeout,
		}),
		model: cfg.Model,
	}
}

// Name 后端名称
func (b *TransformerBackend) Name() string {
	return BackendTransformer
}

// HealthCheck 检查分类模型服务
func (b *TransformerBackend) HealthCheck(ctx context.Context) error {
	return b.client.HealthCheck(ctx)
}

// Classify 返回文本极性
func (b *TransformerBackend) Classify(ctx context.Context, text string) (float64, error) {
	var resp classifyResponse
	if err := b.client.Post(ctx, "/classify", classifyRequest{Model: b.model, Text: text}, &resp); err != nil {
		return domain.NeutralPolarity, fmt.Errorf("classify: %w", err)
	}
	return PolarityFromScores(resp.Scores), nil
}

// PolarityFromScores folds label probabilities into a polarity.
func PolarityFromScores(scores []LabelScore) float64 {
	var positive, negative float64
	for _, s := range scores {
		switch NormalizeLabel(s.Label) {
		case domain.SentimentPositive:
			positive += s.Score
		case domain.SentimentNegative:
			negative += s.Score
		}
	}
	return positive - negative
}

// NormalizeLabel maps the label vocabularies of common sentiment models onto
// negative/neutral/positive. Unrecognised labels map to neutral.
func NormalizeLabel(label string) domain.SentimentClass {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive", "pos", "label_2", "4 stars", "5 stars":
		return domain.SentimentPositive
	case "negative", "neg", "label_0", "1 star", "2 stars":
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}
