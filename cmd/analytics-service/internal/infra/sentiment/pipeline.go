package sentiment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/pkg/clients/algo"

	"go.uber.org/zap"
)

const (
	// BackendPipeline NLP 流水线后端名称
	BackendPipeline = "pipeline"

	// DefaultPipelineModel 默认多语言模型
	DefaultPipelineModel = "xx_sent_ud_sm"
)

// PipelineConfig NLP 流水线配置
type PipelineConfig struct {
	BaseURL         string
	Model           string
	Timeout         time.Duration
	DownloadTimeout time.Duration
}

type analyzeRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

type analyzeResponse struct {
	Polarity  *float64 `json:"polarity"`
	Sentences []struct {
		Polarity float64 `json:"polarity"`
	} `json:"sentences"`
}

// score prefers the document polarity and falls back to the sentence mean.
func (r *analyzeResponse) score() float64 {
	if r.Polarity != nil {
		return *r.Polarity
	}
	if len(r.Sentences) == 0 {
		return domain.NeutralPolarity
	}
	var sum float64
	for _, s := range r.Sentences {
		sum += s.Polarity
	}
	return sum / float64(len(r.Sentences))
}

// pipelineModels 通过 HTTP 管理模型
type pipelineModels struct {
	client     *algo.BaseClient
	downloader *algo.BaseClient
}

func (m *pipelineModels) Load(ctx context.Context, model string) error {
	err := m.client.Post(ctx, "/models/"+url.PathEscape(model)+"/load", nil, nil)
	if algo.StatusCode(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrModelNotInstalled, model)
	}
	return err
}

func (m *pipelineModels) Download(ctx context.Context, model string) error {
	return m.downloader.Post(ctx, "/models/"+url.PathEscape(model)+"/download", nil, nil)
}

// PipelineBackend classifies text with a remote NLP pipeline that needs a
// named language model. The model is acquired lazily on first use; once the
// acquisition fails the backend reports neutral polarity for the rest of the
// process.
type PipelineBackend struct {
	client *algo.BaseClient
	model  string
	loader *ModelLoader
}

// NewPipelineBackend 创建流水线后端
func NewPipelineBackend(cfg PipelineConfig, logger *zap.Logger) *PipelineBackend {
	if cfg.Model == "" {
		cfg.Model = DefaultPipelineModel
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = DefaultDownloadTimeout
	}

	client := algo.NewBaseClient(algo.BaseClientConfig{
		ServiceName: "sentiment-pipeline",
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
	})
	downloader := algo.NewBaseClient(algo.BaseClientConfig{
		ServiceName: "sentiment-pipeline-download",
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.DownloadTimeout,
		MaxRetries:  -1,
	})

	return &PipelineBackend{
		client: client,
		model:  cfg.Model,
		loader: NewModelLoader(&pipelineModels{client: client, downloader: downloader}, cfg.DownloadTimeout, logger),
	}
}

// Name 后端名称
func (b *PipelineBackend) Name() string {
	return BackendPipeline
}

// Warm acquires the model ahead of the first message.
func (b *PipelineBackend) Warm(ctx context.Context) error {
	return b.loader.Ensure(ctx, b.model)
}

// ModelState reports whether model acquisition finished and how.
func (b *PipelineBackend) ModelState() (done bool, err error) {
	return b.loader.Result(b.model)
}

// HealthCheck 检查流水线服务
func (b *PipelineBackend) HealthCheck(ctx context.Context) error {
	return b.client.HealthCheck(ctx)
}

// Classify 返回文本极性
func (b *PipelineBackend) Classify(ctx context.Context, text string) (float64, error) {
	if err := b.loader.Ensure(ctx, b.model); err != nil {
		// permanent fallback, already logged by the loader
		return domain.NeutralPolarity, nil
	}

	var resp analyzeResponse
	if err := b.client.Post(ctx, "/analyze", analyzeRequest{Model: b.model, Text: text}, &resp); err != nil {
		return domain.NeutralPolarity, fmt.Errorf("analyze: %w", err)
	}
	return resp.score(), nil
}
