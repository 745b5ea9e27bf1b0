package biz

import (
	"context"
	"errors"

	"chatanalytics/cmd/analytics-service/internal/domain"

	"go.uber.org/zap"
)

// UnknownModel 无法解析时的模型名
const UnknownModel = "unknown"

// ModelNameResolver resolves the display name of the model behind an
// interaction. The settings store is consulted first through its "selected"
// pointer record, then the hint sent with the event, then "unknown".
type ModelNameResolver struct {
	settings domain.SettingsRepository
	logger   *zap.Logger
}

// NewModelNameResolver 创建模型名解析器
func NewModelNameResolver(settings domain.SettingsRepository, logger *zap.Logger) *ModelNameResolver {
	return &ModelNameResolver{
		settings: settings,
		logger:   logger.With(zap.String("component", "chat_analytics")),
	}
}

// LLMName 解析语言模型名称
func (r *ModelNameResolver) LLMName(ctx context.Context, hint *domain.ModelHint) string {
	if name := r.fromSettings(ctx, domain.SettingLLMSelected, "model_name", "model", "repo_id"); name != "" {
		return name
	}
	return fromHint(hint, true)
}

// EmbedderName 解析嵌入模型名称
func (r *ModelNameResolver) EmbedderName(ctx context.Context, hint *domain.ModelHint) string {
	if name := r.fromSettings(ctx, domain.SettingEmbedderSelected, "model_name", "model"); name != "" {
		return name
	}
	return fromHint(hint, false)
}

func (r *ModelNameResolver) fromSettings(ctx context.Context, selected string, fields ...string) string {
	if r.settings == nil {
		return ""
	}

	pointer, err := r.settings.GetSetting(ctx, selected)
	if err != nil {
		r.logLookup(selected, err)
		return ""
	}
	configName := pointer.String("name")
	if configName == "" {
		return ""
	}

	record, err := r.settings.GetSetting(ctx, configName)
	if err != nil {
		r.logLookup(configName, err)
		return ""
	}
	for _, field := range fields {
		if v := record.String(field); v != "" {
			return v
		}
	}
	return configName
}

func (r *ModelNameResolver) logLookup(name string, err error) {
	if errors.Is(err, domain.ErrSettingNotFound) {
		return
	}
	r.logger.Warn("model name lookup failed",
		zap.String("event", "model_name_resolution"),
		zap.String("setting", name),
		zap.Error(err),
	)
}

func fromHint(hint *domain.ModelHint, withRepo bool) string {
	if hint == nil {
		return UnknownModel
	}
	candidates := []string{hint.ModelName, hint.Model}
	if withRepo {
		candidates = append(candidates, hint.RepoID)
	}
	candidates = append(candidates, hint.Class)
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return UnknownModel
}
