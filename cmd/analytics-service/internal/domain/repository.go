package domain

import "context"

// Setting names looked up in the host's settings store.
const (
	SettingLLMSelected      = "llm_selected"
	SettingEmbedderSelected = "embedder_selected"
	SettingAnalytics        = "analytics_settings"
)

// Setting is one record of the host's settings store.
type Setting struct {
	Name  string
	Value map[string]any
}

// String returns Value[key] when it is a non-empty string.
func (s *Setting) String(key string) string {
	if s == nil || s.Value == nil {
		return ""
	}
	v, _ := s.Value[key].(string)
	return v
}

// Bool returns Value[key] and whether it was present as a boolean.
func (s *Setting) Bool(key string) (bool, bool) {
	if s == nil || s.Value == nil {
		return false, false
	}
	v, ok := s.Value[key].(bool)
	return v, ok
}

// SettingsRepository reads the host's settings store.
type SettingsRepository interface {
	GetSetting(ctx context.Context, name string) (*Setting, error)
	Ping(ctx context.Context) error
}

// VectorStatsRepository reports the size of the vector memory.
type VectorStatsRepository interface {
	CountPoints(ctx context.Context, collection string) (int64, error)
	CountSources(ctx context.Context, collection string) (int64, error)
}
