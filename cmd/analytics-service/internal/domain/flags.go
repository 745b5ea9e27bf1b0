package domain

// DefaultFallbackMessage is the reply the context guardian sends when nothing relevant was recalled.
const DefaultFallbackMessage = "Sorry, I can't help you."

// Flags toggles metric families. Read once per event.
type Flags struct {
	EnableMessageMetrics   bool   `json:"enable_message_metrics" mapstructure:"enable_message_metrics"`
	EnableSentimentMetrics bool   `json:"enable_sentiment_metrics" mapstructure:"enable_sentiment_metrics"`
	EnableRAGMetrics       bool   `json:"enable_rag_metrics" mapstructure:"enable_rag_metrics"`
	DefaultMessage         string `json:"default_message" mapstructure:"default_message"`
}

// DefaultFlags enables every family.
func DefaultFlags() Flags {
	return Flags{
		EnableMessageMetrics:   true,
		EnableSentimentMetrics: true,
		EnableRAGMetrics:       true,
		DefaultMessage:         DefaultFallbackMessage,
	}
}
