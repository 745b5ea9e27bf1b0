package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SentimentScoreBuckets 情绪分数直方图桶
var SentimentScoreBuckets = []float64{-1, -0.6, -0.2, -0.05, 0.05, 0.2, 0.6, 1}

// LegacySentimentHistogram 旧版情绪直方图名称，其 _bucket 行在导出时被过滤
const LegacySentimentHistogram = "chatbot_chat_sentiment_score"

// Catalog 聊天分析指标目录
//
// All collectors are registered on a private registry so the exposition only
// ever contains chatbot metrics.
type Catalog struct {
	registry *prometheus.Registry

	// Message metrics
	MessagesTotal      *prometheus.CounterVec
	MessagesByLanguage *prometheus.CounterVec
	SessionsTotal      prometheus.Counter
	MessagesPerChatAvg prometheus.Gauge
	MessagesPerChatMax prometheus.Gauge
	ResponseTimeSum    prometheus.Counter
	ResponseTimeCount  prometheus.Counter
	ResponseTimeMax    prometheus.Gauge
	LLMInputTokens     *prometheus.CounterVec
	LLMOutputTokens    *prometheus.CounterVec
	LLMInputTokensAvg  *prometheus.GaugeVec
	LLMOutputTokensAvg *prometheus.GaugeVec

	// Sentiment metrics
	SentimentScore  *prometheus.HistogramVec
	SentimentCounts *prometheus.CounterVec

	// RAG metrics
	DocumentsRetrieved *prometheus.CounterVec
	NoRelevantMemory   prometheus.Counter
	EmbeddingTokens    *prometheus.CounterVec

	// Vector memory
	VectorMemoryPoints  *prometheus.GaugeVec
	VectorMemorySources *prometheus.GaugeVec

	// Feedback and info
	FeedbackTotal *prometheus.CounterVec
	InstanceInfo  *prometheus.GaugeVec
	PluginInfo    *prometheus.GaugeVec

	// Self observability
	AnalyticsErrors       *prometheus.CounterVec
	SentimentErrors       *prometheus.CounterVec
	SentimentBackendReady *prometheus.GaugeVec
}

// NewCatalog 创建并注册所有指标
func NewCatalog(registry *prometheus.Registry) *Catalog {
	c := &Catalog{
		registry: registry,

		MessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_chat_messages_total",
				Help: "Total number of chat messages",
			},
			[]string{"sender"},
		),
		MessagesByLanguage: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_chat_messages_by_language_total",
				Help: "Total number of user messages by language",
			},
			[]string{"lang"},
		),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatbot_chat_sessions_total",
			Help: "Total number of chat sessions",
		}),
		MessagesPerChatAvg: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatbot_chat_messages_per_chat_avg",
			Help: "Average number of messages per chat session",
		}),
		MessagesPerChatMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatbot_chat_messages_per_chat_max",
			Help: "Maximum number of messages in a single chat session",
		}),
		ResponseTimeSum: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatbot_chat_response_time_seconds_sum",
			Help: "Sum of response times in seconds",
		}),
		ResponseTimeCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatbot_chat_response_time_seconds_count",
			Help: "Number of measured responses",
		}),
		ResponseTimeMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatbot_chat_response_time_seconds_max",
			Help: "Maximum response time in seconds",
		}),
		LLMInputTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_llm_input_tokens_total",
				Help: "Total number of input tokens sent to the LLM",
			},
			[]string{"model"},
		),
		LLMOutputTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_llm_output_tokens_total",
				Help: "Total number of output tokens produced by the LLM",
			},
			[]string{"model"},
		),
		LLMInputTokensAvg: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chatbot_llm_input_tokens_avg",
				Help: "Average number of input tokens per LLM call",
			},
			[]string{"model"},
		),
		LLMOutputTokensAvg: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chatbot_llm_output_tokens_avg",
				Help: "Average number of output tokens per LLM call",
			},
			[]string{"model"},
		),

		SentimentScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    LegacySentimentHistogram,
				Help:    "Sentiment polarity of chat messages",
				Buckets: SentimentScoreBuckets,
			},
			[]string{"sender"},
		),
		SentimentCounts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_chat_sentiment_counts",
				Help: "Number of messages per sentiment class",
			},
			[]string{"sender", "type"},
		),

		DocumentsRetrieved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_rag_documents_retrieved_total",
				Help: "Total number of documents retrieved per source cluster",
			},
			[]string{"source"},
		),
		NoRelevantMemory: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatbot_chat_no_relevant_memory_total",
			Help: "Number of turns answered with the fallback message",
		}),
		EmbeddingTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_embedding_tokens_total",
				Help: "Total number of tokens embedded into memory",
			},
			[]string{"model"},
		),

		VectorMemoryPoints: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chatbot_vector_memory_points_total",
				Help: "Number of points stored in a vector memory collection",
			},
			[]string{"collection"},
		),
		VectorMemorySources: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chatbot_vector_memory_sources_total",
				Help: "Number of distinct sources stored in a vector memory collection",
			},
			[]string{"collection"},
		),

		FeedbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_feedback_total",
				Help: "Total number of user feedback events",
			},
			[]string{"type"},
		),
		InstanceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chatbot_instance_info",
				Help: "Chatbot instance information",
			},
			[]string{"core_version", "frontend_version"},
		),
		PluginInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chatbot_plugin_info",
				Help: "Analytics plugin information",
			},
			[]string{"plugin_id", "version"},
		),

		AnalyticsErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_analytics_errors_total",
				Help: "Metric updates that failed and were skipped",
			},
			[]string{"event"},
		),
		SentimentErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_sentiment_errors_total",
				Help: "Sentiment classifications that degraded to neutral",
			},
			[]string{"backend"},
		),
		SentimentBackendReady: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chatbot_sentiment_backend_ready",
				Help: "Whether the sentiment backend acquired its model (1) or not (0)",
			},
			[]string{"backend"},
		),
	}

	registry.MustRegister(
		c.MessagesTotal,
		c.MessagesByLanguage,
		c.SessionsTotal,
		c.MessagesPerChatAvg,
		c.MessagesPerChatMax,
		c.ResponseTimeSum,
		c.ResponseTimeCount,
		c.ResponseTimeMax,
		c.LLMInputTokens,
		c.LLMOutputTokens,
		c.LLMInputTokensAvg,
		c.LLMOutputTokensAvg,
		c.SentimentScore,
		c.SentimentCounts,
		c.DocumentsRetrieved,
		c.NoRelevantMemory,
		c.EmbeddingTokens,
		c.VectorMemoryPoints,
		c.VectorMemorySources,
		c.FeedbackTotal,
		c.InstanceInfo,
		c.PluginInfo,
		c.AnalyticsErrors,
		c.SentimentErrors,
		c.SentimentBackendReady,
	)

	return c
}

// Registry 返回私有注册表
func (c *Catalog) Registry() *prometheus.Registry {
	return c.registry
}

// SetInstanceInfo 记录实例版本信息
func (c *Catalog) SetInstanceInfo(coreVersion, frontendVersion string) {
	c.InstanceInfo.WithLabelValues(coreVersion, frontendVersion).Set(1)
}

// SetPluginInfo 记录插件信息
func (c *Catalog) SetPluginInfo(pluginID, version string) {
	c.PluginInfo.WithLabelValues(pluginID, version).Set(1)
}
