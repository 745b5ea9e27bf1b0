package conf

import (
	"os"
	"strings"
	"time"

	"chatanalytics/cmd/analytics-service/internal/domain"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Analytics     AnalyticsConfig     `mapstructure:"analytics"`
	Sentiment     SentimentConfig     `mapstructure:"sentiment"`
	Settings      SettingsConfig      `mapstructure:"settings"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	VectorStore   VectorStoreConfig   `mapstructure:"vector_store"`
	Auth          AuthConfig          `mapstructure:"auth"`

	// Path 实际读取的配置文件
	Path string `mapstructure:"-"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	OTELEndpoint   string  `mapstructure:"otel_endpoint"`
	OTELProtocol   string  `mapstructure:"otel_protocol"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	Environment    string  `mapstructure:"environment"`
	EnableTrace    bool    `mapstructure:"enable_trace"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
	LogLevel       string  `mapstructure:"log_level"`
	LogFormat      string  `mapstructure:"log_format"`
}

// AnalyticsConfig 分析开关与实例信息
type AnalyticsConfig struct {
	EnableMessageMetrics   bool          `mapstructure:"enable_message_metrics"`
	EnableSentimentMetrics bool          `mapstructure:"enable_sentiment_metrics"`
	EnableRAGMetrics       bool          `mapstructure:"enable_rag_metrics"`
	TrackBotMessages       bool          `mapstructure:"track_bot_messages"`
	DefaultMessage         string        `mapstructure:"default_message"`
	FlagsTTL               time.Duration `mapstructure:"flags_ttl"`
	CoreVersion            string        `mapstructure:"core_version"`
	FrontendVersion        string        `mapstructure:"frontend_version"`
	PluginID               string        `mapstructure:"plugin_id"`
	PluginVersion          string        `mapstructure:"plugin_version"`
}

// Flags 转换为领域开关
func (c AnalyticsConfig) Flags() domain.Flags {
	return domain.Flags{
		EnableMessageMetrics:   c.EnableMessageMetrics,
		EnableSentimentMetrics: c.EnableSentimentMetrics,
		EnableRAGMetrics:       c.EnableRAGMetrics,
		DefaultMessage:         c.DefaultMessage,
	}
}

// SentimentConfig 情绪分析配置
type SentimentConfig struct {
	Backend  string `mapstructure:"backend"`
	MaxChars int    `mapstructure:"max_chars"`
	// Prewarm loads the model at start-up instead of on the first message.
	Prewarm bool `mapstructure:"prewarm"`
	// HealthThreshold 远程后端健康检查的慢响应阈值
	HealthThreshold time.Duration     `mapstructure:"health_threshold"`
	Pipeline        PipelineConfig    `mapstructure:"pipeline"`
	Transformer     TransformerConfig `mapstructure:"transformer"`
}

// PipelineConfig NLP 流水线服务配置
type PipelineConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	Timeout         time.Duration `mapstructure:"timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
}

// TransformerConfig 分类模型服务配置
type TransformerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SettingsConfig 设置存储配置
type SettingsConfig struct {
	Driver   string                    `mapstructure:"driver"`
	Records  map[string]map[string]any `mapstructure:"records"`
	Redis    RedisConfig               `mapstructure:"redis"`
	Database DatabaseConfig            `mapstructure:"database"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	DBName          string        `mapstructure:"dbname"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// KafkaConfig 生命周期事件消费配置
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
	Topics  []string `mapstructure:"topics"`
}

// VectorStoreConfig 向量库统计配置
type VectorStoreConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Address         string        `mapstructure:"address"`
	Collections     []string      `mapstructure:"collections"`
	SourceField     string        `mapstructure:"source_field"`
	QueryLimit      int64         `mapstructure:"query_limit"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret              string `mapstructure:"jwt_secret"`
	JWTAlgorithm           string `mapstructure:"jwt_algorithm"`
	Issuer                 string `mapstructure:"issuer"`
	TempSubjectPrefix      string `mapstructure:"temp_subject_prefix"`
	AllowTemporarySessions bool   `mapstructure:"allow_temporary_sessions"`
}

// setDefaults 默认配置
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 8006)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)

	v.SetDefault("observability.service_name", "analytics-service")
	v.SetDefault("observability.service_version", "1.0.0")
	v.SetDefault("observability.environment", "development")
	v.SetDefault("observability.otel_protocol", "grpc")
	v.SetDefault("observability.otel_endpoint", "localhost:4317")
	v.SetDefault("observability.sampling_rate", 1.0)
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "json")

	v.SetDefault("analytics.enable_message_metrics", true)
	v.SetDefault("analytics.enable_sentiment_metrics", true)
	v.SetDefault("analytics.enable_rag_metrics", true)
	v.SetDefault("analytics.default_message", domain.DefaultFallbackMessage)
	v.SetDefault("analytics.flags_ttl", 5*time.Second)
	v.SetDefault("analytics.plugin_id", "chat_analytics")

	v.SetDefault("sentiment.backend", "lexicon")
	v.SetDefault("sentiment.max_chars", 2000)
	v.SetDefault("sentiment.prewarm", true)
	v.SetDefault("sentiment.health_threshold", 2*time.Second)
	v.SetDefault("sentiment.pipeline.model", "xx_sent_ud_sm")
	v.SetDefault("sentiment.pipeline.timeout", 10*time.Second)
	v.SetDefault("sentiment.pipeline.download_timeout", 300*time.Second)
	v.SetDefault("sentiment.transformer.timeout", 10*time.Second)

	v.SetDefault("settings.driver", "memory")
	v.SetDefault("settings.redis.key_prefix", "chatbot")
	v.SetDefault("settings.database.port", 5432)
	v.SetDefault("settings.database.sslmode", "disable")

	v.SetDefault("kafka.group_id", "analytics-service")
	v.SetDefault("kafka.topics", []string{"chat.lifecycle"})

	v.SetDefault("vector_store.source_field", "source")
	v.SetDefault("vector_store.refresh_interval", time.Minute)

	v.SetDefault("auth.jwt_algorithm", "HS256")
	v.SetDefault("auth.temp_subject_prefix", "tmp_")
}

// newViper 创建带默认值与环境变量映射的 viper 实例
func newViper(configPath string) *viper.Viper {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("analytics-service")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	setDefaults(v)

	// 自动从环境变量读取
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	config, err := decode(v)
	if err != nil {
		return nil, err
	}
	config.Path = v.ConfigFileUsed()
	return config, nil
}

func decode(v *viper.Viper) (*Config, error) {
	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// 从环境变量覆盖敏感配置
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.Settings.Database.Password = password
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Settings.Redis.Password = password
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if endpoint := os.Getenv("OTEL_ENDPOINT"); endpoint != "" {
		config.Observability.OTELEndpoint = endpoint
	}

	return &config, nil
}
