package configs

// Config holds all configuration for the application.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Log         LogConfig         `mapstructure:"log" validate:"required"`
	Buffer      BufferConfig      `mapstructure:"buffer" validate:"required"`
	Estimator   EstimatorConfig   `mapstructure:"estimator" validate:"required"`
	Publisher   PublisherConfig   `mapstructure:"publisher" validate:"required"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	FileStorage FileStorageConfig `mapstructure:"file_storage"`
	Validation  ValidationConfig  `mapstructure:"validation" validate:"required"`
	Tokens      []TokenConfig     `mapstructure:"tokens" validate:"dive"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port              int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadHeaderTimeout int `mapstructure:"read_header_timeout" validate:"required,min=1"` // seconds
	ReadTimeout       int `mapstructure:"read_timeout" validate:"required,min=1"`        // seconds (headers+body)
	WriteTimeout      int `mapstructure:"write_timeout" validate:"required,min=1"`       // seconds (response)
	IdleTimeout       int `mapstructure:"idle_timeout" validate:"required,min=1"`        // seconds (keep-alive)
	ShutdownTimeout   int `mapstructure:"shutdown_timeout" validate:"min=0"`             // seconds, 0 means 10
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required"`
}

// BufferConfig controls when accumulated reports are flushed.
type BufferConfig struct {
	Size         int  `mapstructure:"size" validate:"required,min=1"`                // nominal units per batch
	Interval     int  `mapstructure:"interval_ms" validate:"required,min=1"`         // milliseconds
	LimitInBytes int  `mapstructure:"limit_in_bytes" validate:"required,min=1024"`   // hard per-publish ceiling
	UseEstimator bool `mapstructure:"use_estimator"`
}

// EstimatorConfig tunes the bytes-per-unit learner.
type EstimatorConfig struct {
	ResetAfter        int     `mapstructure:"reset_after_seconds" validate:"required,min=1"`
	OverflowThreshold float64 `mapstructure:"overflow_threshold" validate:"gte=0,lte=1"`
	IncreaseRatio     float64 `mapstructure:"increase_ratio" validate:"gte=0,lte=1"`
}

// PublisherConfig selects the sink and its failure handling.
type PublisherConfig struct {
	Sink                     string `mapstructure:"sink" validate:"required,oneof=kafka file"`
	Compression              string `mapstructure:"compression" validate:"required,oneof=none gzip zstd"`
	ReconnectInitialInterval int    `mapstructure:"reconnect_initial_interval_ms" validate:"required,min=1"`
	ReconnectMaxInterval     int    `mapstructure:"reconnect_max_interval_ms" validate:"required,min=1"`
	MaxReconnectAttempts     int    `mapstructure:"max_reconnect_attempts" validate:"required,min=1"`
}

// KafkaConfig holds broker connection settings. Required when publisher.sink is kafka.
type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	Topic          string   `mapstructure:"topic"`
	ClientID       string   `mapstructure:"client_id"`
	TLS            bool     `mapstructure:"tls"`
	SASLUsername   string   `mapstructure:"sasl_username"`
	SASLPassword   string   `mapstructure:"sasl_password"`
	RecordRetries  int      `mapstructure:"record_retries" validate:"min=0"`
	RequestTimeout int      `mapstructure:"request_timeout_seconds" validate:"min=0"` // seconds
}

// FileStorageConfig holds file storage configuration. Required when publisher.sink is file.
type FileStorageConfig struct {
	RootDir string `mapstructure:"root_dir"`
}

// ValidationConfig bounds request bodies and the operation parse cache.
type ValidationConfig struct {
	MaxBodyBytes       int `mapstructure:"max_body_bytes" validate:"required,min=1"`
	OperationCacheSize int `mapstructure:"operation_cache_size" validate:"required,min=1"`
	OperationCacheTTL  int `mapstructure:"operation_cache_ttl_seconds" validate:"required,min=1"` // seconds
}

// TokenConfig maps an API token to the target its usage is recorded against.
type TokenConfig struct {
	Token         string `mapstructure:"token" validate:"required"`
	Target        string `mapstructure:"target" validate:"required"`
	Organization  string `mapstructure:"organization"`
	Project       string `mapstructure:"project"`
	RetentionDays int    `mapstructure:"retention_days" validate:"min=0"`
}
