package configs

import (
	"fmt"
	"strings"

	"usage-ingestion/internal/shared/validators"

	"github.com/spf13/viper"
)

const envPrefix = "USAGE"

// LoadConfig reads configuration from file, applies USAGE_* environment overrides and validates it.
var LoadConfig = func(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", configPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validators.New()
	if err := validate.Struct(&cfg); err != nil {
		var validationErrors []string
		if ve, ok := err.(validators.ValidationErrors); ok {
			for _, e := range ve {
				validationErrors = append(validationErrors, formatValidationError(e))
			}
		}
		return nil, fmt.Errorf("config validation failed: %s", strings.Join(validationErrors, ", "))
	}
	if err := validateSink(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers values for keys that may be omitted from the file.
// AutomaticEnv only resolves keys viper already knows about, so every
// overridable key needs a default here or an entry in the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.shutdown_timeout", 10)
	v.SetDefault("buffer.use_estimator", true)
	v.SetDefault("estimator.reset_after_seconds", 300)
	v.SetDefault("estimator.overflow_threshold", 0.05)
	v.SetDefault("estimator.increase_ratio", 0.25)
	v.SetDefault("publisher.compression", "gzip")
	v.SetDefault("publisher.reconnect_initial_interval_ms", 500)
	v.SetDefault("publisher.reconnect_max_interval_ms", 10_000)
	v.SetDefault("publisher.max_reconnect_attempts", 10)
	v.SetDefault("kafka.client_id", "usage-ingestion")
	v.SetDefault("kafka.tls", false)
	v.SetDefault("kafka.sasl_username", "")
	v.SetDefault("kafka.sasl_password", "")
	v.SetDefault("kafka.record_retries", 3)
	v.SetDefault("kafka.request_timeout_seconds", 30)
	v.SetDefault("validation.max_body_bytes", 5*1024*1024)
	v.SetDefault("validation.operation_cache_size", 1000)
	v.SetDefault("validation.operation_cache_ttl_seconds", 3600)
}

// validateSink checks the settings that only matter for the selected sink.
func validateSink(cfg *Config) error {
	switch cfg.Publisher.Sink {
	case "kafka":
		if len(cfg.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers (required)")
		}
		if cfg.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic (required)")
		}
		if (cfg.Kafka.SASLUsername == "") != (cfg.Kafka.SASLPassword == "") {
			return fmt.Errorf("kafka.sasl_username and kafka.sasl_password must be set together")
		}
	case "file":
		if cfg.FileStorage.RootDir == "" {
			return fmt.Errorf("file_storage.root_dir (required)")
		}
	}
	return nil
}

// formatValidationError formats a single validation error into a readable string.
func formatValidationError(e validators.FieldError) string {
	field := e.Field()
	tag := e.Tag()

	// "Config.Server.Port" -> "server.port"
	if e.StructNamespace() != "" {
		parts := strings.Split(e.StructNamespace(), ".")
		if len(parts) >= 2 {
			field = strings.ToLower(strings.Join(parts[1:], "."))
		}
	}

	switch tag {
	case "required":
		return fmt.Sprintf("%s (required)", field)
	case "min", "max", "oneof", "gte", "lte":
		return fmt.Sprintf("%s (%s=%s)", field, tag, e.Param())
	default:
		return fmt.Sprintf("%s (%s)", field, tag)
	}
}
