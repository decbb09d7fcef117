package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverAndLog = `server:
  port: 8080
  read_header_timeout: 5
  read_timeout: 10
  write_timeout: 10
  idle_timeout: 60
log:
  level: debug
`

const bufferSection = `buffer:
  size: 1200
  interval_ms: 1000
  limit_in_bytes: 900000
  use_estimator: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "configs.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_ValidKafkaConfig(t *testing.T) {
	path := writeConfig(t, serverAndLog+bufferSection+`publisher:
  sink: kafka
  compression: zstd
kafka:
  brokers: ["broker-1:9093", "broker-2:9093"]
  topic: usage
  tls: true
  sasl_username: $ConnectionString
  sasl_password: secret
tokens:
  - token: abc
    target: org/project/target
    retention_days: 7
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 1200, cfg.Buffer.Size)
	assert.Equal(t, 900000, cfg.Buffer.LimitInBytes)
	assert.True(t, cfg.Buffer.UseEstimator)
	assert.Equal(t, "kafka", cfg.Publisher.Sink)
	assert.Equal(t, "zstd", cfg.Publisher.Compression)
	assert.Equal(t, 10, cfg.Publisher.MaxReconnectAttempts)
	assert.Equal(t, []string{"broker-1:9093", "broker-2:9093"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.TLS)
	assert.Equal(t, "usage-ingestion", cfg.Kafka.ClientID)
	assert.Equal(t, 300, cfg.Estimator.ResetAfter)
	assert.InDelta(t, 0.25, cfg.Estimator.IncreaseRatio, 1e-9)
	assert.Equal(t, 5*1024*1024, cfg.Validation.MaxBodyBytes)
	require.Len(t, cfg.Tokens, 1)
	assert.Equal(t, "org/project/target", cfg.Tokens[0].Target)
	assert.Equal(t, 7, cfg.Tokens[0].RetentionDays)
}

func TestLoadConfig_ValidFileConfig(t *testing.T) {
	path := writeConfig(t, serverAndLog+bufferSection+`publisher:
  sink: file
file_storage:
  root_dir: ./data
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Publisher.Sink)
	assert.Equal(t, "gzip", cfg.Publisher.Compression)
	assert.Equal(t, "./data", cfg.FileStorage.RootDir)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	path := writeConfig(t, serverAndLog+bufferSection+`publisher:
  sink: file
file_storage:
  root_dir: ./data
`)
	t.Setenv("USAGE_BUFFER_LIMIT_IN_BYTES", "500000")
	t.Setenv("USAGE_PUBLISHER_COMPRESSION", "none")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 500000, cfg.Buffer.LimitInBytes)
	assert.Equal(t, "none", cfg.Publisher.Compression)
}

func TestLoadConfig_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name: "missing port",
			content: `server:
  read_header_timeout: 5
  read_timeout: 10
  write_timeout: 10
  idle_timeout: 60
log:
  level: info
` + bufferSection + `publisher:
  sink: file
file_storage:
  root_dir: ./data
`,
			wantMsg: "server.port (required)",
		},
		{
			name: "port out of range",
			content: `server:
  port: 70000
  read_header_timeout: 5
  read_timeout: 10
  write_timeout: 10
  idle_timeout: 60
log:
  level: info
` + bufferSection + `publisher:
  sink: file
file_storage:
  root_dir: ./data
`,
			wantMsg: "server.port (max=65535)",
		},
		{
			name: "unknown sink",
			content: serverAndLog + bufferSection + `publisher:
  sink: s3
`,
			wantMsg: "publisher.sink (oneof=kafka file)",
		},
		{
			name: "unknown compression",
			content: serverAndLog + bufferSection + `publisher:
  sink: file
  compression: brotli
file_storage:
  root_dir: ./data
`,
			wantMsg: "publisher.compression (oneof=none gzip zstd)",
		},
		{
			name: "kafka without brokers",
			content: serverAndLog + bufferSection + `publisher:
  sink: kafka
kafka:
  topic: usage
`,
			wantMsg: "kafka.brokers (required)",
		},
		{
			name: "sasl username without password",
			content: serverAndLog + bufferSection + `publisher:
  sink: kafka
kafka:
  brokers: ["b:9092"]
  topic: usage
  sasl_username: user
`,
			wantMsg: "must be set together",
		},
		{
			name: "file sink without root dir",
			content: serverAndLog + bufferSection + `publisher:
  sink: file
`,
			wantMsg: "file_storage.root_dir (required)",
		},
		{
			name: "token without target",
			content: serverAndLog + bufferSection + `publisher:
  sink: file
file_storage:
  root_dir: ./data
tokens:
  - token: abc
`,
			wantMsg: "tokens[0].target (required)",
		},
		{
			name: "limit below minimum",
			content: serverAndLog + `buffer:
  size: 10
  interval_ms: 100
  limit_in_bytes: 10
publisher:
  sink: file
file_storage:
  root_dir: ./data
`,
			wantMsg: "buffer.limitinbytes (min=1024)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tt.content))
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_RepositoryConfig(t *testing.T) {
	cfg, err := LoadConfig("../../../configs/configs.yml")
	require.NoError(t, err)
	assert.Equal(t, "kafka", cfg.Publisher.Sink)
	assert.Equal(t, 990000/1200, cfg.Buffer.LimitInBytes/cfg.Buffer.Size)
}
