package app

import (
	"path/filepath"
	"testing"

	"usage-ingestion/internal/models"
	"usage-ingestion/internal/publishers"
	"usage-ingestion/internal/shared/configs"
	"usage-ingestion/internal/shared/loggers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sink    string
		wantErr bool
	}{
		{name: "kafka", sink: sinkKafka},
		{name: "file", sink: sinkFile},
		{name: "unknown sink", sink: "s3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &configs.Config{}
			config.Publisher.Sink = tt.sink
			config.Buffer.LimitInBytes = 4096
			config.Kafka.Brokers = []string{"localhost:9092"}
			config.Kafka.Topic = "usage"
			config.FileStorage.RootDir = filepath.Join(t.TempDir(), "storage")

			producer, err := newProducer(config, publishers.CompressionGzip, loggers.Nop())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, producer)
		})
	}
}

func TestTokenInfos(t *testing.T) {
	t.Parallel()

	got := tokenInfos([]configs.TokenConfig{
		{Token: "a", Target: "acme/web/prod", Organization: "acme", Project: "web", RetentionDays: 30},
		{Token: "b", Target: "acme/api/dev"},
	})

	assert.Equal(t, []models.TokenInfo{
		{Token: "a", Target: "acme/web/prod", Organization: "acme", Project: "web", RetentionDays: 30},
		{Token: "b", Target: "acme/api/dev"},
	}, got)
}
