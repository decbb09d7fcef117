package publishers

import (
	"bytes"
	"testing"

	"usage-ingestion/internal/shared/loggers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompress_RoundTrip(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte(`{"operationMapKey":"abc","timestamp":1700000000000}`), 200)

	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd} {
		t.Run(string(c), func(t *testing.T) {
			t.Parallel()

			compressed, err := Compress(payload, c)
			require.NoError(t, err)
			if c != CompressionNone {
				assert.Less(t, len(compressed), len(payload), "repetitive payload should shrink")
			}

			out, err := Decompress(compressed, c)
			require.NoError(t, err)
			assert.Equal(t, payload, out)
		})
	}
}

func TestCompress_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := Compress([]byte("x"), Compression("brotli"))
	require.Error(t, err)

	_, err = Decompress([]byte("x"), Compression("brotli"))
	require.Error(t, err)
}

func TestDecompress_Corrupt(t *testing.T) {
	t.Parallel()

	_, err := Decompress([]byte("not gzip"), CompressionGzip)
	require.Error(t, err)

	_, err = Decompress([]byte("not zstd"), CompressionZstd)
	require.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	t.Parallel()

	c, err := ParseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, c)
	assert.Equal(t, ".zst", c.extension())
	assert.Equal(t, ".gz", CompressionGzip.extension())
	assert.Equal(t, "", CompressionNone.extension())

	_, err = ParseCompression("lz4")
	require.Error(t, err)
}

func TestRecordHeaders_SortedByKey(t *testing.T) {
	t.Parallel()

	headers := recordHeaders(map[string]string{
		HeaderReports:         "2",
		HeaderBatchID:         "b1",
		HeaderOperations:      "7",
		HeaderContentEncoding: "gzip",
	})

	require.Len(t, headers, 4)
	keys := make([]string, 0, len(headers))
	for _, h := range headers {
		keys = append(keys, h.Key)
	}
	assert.Equal(t, []string{"batch-id", "content-encoding", "operations", "reports"}, keys)
	assert.Equal(t, []byte("b1"), headers[0].Value)
}

func TestKafkaProducer_ProduceBeforeConnect(t *testing.T) {
	t.Parallel()

	p := NewKafkaProducer(KafkaProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "usage"}, loggers.Nop())
	err := p.Produce(t.Context(), Message{Key: "k", Value: []byte("v")})
	require.ErrorIs(t, err, ErrProducerNotConnected)
	p.Close()
}
