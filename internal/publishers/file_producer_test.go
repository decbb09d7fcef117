package publishers_test

import (
	"context"
	"io"
	"testing"

	"usage-ingestion/internal/publishers"
	"usage-ingestion/internal/shared/filestorages"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileProducer_WritesCompressedBatch(t *testing.T) {
	t.Parallel()

	storage, err := filestorages.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	producer := publishers.NewFileProducer(storage, publishers.CompressionZstd)
	require.NoError(t, producer.Connect(context.Background()))

	payload, err := publishers.Compress([]byte(`[{"id":"r1"}]`), publishers.CompressionZstd)
	require.NoError(t, err)
	require.NoError(t, producer.Produce(context.Background(), publishers.Message{Key: "batch-1", Value: payload}))

	rc, err := storage.Get(context.Background(), "usage-batches/batch-1.json.zst")
	require.NoError(t, err)
	defer rc.Close()
	written, err := io.ReadAll(rc)
	require.NoError(t, err)

	raw, err := publishers.Decompress(written, publishers.CompressionZstd)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"r1"}]`, string(raw))
	producer.Close()
}

func TestFileProducer_RejectsDuplicateBatchID(t *testing.T) {
	t.Parallel()

	storage, err := filestorages.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	producer := publishers.NewFileProducer(storage, publishers.CompressionNone)

	msg := publishers.Message{Key: "batch-1", Value: []byte(`[]`)}
	require.NoError(t, producer.Produce(context.Background(), msg))

	err = producer.Produce(context.Background(), msg)
	require.ErrorIs(t, err, publishers.ErrBatchAlreadyWritten)
}
