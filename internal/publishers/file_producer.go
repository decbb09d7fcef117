package publishers

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"usage-ingestion/internal/shared/filestorages"
)

var ErrBatchAlreadyWritten = errors.New("batch already written")

// fileProducer writes each message to <dir>/<key>.json<ext> without
// overwriting, so a re-sent batch id is rejected instead of duplicated.
type fileProducer struct {
	storage   filestorages.FileStorage
	dir       string
	extension string
}

func NewFileProducer(storage filestorages.FileStorage, compression Compression) Producer {
	return &fileProducer{
		storage:   storage,
		dir:       "usage-batches",
		extension: ".json" + compression.extension(),
	}
}

func (p *fileProducer) Connect(ctx context.Context) error {
	return p.storage.Ping(ctx)
}

func (p *fileProducer) Produce(ctx context.Context, msg Message) error {
	key := fmt.Sprintf("%s/%s%s", p.dir, msg.Key, p.extension)
	_, err := p.storage.Put(ctx, key, bytes.NewReader(msg.Value), filestorages.PutOptions{AllowOverwrite: false})
	if err != nil {
		if errors.Is(err, filestorages.ErrFileAlreadyExists) {
			return fmt.Errorf("%w: %s", ErrBatchAlreadyWritten, msg.Key)
		}
		return fmt.Errorf("failed to write batch %s: %w", msg.Key, err)
	}
	return nil
}

func (p *fileProducer) Close() {}
