package buffers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"usage-ingestion/internal/shared/ids"
	"usage-ingestion/internal/shared/loggers"

	"golang.org/x/sync/errgroup"
)

var ErrBufferStopped = errors.New("buffer stopped")

// TooBigError is returned by ValidateSizeFunc when a batch exceeds the byte limit.
type TooBigError struct {
	BatchID string
	Bytes   int
	Limit   int
}

func (e *TooBigError) Error() string {
	return fmt.Sprintf("batch %s is too big: %d bytes exceeds limit of %d", e.BatchID, e.Bytes, e.Limit)
}

// ValidateSizeFunc reports the realized size of a batch. Senders must call it
// before publishing and abort when it returns an error.
type ValidateSizeFunc func(actualBytes int) error

// Sender publishes one batch.
type Sender[T any] func(ctx context.Context, items []T, estimatedBytes int, batchID string, validateSize ValidateSizeFunc) error

type Options[T any] struct {
	// Size is the nominal number of units per batch.
	Size int
	// Interval is how long items may wait before a scheduled flush.
	Interval time.Duration
	// LimitInBytes is the hard per-publish ceiling.
	LimitInBytes int
	// UseEstimator flushes on predicted bytes instead of Size.
	UseEstimator bool
	// EstimatorResetAfter and IncreaseBy configure the estimator. Its seed is LimitInBytes / Size.
	EstimatorResetAfter time.Duration
	IncreaseBy          IncreasePolicy

	// ItemSize returns the number of units in an item.
	ItemSize func(item T) int
	// Split breaks an item into at most n smaller items carrying the same units.
	Split func(item T, n int) []T
	Sender Sender[T]

	Logger loggers.Logger
	Now    func() time.Time
}

// KVBuffer accumulates items and hands them to a Sender in batches that
// respect a byte limit. A batch reported too big is split and sent once more;
// sub-batches of a retry are never split again.
type KVBuffer[T any] struct {
	size         int
	interval     time.Duration
	limitInBytes int
	itemSize     func(T) int
	split        func(T, int) []T
	sender       Sender[T]
	estimator    *SizeEstimator
	logger       loggers.Logger

	mu       sync.Mutex
	items    []T
	units    int
	timer    *time.Timer
	timerGen uint64
	started  bool
	stopped  bool
	runCtx   context.Context

	inflight sync.WaitGroup
}

func NewKVBuffer[T any](opts Options[T]) (*KVBuffer[T], error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("buffer size must be positive, got %d", opts.Size)
	}
	if opts.LimitInBytes <= 0 {
		return nil, fmt.Errorf("buffer limit must be positive, got %d", opts.LimitInBytes)
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("buffer interval must be positive, got %s", opts.Interval)
	}
	if opts.Sender == nil || opts.ItemSize == nil {
		return nil, errors.New("buffer requires a sender and an item size function")
	}

	b := &KVBuffer[T]{
		size:         opts.Size,
		interval:     opts.Interval,
		limitInBytes: opts.LimitInBytes,
		itemSize:     opts.ItemSize,
		split:        opts.Split,
		sender:       opts.Sender,
		logger:       opts.Logger,
		runCtx:       context.Background(),
	}
	if opts.UseEstimator {
		b.estimator = NewSizeEstimator(EstimatorOptions{
			DefaultBytesPerUnit: float64(opts.LimitInBytes) / float64(opts.Size),
			ResetAfter:          opts.EstimatorResetAfter,
			IncreaseBy:          opts.IncreaseBy,
			Logger:              opts.Logger,
			Now:                 opts.Now,
		})
	}
	return b, nil
}

// Estimator returns the size estimator, or nil when flushing is count based.
func (b *KVBuffer[T]) Estimator() *SizeEstimator {
	return b.estimator
}

// Start arms the flush timer. ctx is handed to every send.
func (b *KVBuffer[T]) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.stopped {
		return
	}
	b.started = true
	b.runCtx = ctx
	b.scheduleLocked()
}

// Add buffers item. It never waits for a send; a flush it triggers runs in the background.
// An item split into pieces is accepted or rejected as a whole.
func (b *KVBuffer[T]) Add(item T) error {
	units := b.itemSize(item)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return ErrBufferStopped
	}

	if b.estimator == nil {
		b.appendLocked(item, units)
		if b.units >= b.size {
			b.flushLocked()
		}
		return nil
	}

	estimated := b.estimator.Estimate(units)
	if estimated >= b.limitInBytes && b.split != nil {
		if pieces := b.split(item, ceilDiv(estimated, b.limitInBytes)); len(pieces) > 1 {
			metricPreSplitTotal.Inc()
			b.logger.Debug().
				Int(loggers.FieldUnits, units).
				Int(loggers.FieldEstimatedBytes, estimated).
				Int("pieces", len(pieces)).
				Msg("splitting oversized item before buffering")
			for _, piece := range pieces {
				b.addEstimatedLocked(piece, b.itemSize(piece))
			}
			return nil
		}
	}

	b.addEstimatedLocked(item, units)
	return nil
}

// addEstimatedLocked flushes first when item would push the batch past the limit.
func (b *KVBuffer[T]) addEstimatedLocked(item T, units int) {
	if len(b.items) > 0 && b.estimator.Estimate(b.units+units) >= b.limitInBytes {
		b.flushLocked()
	}
	b.appendLocked(item, units)
}

// Stop disarms the timer, sends whatever is buffered and waits for in-flight
// sends until ctx is done.
func (b *KVBuffer[T]) Stop(ctx context.Context) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	b.cancelTimerLocked()
	items, units := b.swapLocked()
	runCtx := b.runCtx
	b.mu.Unlock()

	if len(items) > 0 {
		b.inflight.Add(1)
		func() {
			defer b.inflight.Done()
			_ = b.flush(runCtx, items, units, ids.NewBatchID(), false)
		}()
	}

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight sends: %w", ctx.Err())
	}
}

func (b *KVBuffer[T]) appendLocked(item T, units int) {
	b.items = append(b.items, item)
	b.units += units
}

func (b *KVBuffer[T]) swapLocked() ([]T, int) {
	items, units := b.items, b.units
	b.items = nil
	b.units = 0
	return items, units
}

// flushLocked swaps the buffer out, re-arms the timer and sends the snapshot
// in the background.
func (b *KVBuffer[T]) flushLocked() {
	items, units := b.swapLocked()
	b.scheduleLocked()
	if len(items) == 0 {
		return
	}

	ctx := b.runCtx
	batchID := ids.NewBatchID()
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		_ = b.flush(ctx, items, units, batchID, false)
	}()
}

// scheduleLocked replaces the flush timer. The generation check drops a
// callback that fired while a newer timer was being armed.
func (b *KVBuffer[T]) scheduleLocked() {
	b.cancelTimerLocked()
	if !b.started || b.stopped {
		return
	}
	gen := b.timerGen
	b.timer = time.AfterFunc(b.interval, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.stopped || gen != b.timerGen {
			return
		}
		b.flushLocked()
	})
}

func (b *KVBuffer[T]) cancelTimerLocked() {
	b.timerGen++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *KVBuffer[T]) estimate(units int) int {
	if b.estimator == nil {
		return units * b.limitInBytes / b.size
	}
	return b.estimator.Estimate(units)
}

func (b *KVBuffer[T]) unitsOf(items []T) int {
	total := 0
	for _, item := range items {
		total += b.itemSize(item)
	}
	return total
}

func (b *KVBuffer[T]) validateSize(batchID string, units int) ValidateSizeFunc {
	return func(actualBytes int) error {
		metricFlushBytes.Observe(float64(actualBytes))
		if b.estimator != nil {
			b.estimator.Teach(actualBytes, units)
		}
		if actualBytes > b.limitInBytes {
			if b.estimator != nil {
				b.estimator.Overflowed(batchID)
			}
			return &TooBigError{BatchID: batchID, Bytes: actualBytes, Limit: b.limitInBytes}
		}
		return nil
	}
}

// flush sends one batch. A batch rejected as too big is split into
// ceil(actual/limit) sub-batches and sent again with isRetry set; a retry is
// never split further.
func (b *KVBuffer[T]) flush(ctx context.Context, items []T, units int, batchID string, isRetry bool) error {
	logger := b.logger.With().
		Str(loggers.FieldBatchID, batchID).
		Int(loggers.FieldUnits, units).
		Bool(labelRetry, isRetry).
		Logger()
	metricFlushUnits.Observe(float64(units))

	var validated atomic.Bool
	validate := b.validateSize(batchID, units)
	err := b.sender(ctx, items, b.estimate(units), batchID, func(actualBytes int) error {
		validated.Store(true)
		return validate(actualBytes)
	})
	if err == nil {
		if !validated.Load() {
			metricFlushTotal.WithLabelValues(outcomeUnvalidated, retryLabel(isRetry)).Inc()
			logger.Warn().Msg("sender resolved without validating batch size")
			return nil
		}
		metricFlushTotal.WithLabelValues(outcomeOK, retryLabel(isRetry)).Inc()
		logger.Debug().Msg("batch sent")
		return nil
	}

	var tooBig *TooBigError
	if errors.As(err, &tooBig) {
		if isRetry {
			metricFlushTotal.WithLabelValues(outcomeDropped, retryLabel(isRetry)).Inc()
			logger.Error().
				Err(err).
				Int(loggers.FieldActualBytes, tooBig.Bytes).
				Int(loggers.FieldLimitBytes, tooBig.Limit).
				Msg("retried batch still too big, dropping")
			return err
		}
		metricFlushTotal.WithLabelValues(outcomeTooBig, retryLabel(isRetry)).Inc()
		logger.Warn().
			Int(loggers.FieldActualBytes, tooBig.Bytes).
			Int(loggers.FieldLimitBytes, tooBig.Limit).
			Msg("batch too big, splitting and retrying")
		return b.retry(ctx, items, tooBig.Bytes, batchID)
	}

	metricFlushTotal.WithLabelValues(outcomeFailed, retryLabel(isRetry)).Inc()
	logger.Error().Err(err).Msg("failed to send batch")
	if b.estimator != nil {
		b.estimator.Overflowed(batchID)
	}
	return err
}

func (b *KVBuffer[T]) retry(ctx context.Context, items []T, actualBytes int, batchID string) error {
	numOfChunks := ceilDiv(actualBytes, b.limitInBytes)

	pieces := items
	if b.split != nil {
		pieces = make([]T, 0, len(items)*numOfChunks)
		for _, item := range items {
			pieces = append(pieces, b.split(item, numOfChunks)...)
		}
	}

	var group errgroup.Group
	offset := 0
	for i := 0; i < numOfChunks; i++ {
		size := CalculateChunkSize(len(pieces), numOfChunks, i)
		chunk := pieces[offset : offset+size]
		offset += size
		if len(chunk) == 0 {
			continue
		}
		chunkID := fmt.Sprintf("%s--retry-chunk-%d", batchID, i)
		group.Go(func() error {
			return b.flush(ctx, chunk, b.unitsOf(chunk), chunkID, true)
		})
	}
	return group.Wait()
}
