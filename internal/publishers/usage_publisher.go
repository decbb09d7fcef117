package publishers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"usage-ingestion/internal/buffers"
	"usage-ingestion/internal/models"
	"usage-ingestion/internal/reports"
	"usage-ingestion/internal/shared/loggers"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
)

var ErrPublisherStopped = errors.New("usage publisher stopped")

// UsagePublisher buffers validated reports and publishes them in size-bounded batches.
//
//go:generate mockgen -source=usage_publisher.go -destination=./mocks/usage_publisher_mock.go -package=mocks
type UsagePublisher interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Add(report *models.Report) error
	// Readiness reports whether the producer is connected.
	Readiness() bool
	// Fatal delivers at most one error once the producer cannot be reconnected.
	Fatal() <-chan error
}

type Config struct {
	BufferSize          int
	FlushInterval       time.Duration
	LimitInBytes        int
	UseEstimator        bool
	EstimatorResetAfter time.Duration
	IncreaseBy          buffers.IncreasePolicy

	Compression              Compression
	ReconnectInitialInterval time.Duration
	ReconnectMaxInterval     time.Duration
	MaxReconnectAttempts     int
}

type usagePublisher struct {
	producer Producer
	buffer   *buffers.KVBuffer[*models.Report]
	config   Config
	logger   loggers.Logger

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	starting sync.WaitGroup

	ready        atomic.Bool
	reconnecting atomic.Bool
	reconnects   sync.WaitGroup
	fatal        chan error
	fatalOnce    sync.Once
}

func NewUsagePublisher(producer Producer, config Config, logger loggers.Logger) (UsagePublisher, error) {
	if config.MaxReconnectAttempts <= 0 {
		config.MaxReconnectAttempts = 1
	}
	p := &usagePublisher{
		producer: producer,
		config:   config,
		logger:   logger,
		cancel:   func() {},
		fatal:    make(chan error, 1),
	}

	buffer, err := buffers.NewKVBuffer(buffers.Options[*models.Report]{
		Size:                config.BufferSize,
		Interval:            config.FlushInterval,
		LimitInBytes:        config.LimitInBytes,
		UseEstimator:        config.UseEstimator,
		EstimatorResetAfter: config.EstimatorResetAfter,
		IncreaseBy:          config.IncreaseBy,
		ItemSize:            func(report *models.Report) int { return report.Size },
		Split:               reports.SplitReport,
		Sender:              p.send,
		Logger:              loggers.Component(logger, "buffer"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create usage buffer: %w", err)
	}
	p.buffer = buffer
	return p, nil
}

// Start connects the producer and arms the flush timer. A Stop that runs while
// Start is connecting cancels the connect, and Start then returns ErrPublisherStopped.
func (p *usagePublisher) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrPublisherStopped
	}
	if p.started {
		p.mu.Unlock()
		return errors.New("usage publisher already started")
	}
	p.started = true
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.starting.Add(1)
	p.mu.Unlock()
	defer p.starting.Done()

	if err := p.producer.Connect(runCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to connect producer: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		// Stop closes the producer once this Start returns.
		return ErrPublisherStopped
	}
	p.setReady(true)
	p.buffer.Start(runCtx)
	p.logger.Info().
		Int(loggers.FieldLimitBytes, p.config.LimitInBytes).
		Bool("use_estimator", p.config.UseEstimator).
		Str("compression", string(p.config.Compression)).
		Msg("usage publisher started")
	return nil
}

// Stop flushes what is buffered, waits for in-flight sends and closes the producer.
func (p *usagePublisher) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	flushErr := p.buffer.Stop(ctx)
	cancel()
	p.starting.Wait()
	p.reconnects.Wait()
	p.producer.Close()
	p.setReady(false)
	p.logger.Info().Msg("usage publisher stopped")
	return flushErr
}

func (p *usagePublisher) Add(report *models.Report) error {
	if err := p.buffer.Add(report); err != nil {
		if errors.Is(err, buffers.ErrBufferStopped) {
			return ErrPublisherStopped
		}
		return err
	}
	return nil
}

func (p *usagePublisher) Readiness() bool {
	return p.ready.Load()
}

func (p *usagePublisher) Fatal() <-chan error {
	return p.fatal
}

func (p *usagePublisher) setReady(ready bool) {
	p.ready.Store(ready)
	if ready {
		metricProducerReady.Set(1)
	} else {
		metricProducerReady.Set(0)
	}
}

// send encodes and compresses the batch, checks its size and produces it.
func (p *usagePublisher) send(ctx context.Context, batch []*models.Report, estimatedBytes int, batchID string, validateSize buffers.ValidateSizeFunc) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to encode batch %s: %w", batchID, err)
	}
	compressed, err := Compress(payload, p.config.Compression)
	if err != nil {
		return fmt.Errorf("failed to compress batch %s: %w", batchID, err)
	}
	if err := validateSize(len(compressed)); err != nil {
		return err
	}

	operations := 0
	for _, report := range batch {
		operations += report.Size
	}
	msg := Message{
		Key:   batchID,
		Value: compressed,
		Headers: map[string]string{
			HeaderContentEncoding: string(p.config.Compression),
			HeaderBatchID:         batchID,
			HeaderReports:         strconv.Itoa(len(batch)),
			HeaderOperations:      strconv.Itoa(operations),
		},
	}

	start := time.Now()
	if err := p.producer.Produce(ctx, msg); err != nil {
		metricPublishedTotal.WithLabelValues(outcomeFailed).Inc()
		p.triggerReconnect(ctx, err)
		return err
	}
	metricPublishedTotal.WithLabelValues(outcomeOK).Inc()
	metricPublishLatency.Observe(time.Since(start).Seconds())

	p.logger.Debug().
		Str(loggers.FieldBatchID, batchID).
		Int("reports", len(batch)).
		Int(loggers.FieldUnits, operations).
		Int(loggers.FieldEstimatedBytes, estimatedBytes).
		Int(loggers.FieldActualBytes, len(compressed)).
		Msg("batch published")
	return nil
}

// triggerReconnect starts a reconnect loop unless one is already running.
func (p *usagePublisher) triggerReconnect(ctx context.Context, cause error) {
	if !p.reconnecting.CompareAndSwap(false, true) {
		return
	}
	p.setReady(false)
	p.reconnects.Add(1)
	go func() {
		defer p.reconnects.Done()
		defer p.reconnecting.Store(false)
		p.reconnect(ctx, cause)
	}()
}

func (p *usagePublisher) reconnect(ctx context.Context, cause error) {
	p.logger.Warn().Err(cause).Msg("producer failed, reconnecting")

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.config.ReconnectInitialInterval
	policy.MaxInterval = p.config.ReconnectMaxInterval
	policy.MaxElapsedTime = 0

	attempts := 0
	operation := func() error {
		attempts++
		p.producer.Close()
		return p.producer.Connect(ctx)
	}
	notify := func(err error, next time.Duration) {
		metricReconnectTotal.WithLabelValues(outcomeFailed).Inc()
		p.logger.Warn().
			Err(err).
			Int(loggers.FieldAttempt, attempts).
			Dur("retry_in", next).
			Msg("producer reconnect attempt failed")
	}

	retries := uint64(p.config.MaxReconnectAttempts - 1)
	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx), notify)
	if err == nil {
		metricReconnectTotal.WithLabelValues(outcomeOK).Inc()
		p.setReady(true)
		p.logger.Info().Int(loggers.FieldAttempt, attempts).Msg("producer reconnected")
		return
	}
	if ctx.Err() != nil {
		return
	}

	metricReconnectTotal.WithLabelValues(outcomeExhausted).Inc()
	fatalErr := fmt.Errorf("producer reconnect failed after %d attempts: %w", attempts, err)
	p.logger.Error().Err(fatalErr).Msg("giving up on producer")
	p.fatalOnce.Do(func() {
		p.fatal <- fatalErr
	})
}
