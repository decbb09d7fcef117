package publishers

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"usage-ingestion/internal/shared/loggers"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

var ErrProducerNotConnected = errors.New("producer not connected")

type KafkaProducerConfig struct {
	Brokers        []string
	Topic          string
	ClientID       string
	TLS            bool
	SASLUsername   string
	SASLPassword   string
	RecordRetries  int
	RequestTimeout time.Duration
	// MaxMessageBytes must leave room above the publish limit for record overhead.
	MaxMessageBytes int
}

type kafkaProducer struct {
	config KafkaProducerConfig
	logger loggers.Logger

	mu     sync.RWMutex
	client *kgo.Client
}

// NewKafkaProducer returns a Producer over the Kafka protocol, including
// Kafka-compatible endpoints such as Azure Event Hubs (SASL/PLAIN over TLS).
func NewKafkaProducer(config KafkaProducerConfig, logger loggers.Logger) Producer {
	return &kafkaProducer{config: config, logger: logger}
}

func (p *kafkaProducer) clientOptions() []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(p.config.Brokers...),
		kgo.DefaultProduceTopic(p.config.Topic),
		// payloads arrive compressed and already size checked
		kgo.ProducerBatchCompression(kgo.NoCompression()),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordRetries(p.config.RecordRetries),
		kgo.RetryBackoffFn(func(n int) time.Duration {
			return min(time.Duration(n)*100*time.Millisecond, 2*time.Second)
		}),
	}
	if p.config.ClientID != "" {
		opts = append(opts, kgo.ClientID(p.config.ClientID))
	}
	if p.config.MaxMessageBytes > 0 {
		opts = append(opts, kgo.ProducerBatchMaxBytes(int32(p.config.MaxMessageBytes)))
	}
	if p.config.RequestTimeout > 0 {
		opts = append(opts, kgo.RequestTimeoutOverhead(p.config.RequestTimeout))
	}
	if p.config.TLS {
		opts = append(opts, kgo.DialTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}))
	}
	if p.config.SASLUsername != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: p.config.SASLUsername,
			Pass: p.config.SASLPassword,
		}.AsMechanism()))
	}
	return opts
}

// Connect creates the client and pings the cluster.
func (p *kafkaProducer) Connect(ctx context.Context) error {
	client, err := kgo.NewClient(p.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return fmt.Errorf("failed to reach kafka brokers %v: %w", p.config.Brokers, err)
	}

	p.mu.Lock()
	previous := p.client
	p.client = client
	p.mu.Unlock()
	if previous != nil {
		previous.Close()
	}

	p.logger.Info().
		Strs("brokers", p.config.Brokers).
		Str("topic", p.config.Topic).
		Msg("kafka producer connected")
	return nil
}

func (p *kafkaProducer) Produce(ctx context.Context, msg Message) error {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()
	if client == nil {
		return ErrProducerNotConnected
	}

	record := &kgo.Record{
		Key:     []byte(msg.Key),
		Value:   msg.Value,
		Headers: recordHeaders(msg.Headers),
	}
	if err := client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce record %s: %w", msg.Key, err)
	}
	return nil
}

func (p *kafkaProducer) Close() {
	p.mu.Lock()
	client := p.client
	p.client = nil
	p.mu.Unlock()
	if client != nil {
		client.Close()
	}
}

func recordHeaders(headers map[string]string) []kgo.RecordHeader {
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]kgo.RecordHeader, 0, len(keys))
	for _, key := range keys {
		out = append(out, kgo.RecordHeader{Key: key, Value: []byte(headers[key])})
	}
	return out
}
