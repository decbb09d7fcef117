package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"usage-ingestion/internal/buffers"
	internalhttp "usage-ingestion/internal/http"
	"usage-ingestion/internal/ingestors"
	"usage-ingestion/internal/models"
	"usage-ingestion/internal/publishers"
	"usage-ingestion/internal/reports"
	"usage-ingestion/internal/shared/configs"
	"usage-ingestion/internal/shared/filestorages"
	"usage-ingestion/internal/shared/loggers"
)

const (
	sinkKafka = "kafka"
	sinkFile  = "file"

	// headroom kept above the publish limit for record framing and headers
	recordOverheadBytes = 16 * 1024
)

// App holds all application dependencies and manages lifecycle.
type App struct {
	config    *configs.Config
	appLogger loggers.Logger
	server    *http.Server
	publisher publishers.UsagePublisher
}

// New creates and initializes a new App instance.
func New(config *configs.Config) (*App, error) {
	appLogger, err := loggers.New(config.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger = appLogger.With().
		Str(loggers.FieldApp, "usage-ingestion").
		Logger()

	compression, err := publishers.ParseCompression(config.Publisher.Compression)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize compression: %w", err)
	}

	producer, err := newProducer(config, compression, loggers.Component(appLogger, "producer"))
	if err != nil {
		return nil, err
	}

	publisher, err := publishers.NewUsagePublisher(producer, publishers.Config{
		BufferSize:               config.Buffer.Size,
		FlushInterval:            time.Duration(config.Buffer.Interval) * time.Millisecond,
		LimitInBytes:             config.Buffer.LimitInBytes,
		UseEstimator:             config.Buffer.UseEstimator,
		EstimatorResetAfter:      time.Duration(config.Estimator.ResetAfter) * time.Second,
		IncreaseBy:               buffers.OverflowRatePolicy(config.Estimator.OverflowThreshold, config.Estimator.IncreaseRatio),
		Compression:              compression,
		ReconnectInitialInterval: time.Duration(config.Publisher.ReconnectInitialInterval) * time.Millisecond,
		ReconnectMaxInterval:     time.Duration(config.Publisher.ReconnectMaxInterval) * time.Millisecond,
		MaxReconnectAttempts:     config.Publisher.MaxReconnectAttempts,
	}, loggers.Component(appLogger, "publisher"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize publisher: %w", err)
	}

	// Initialize ingestionService
	operationCache := reports.NewOperationCache(
		config.Validation.OperationCacheSize,
		time.Duration(config.Validation.OperationCacheTTL)*time.Second,
	)
	validator := reports.NewReportValidator(operationCache)
	tokenResolver := ingestors.NewStaticTokenResolver(tokenInfos(config.Tokens))
	ingestionService := ingestors.NewIngestionService(tokenResolver, validator, publisher, config.Validation.MaxBodyBytes)

	httpLogger := loggers.Component(appLogger, "http")
	router := internalhttp.NewRouter(ingestionService, publisher, httpLogger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(config.Server.ReadHeaderTimeout) * time.Second,
		ReadTimeout:       time.Duration(config.Server.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(config.Server.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(config.Server.IdleTimeout) * time.Second,
	}

	return &App{
		config:    config,
		appLogger: appLogger,
		server:    server,
		publisher: publisher,
	}, nil
}

func newProducer(config *configs.Config, compression publishers.Compression, logger loggers.Logger) (publishers.Producer, error) {
	switch config.Publisher.Sink {
	case sinkKafka:
		return publishers.NewKafkaProducer(publishers.KafkaProducerConfig{
			Brokers:         config.Kafka.Brokers,
			Topic:           config.Kafka.Topic,
			ClientID:        config.Kafka.ClientID,
			TLS:             config.Kafka.TLS,
			SASLUsername:    config.Kafka.SASLUsername,
			SASLPassword:    config.Kafka.SASLPassword,
			RecordRetries:   config.Kafka.RecordRetries,
			RequestTimeout:  time.Duration(config.Kafka.RequestTimeout) * time.Second,
			MaxMessageBytes: config.Buffer.LimitInBytes + recordOverheadBytes,
		}, logger), nil
	case sinkFile:
		fileStorage, err := filestorages.NewFileStorage(config.FileStorage.RootDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return publishers.NewFileProducer(fileStorage, compression), nil
	default:
		return nil, fmt.Errorf("unknown publisher sink: %q", config.Publisher.Sink)
	}
}

func tokenInfos(tokens []configs.TokenConfig) []models.TokenInfo {
	out := make([]models.TokenInfo, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, models.TokenInfo{
			Token:         t.Token,
			Target:        t.Target,
			Organization:  t.Organization,
			Project:       t.Project,
			RetentionDays: t.RetentionDays,
		})
	}
	return out
}

// Start connects the publisher and serves HTTP until Shutdown. It blocks.
func (app *App) Start(ctx context.Context) error {
	app.appLogger.Info().
		Msgf("Starting usage-ingestion service on port %d (log_level=%s, sink=%s, limit_in_bytes=%d)",
			app.config.Server.Port,
			app.config.Log.Level,
			app.config.Publisher.Sink,
			app.config.Buffer.LimitInBytes)

	if err := app.publisher.Start(ctx); err != nil {
		return fmt.Errorf("publisher start failed: %w", err)
	}
	return app.server.ListenAndServe()
}

// Fatal delivers an error when the publisher can no longer reach its sink.
func (app *App) Fatal() <-chan error {
	return app.publisher.Fatal()
}

// Shutdown stops accepting requests, then flushes buffered usage.
func (app *App) Shutdown(ctx context.Context) error {
	app.appLogger.Info().Msg("Shutting down server...")
	serverErr := app.server.Shutdown(ctx)
	if serverErr != nil {
		serverErr = fmt.Errorf("server shutdown failed: %w", serverErr)
	}
	app.appLogger.Info().Msg("Server stopped")

	publisherErr := app.publisher.Stop(ctx)
	if publisherErr != nil {
		publisherErr = fmt.Errorf("publisher stop failed: %w", publisherErr)
	}
	app.appLogger.Info().Msg("Publisher stopped")

	return errors.Join(serverErr, publisherErr)
}
