package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anime-shed/pancake-waffle-classifier/internal/analyzer"
	"github.com/anime-shed/pancake-waffle-classifier/internal/config"
	"github.com/anime-shed/pancake-waffle-classifier/internal/factory"
	"github.com/anime-shed/pancake-waffle-classifier/internal/logger"
	"github.com/anime-shed/pancake-waffle-classifier/internal/observer"
	"github.com/anime-shed/pancake-waffle-classifier/internal/repository"
	"github.com/anime-shed/pancake-waffle-classifier/internal/service"
	"github.com/anime-shed/pancake-waffle-classifier/internal/storage"
	"github.com/anime-shed/pancake-waffle-classifier/internal/transport"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config     *config.Config
	classifier analyzer.Classifier
	events     *observer.EventPublisher
	metrics    *observer.MetricsObserver
	service    service.ClassificationService
	handler    http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	return newContainer(cfg, factory.NewComponentFactory())
}

func newContainer(cfg *config.Config, components *factory.ComponentFactory) (*Container, error) {
	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	// Build dependency graph
	oracle, err := components.OracleFactory.CreateOracle(factory.OracleSettings{
		Type:        factory.OracleType(cfg.OracleType),
		URL:         cfg.OracleURL,
		OCRLanguage: cfg.OCRLanguage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle: %w", err)
	}

	options := analyzer.DefaultOptions().
		WithThresholds(cfg.Thresholds).
		WithFallbackHook(func(oracleName string, err error) {
			event := observer.NewEvent(observer.OracleFallback, oracleName)
			event.ErrorMessage = err.Error()
			events.NotifyObservers(context.Background(), event)
		})
	if oracle != nil {
		options = options.WithOracle(oracle, cfg.OracleTimeout)
	}
	classifier, err := analyzer.NewClassifier(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	store, err := components.StoreFactory.CreateStore(factory.StoreSettings{
		Type:           factory.StoreType(cfg.SampleStore),
		Dir:            cfg.SamplesDir,
		AzureAccount:   cfg.AzureStorageAccount,
		AzureKey:       cfg.AzureStorageKey,
		AzureContainer: cfg.AzureSamplesContainer,
	})
	if err != nil {
		classifier.Close()
		return nil, fmt.Errorf("failed to create sample store: %w", err)
	}

	fetcher := storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout, cfg.MaxRequestBodySize, cfg.MaxImageDimension)
	images := repository.NewHTTPImageRepository(fetcher, validation.NewURLValidator())
	samples := repository.NewSampleRepository(store, repository.DefaultSamples(), cfg.MaxRequestBodySize, cfg.MaxImageDimension)

	svc := service.NewClassificationService(service.Dependencies{
		Images:            images,
		Samples:           samples,
		Classifier:        classifier,
		Metrics:           analyzer.NewMetricsCalculator(cfg.Thresholds),
		Uploads:           validation.NewUploadValidator(cfg.MaxRequestBodySize),
		Events:            events,
		MaxImageDimension: cfg.MaxImageDimension,
		OracleTimeout:     cfg.OracleTimeout,
	})
	handler := transport.NewHandler(svc, metrics, transport.Options{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	logger.WithField("oracle", cfg.OracleType).
		WithField("sample_store", store.Name()).
		Info("Container initialised")

	return &Container{
		config:     cfg,
		classifier: classifier,
		events:     events,
		metrics:    metrics,
		service:    svc,
		handler:    handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Service returns the classification service used by the CLIs
func (c *Container) Service() service.ClassificationService {
	return c.service
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Metrics returns the running counters
func (c *Container) Metrics() observer.MetricsSnapshot {
	return c.metrics.Snapshot()
}

// Close stops the worker pool and waits for pending events
func (c *Container) Close() error {
	err := c.classifier.Close()
	c.events.Flush()
	return err
}
