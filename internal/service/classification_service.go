package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/anime-shed/pancake-waffle-classifier/internal/analyzer"
	apperrors "github.com/anime-shed/pancake-waffle-classifier/internal/errors"
	"github.com/anime-shed/pancake-waffle-classifier/internal/observer"
	"github.com/anime-shed/pancake-waffle-classifier/internal/repository"
	"github.com/anime-shed/pancake-waffle-classifier/internal/storage"
	"github.com/anime-shed/pancake-waffle-classifier/internal/strategy"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/validation"
)

// ClassificationService defines the operations exposed over HTTP and the CLIs
type ClassificationService interface {
	// ClassifyUpload classifies raw image bytes
	ClassifyUpload(ctx context.Context, data []byte, fileName, mode string) (*models.ClassificationResponse, error)
	// ClassifyURL fetches and classifies a remote image
	ClassifyURL(ctx context.Context, request models.URLClassificationRequest) (*models.ClassificationResponse, error)
	// ClassifySample classifies a catalogue sample and scores it against its expected label
	ClassifySample(ctx context.Context, name, mode string) (*models.SampleResponse, error)
	// ClassifyDetailed classifies raw bytes and reports diagnostics, thresholds and the rule trace
	ClassifyDetailed(ctx context.Context, data []byte, fileName, mode string) (*models.DetailedClassificationResponse, error)

	ListSamples() models.SampleListResponse
}

// Dependencies groups what the service needs
type Dependencies struct {
	Images     repository.ImageRepository
	Samples    repository.SampleRepository
	Classifier analyzer.Classifier
	Metrics    analyzer.MetricsCalculator
	Uploads    *validation.UploadValidator
	Events     observer.Subject

	MaxImageDimension int
	OracleTimeout     time.Duration
}

// classificationService implements ClassificationService
type classificationService struct {
	images     repository.ImageRepository
	samples    repository.SampleRepository
	classifier analyzer.Classifier
	strategies *strategy.Selector
	metrics    analyzer.MetricsCalculator
	uploads    *validation.UploadValidator
	events     observer.Subject

	maxDim        int
	oracleTimeout time.Duration
}

// NewClassificationService creates a new classification service
func NewClassificationService(deps Dependencies) ClassificationService {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = analyzer.NewMetricsCalculator(deps.Classifier.Thresholds())
	}
	uploads := deps.Uploads
	if uploads == nil {
		uploads = validation.NewUploadValidator(0)
	}
	events := deps.Events
	if events == nil {
		events = observer.NewEventPublisher()
	}
	return &classificationService{
		images:        deps.Images,
		samples:       deps.Samples,
		classifier:    deps.Classifier,
		strategies:    strategy.NewSelector(deps.Classifier),
		metrics:       metrics,
		uploads:       uploads,
		events:        events,
		maxDim:        deps.MaxImageDimension,
		oracleTimeout: deps.OracleTimeout,
	}
}

func (s *classificationService) ClassifyUpload(ctx context.Context, data []byte, fileName, mode string) (*models.ClassificationResponse, error) {
	start := time.Now()
	source := uploadSource(fileName)

	classify, err := s.strategies.ForMode(mode)
	if err != nil {
		return nil, err
	}
	decoded, err := s.decodeUpload(data)
	if err != nil {
		return nil, err
	}

	result, err := s.run(ctx, classify, source, decoded)
	if err != nil {
		return nil, err
	}
	return &models.ClassificationResponse{
		ClassificationRecord: s.record(ctx, source, start, decoded),
		Result:               result,
	}, nil
}

func (s *classificationService) ClassifyURL(ctx context.Context, request models.URLClassificationRequest) (*models.ClassificationResponse, error) {
	start := time.Now()

	classify, err := s.strategies.ForMode(request.Mode)
	if err != nil {
		return nil, err
	}

	decoded, err := s.images.FetchImage(ctx, request.URL)
	if err != nil {
		event := observer.NewEvent(observer.ImageFetchFailed, request.URL)
		event.RequestID = RequestIDFromContext(ctx)
		event.ErrorMessage = err.Error()
		s.events.NotifyObservers(ctx, event)
		return nil, fetchError(err)
	}
	fetched := observer.NewEvent(observer.ImageFetched, request.URL)
	fetched.RequestID = RequestIDFromContext(ctx)
	fetched.ProcessingTime = time.Since(start)
	fetched.Metadata = map[string]interface{}{"format": decoded.Format}
	s.events.NotifyObservers(ctx, fetched)

	result, err := s.run(ctx, classify, request.URL, decoded)
	if err != nil {
		return nil, err
	}
	return &models.ClassificationResponse{
		ClassificationRecord: s.record(ctx, request.URL, start, decoded),
		Result:               result,
	}, nil
}

func (s *classificationService) ClassifySample(ctx context.Context, name, mode string) (*models.SampleResponse, error) {
	start := time.Now()

	classify, err := s.strategies.ForMode(mode)
	if err != nil {
		return nil, err
	}

	sample, decoded, err := s.samples.Load(ctx, name)
	if err != nil {
		return nil, sampleError(err)
	}
	source := "sample:" + sample.Name

	result, err := s.run(ctx, classify, source, decoded)
	if err != nil {
		return nil, err
	}
	return &models.SampleResponse{
		ClassificationRecord: s.record(ctx, source, start, decoded),
		Result: models.SampleResult{
			ClassificationResult: result,
			SampleName:           sample.Name,
			ExpectedLabel:        sample.ExpectedLabel,
			Correct:              result.Prediction == sample.ExpectedLabel,
		},
	}, nil
}

func (s *classificationService) ClassifyDetailed(ctx context.Context, data []byte, fileName, mode string) (*models.DetailedClassificationResponse, error) {
	start := time.Now()
	source := uploadSource(fileName)

	classify, err := s.strategies.ForMode(mode)
	if err != nil {
		return nil, err
	}

	decodeStart := time.Now()
	decoded, err := s.decodeUpload(data)
	if err != nil {
		return nil, err
	}
	raster, err := analyzer.RasterFromImage(decoded.Image)
	if err != nil {
		return nil, apperrors.NewValidationError("image cannot be classified", err)
	}
	decodeTime := time.Since(decodeStart)

	classifyStart := time.Now()
	result, err := s.classifyRaster(ctx, classify, source, raster)
	if err != nil {
		return nil, err
	}
	classifyTime := time.Since(classifyStart)

	diagStart := time.Now()
	diagnostics := s.metrics.Calculate(raster)
	var trace []models.RuleCheck
	if result.Features != nil {
		trace = s.classifier.Trace(*result.Features)
	}
	diagTime := time.Since(diagStart)

	return &models.DetailedClassificationResponse{
		ClassificationRecord: s.record(ctx, source, start, decoded),
		Result:               result,
		Diagnostics:          diagnostics,
		Thresholds:           s.classifier.Thresholds().Applied(s.oracleTimeout),
		RuleTrace:            trace,
		PerformanceMetrics: models.PerformanceMetrics{
			TotalProcessingTime: milliseconds(time.Since(start)),
			DecodeTime:          milliseconds(decodeTime),
			ClassificationTime:  milliseconds(classifyTime),
			DiagnosticsTime:     milliseconds(diagTime),
		},
	}, nil
}

func (s *classificationService) ListSamples() models.SampleListResponse {
	return models.SampleListResponse{Samples: s.samples.List()}
}

func (s *classificationService) decodeUpload(data []byte) (*storage.DecodedImage, error) {
	head := data[:min(len(data), 512)]
	if err := s.uploads.ValidateUpload(int64(len(data)), head); err != nil {
		return nil, err
	}
	decoded, err := storage.DecodeImage(data, s.maxDim)
	if err != nil {
		return nil, apperrors.NewValidationError("uploaded file could not be decoded", err)
	}
	return decoded, nil
}

func (s *classificationService) run(ctx context.Context, classify strategy.ClassificationStrategy, source string, decoded *storage.DecodedImage) (models.ClassificationResult, error) {
	raster, err := analyzer.RasterFromImage(decoded.Image)
	if err != nil {
		return models.ClassificationResult{}, apperrors.NewValidationError("image cannot be classified", err)
	}
	return s.classifyRaster(ctx, classify, source, raster)
}

// classifyRaster runs the strategy and publishes the lifecycle events
func (s *classificationService) classifyRaster(ctx context.Context, classify strategy.ClassificationStrategy, source string, raster *analyzer.Raster) (models.ClassificationResult, error) {
	start := time.Now()
	requestID := RequestIDFromContext(ctx)

	started := observer.NewEvent(observer.ClassificationStarted, source)
	started.RequestID = requestID
	started.Metadata = map[string]interface{}{"mode": classify.GetStrategyName()}
	s.events.NotifyObservers(ctx, started)

	result, err := classify.Classify(ctx, raster)
	if err != nil {
		failed := observer.NewEvent(observer.ClassificationFailed, source)
		failed.RequestID = requestID
		failed.ProcessingTime = time.Since(start)
		failed.ErrorMessage = err.Error()
		s.events.NotifyObservers(ctx, failed)
		return models.ClassificationResult{}, classificationError(err)
	}

	completed := observer.NewEvent(observer.ClassificationCompleted, source).WithResult(result)
	completed.RequestID = requestID
	completed.ProcessingTime = time.Since(start)
	s.events.NotifyObservers(ctx, completed)
	return result, nil
}

func (s *classificationService) record(ctx context.Context, source string, start time.Time, decoded *storage.DecodedImage) models.ClassificationRecord {
	id := RequestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	return models.ClassificationRecord{
		ID:                id,
		Source:            source,
		Timestamp:         start.UTC(),
		ProcessingTimeSec: time.Since(start).Seconds(),
		Image: models.ImageMetadata{
			Format: decoded.Format,
			Width:  decoded.OriginalWidth,
			Height: decoded.OriginalHeight,
		},
	}
}

func uploadSource(fileName string) string {
	if fileName == "" {
		return "upload"
	}
	return "upload:" + fileName
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func classificationError(err error) error {
	switch {
	case errors.Is(err, analyzer.ErrInvalidImage):
		return apperrors.NewValidationError("image cannot be classified", err)
	case errors.Is(err, analyzer.ErrEmptyAnalysis):
		return apperrors.NewProcessingError("image has no opaque pixels to analyse", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.NewTimeoutError("classification did not finish in time", err)
	}
	return apperrors.NewInternalError("classification failed", err)
}

func fetchError(err error) error {
	switch {
	case errors.Is(err, repository.ErrInvalidImageURL):
		return apperrors.NewValidationError("invalid image URL", err)
	case errors.Is(err, storage.ErrDecode), errors.Is(err, storage.ErrTooLarge):
		return apperrors.NewValidationError("remote file is not a usable image", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("image fetch timed out", err)
	}
	return apperrors.NewNetworkError("failed to fetch image", err)
}

func sampleError(err error) error {
	switch {
	case errors.Is(err, repository.ErrSampleNotFound):
		return apperrors.NewNotFoundError("unknown sample", err)
	case errors.Is(err, repository.ErrSampleUnavailable):
		return apperrors.NewNotFoundError("sample image missing from store", err)
	case errors.Is(err, storage.ErrDecode), errors.Is(err, storage.ErrTooLarge):
		return apperrors.NewProcessingError("sample image could not be decoded", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("sample load timed out", err)
	}
	return apperrors.NewNetworkError("failed to load sample", err)
}
