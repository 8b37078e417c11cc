package observer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

// ClassificationEvent represents a classification lifecycle event
type ClassificationEvent struct {
	ID             string                 `json:"id"`
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id,omitempty"`
	Source         string                 `json:"source"`
	Prediction     string                 `json:"prediction,omitempty"`
	Confidence     float64                `json:"confidence,omitempty"`
	OracleStatus   string                 `json:"oracle_status,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time
func NewEvent(eventType EventType, source string) ClassificationEvent {
	return ClassificationEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now(),
		Source:    source,
	}
}

// WithResult copies the outcome of a classification onto the event
func (e ClassificationEvent) WithResult(result models.ClassificationResult) ClassificationEvent {
	e.Prediction = result.Prediction
	e.Confidence = result.Confidence
	e.OracleStatus = result.OracleStatus
	return e
}

// EventType represents the type of classification event
type EventType string

const (
	// ClassificationStarted when a request reaches the classifier
	ClassificationStarted EventType = "classification_started"
	// ClassificationCompleted when a label was produced
	ClassificationCompleted EventType = "classification_completed"
	// ClassificationFailed when no label could be produced
	ClassificationFailed EventType = "classification_failed"
	// OracleFallback when the oracle failed or timed out
	OracleFallback EventType = "oracle_fallback"
	// ImageFetched when a remote image was downloaded and decoded
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when a remote image could not be used
	ImageFetchFailed EventType = "image_fetch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event ClassificationEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event ClassificationEvent)
}

// LoggingObserver logs classification events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event ClassificationEvent) {
	fields := logrus.Fields{
		"event_id":        event.ID,
		"event_type":      event.EventType,
		"source":          event.Source,
		"processing_time": event.ProcessingTime,
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	if event.Prediction != "" {
		fields["prediction"] = event.Prediction
		fields["confidence"] = event.Confidence
		fields["oracle_status"] = event.OracleStatus
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case ClassificationStarted:
		entry.Debug("Classification started")
	case ClassificationCompleted:
		entry.Info("Classification completed")
	case ClassificationFailed:
		entry.Error("Classification failed")
	case OracleFallback:
		entry.Warn("Oracle unavailable, heuristic result kept")
	case ImageFetched:
		entry.Debug("Image fetched successfully")
	case ImageFetchFailed:
		entry.Error("Image fetch failed")
	default:
		entry.Info("Classification event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsSnapshot is a point-in-time copy of the counters
type MetricsSnapshot struct {
	TotalClassifications      int64   `json:"total_classifications"`
	SuccessfulClassifications int64   `json:"successful_classifications"`
	FailedClassifications     int64   `json:"failed_classifications"`
	Pancakes                  int64   `json:"pancakes"`
	Waffles                   int64   `json:"waffles"`
	OracleFallbacks           int64   `json:"oracle_fallbacks"`
	ImageFetchFailures        int64   `json:"image_fetch_failures"`
	AvgProcessingTimeMs       float64 `json:"avg_processing_time_ms"`
}

// MetricsObserver collects counters from classification events
type MetricsObserver struct {
	mu                  sync.RWMutex
	snapshot            MetricsSnapshot
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event ClassificationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case ClassificationStarted:
		o.snapshot.TotalClassifications++
	case ClassificationCompleted:
		o.snapshot.SuccessfulClassifications++
		o.totalProcessingTime += event.ProcessingTime
		switch event.Prediction {
		case models.LabelPancake:
			o.snapshot.Pancakes++
		case models.LabelWaffle:
			o.snapshot.Waffles++
		}
	case ClassificationFailed:
		o.snapshot.FailedClassifications++
	case OracleFallback:
		o.snapshot.OracleFallbacks++
	case ImageFetchFailed:
		o.snapshot.ImageFetchFailures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Snapshot returns current metrics
func (o *MetricsObserver) Snapshot() MetricsSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	s := o.snapshot
	if s.SuccessfulClassifications > 0 {
		avg := o.totalProcessingTime / time.Duration(s.SuccessfulClassifications)
		s.AvgProcessingTimeMs = float64(avg.Microseconds()) / 1000
	}
	return s
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	wg        sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event. Observers run
// concurrently and must not block; ctx is detached from request cancellation.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event ClassificationEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	ctx = context.WithoutCancel(ctx)
	for _, observer := range observers {
		p.wg.Add(1)
		go func(obs Observer) {
			defer p.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Flush waits for in-flight notifications, used on shutdown
func (p *EventPublisher) Flush() {
	p.wg.Wait()
}
