package transport

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	apperrors "github.com/anime-shed/pancake-waffle-classifier/internal/errors"
	"github.com/anime-shed/pancake-waffle-classifier/internal/logger"
	"github.com/anime-shed/pancake-waffle-classifier/internal/observer"
	"github.com/anime-shed/pancake-waffle-classifier/internal/service"
	"github.com/anime-shed/pancake-waffle-classifier/internal/storage"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/validation"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

const version = "1.0.0"

// Options configures the HTTP surface
type Options struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	RateLimitRPS       float64
	RateLimitBurst     int
}

type handler struct {
	svc     service.ClassificationService
	metrics *observer.MetricsObserver
	opts    Options
}

// NewHandler builds the gin engine. metrics may be nil.
func NewHandler(svc service.ClassificationService, metrics *observer.MetricsObserver, opts Options) http.Handler {
	if metrics == nil {
		metrics = observer.NewMetricsObserver()
	}
	h := &handler{svc: svc, metrics: metrics, opts: opts}

	r := gin.Default()

	// Add middleware
	r.Use(
		requestID(),
		requestSizeLimiter(opts.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", h.metricsSnapshot)
	r.GET("/samples", h.listSamples)

	classify := r.Group("/classify", rateLimiter(opts.RateLimitRPS, opts.RateLimitBurst))
	classify.POST("", h.classifyUpload)
	classify.POST("/url", h.classifyURL)
	classify.POST("/detailed", h.classifyDetailed)
	classify.GET("/sample/:name", h.classifySample)

	return r
}

func (h *handler) classifyUpload(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	data, fileName, err := h.readUpload(c)
	if err != nil {
		respondError(c, determineStatusCode(err), "invalid upload", err)
		return
	}

	resp, err := h.svc.ClassifyUpload(ctx, data, fileName, modeParam(c))
	if err != nil {
		respondError(c, determineStatusCode(err), "classification failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) classifyDetailed(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	data, fileName, err := h.readUpload(c)
	if err != nil {
		respondError(c, determineStatusCode(err), "invalid upload", err)
		return
	}

	resp, err := h.svc.ClassifyDetailed(ctx, data, fileName, modeParam(c))
	if err != nil {
		respondError(c, determineStatusCode(err), "detailed classification failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) classifyURL(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req models.URLClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"ip": c.ClientIP(),
		}).Error("Invalid request format")
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}
	// Query parameter takes precedence over the JSON body
	if mode := c.Query("mode"); mode != "" {
		req.Mode = mode
	}

	logger.WithFields(logrus.Fields{
		"url":  req.URL,
		"mode": req.Mode,
	}).Debug("Fetching image")

	resp, err := h.svc.ClassifyURL(ctx, req)
	if err != nil {
		respondError(c, determineStatusCode(err), "classification failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) classifySample(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	resp, err := h.svc.ClassifySample(ctx, c.Param("name"), c.Query("mode"))
	if err != nil {
		respondError(c, determineStatusCode(err), "sample classification failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) listSamples(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListSamples())
}

func (h *handler) metricsSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// requestContext bounds the request and carries its id into the service
func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	ctx := service.WithRequestID(c.Request.Context(), c.GetString("request_id"))
	if h.opts.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.opts.RequestTimeout)
}

// readUpload returns the bytes of the multipart "image" field
func (h *handler) readUpload(c *gin.Context) ([]byte, string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", apperrors.NewValidationError("request body too large", err).
				WithDetails(fmt.Sprintf("limit is %d bytes", tooLarge.Limit))
		}
		return nil, "", apperrors.NewValidationError("multipart field \"image\" is required", err)
	}
	data, err := readFileHeader(fh, h.opts.MaxRequestBodySize)
	if err != nil {
		return nil, "", apperrors.NewValidationError("could not read uploaded file", err)
	}
	return data, fh.Filename, nil
}

func readFileHeader(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return storage.ReadLimited(f, limit)
}

func modeParam(c *gin.Context) string {
	if mode := c.PostForm("mode"); mode != "" {
		return mode
	}
	return c.Query("mode")
}

// Middleware and helper functions
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// rateLimiter admits requests through one shared token bucket
func rateLimiter(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	return func(c *gin.Context) {
		if !limiter.Allow() {
			err := apperrors.NewRateLimitError("too many classification requests")
			respondError(c, err.StatusCode, "rate limit exceeded", err)
			return
		}
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := apperrors.As(err); ok {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
		"request_id":  c.GetString("request_id"),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	detail := err.Error()
	if appErr, ok := apperrors.As(err); ok {
		detail = appErr.Message
		if appErr.Details != "" {
			detail += ": " + appErr.Details
		}
	}
	resp := models.ErrorResponse{
		Error:     http.StatusText(code),
		Message:   fmt.Sprintf("%s: %s", message, detail),
		RequestID: c.GetString("request_id"),
	}
	if apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		ve := validation.ToValidationError(err, "")
		resp.Validation = &ve
	}
	c.AbortWithStatusJSON(code, resp)
}
