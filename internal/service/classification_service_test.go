package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/pancake-waffle-classifier/internal/analyzer"
	apperrors "github.com/anime-shed/pancake-waffle-classifier/internal/errors"
	"github.com/anime-shed/pancake-waffle-classifier/internal/observer"
	"github.com/anime-shed/pancake-waffle-classifier/internal/repository"
	"github.com/anime-shed/pancake-waffle-classifier/internal/storage"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func whiteImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// stripeImage draws two pixel wide vertical stripes
func stripeImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{A: 255}
			if ((x+1)/2)%2 == 1 {
				c = color.NRGBA{255, 255, 255, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

type fakeImages struct {
	decoded *storage.DecodedImage
	err     error
}

func (f *fakeImages) FetchImage(context.Context, string) (*storage.DecodedImage, error) {
	return f.decoded, f.err
}

func (f *fakeImages) ValidateImageURL(string) error { return nil }

type recordingObserver struct {
	mu     sync.Mutex
	events []observer.ClassificationEvent
}

func (r *recordingObserver) OnEvent(_ context.Context, e observer.ClassificationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) GetObserverName() string { return "recording" }

func (r *recordingObserver) types() map[observer.EventType]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[observer.EventType]int{}
	for _, e := range r.events {
		out[e.EventType]++
	}
	return out
}

type fixture struct {
	svc       ClassificationService
	images    *fakeImages
	events    *observer.EventPublisher
	recording *recordingObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pancakes1.jpeg"), encodePNG(t, whiteImage(100, 100)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "waffles1.jpg"), encodePNG(t, stripeImage(100, 100)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "waffles2.jpg"), []byte("not an image"), 0o644))
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)

	classifier, err := analyzer.NewClassifier(analyzer.DefaultOptions().WithRandom(analyzer.FixedRandom(0.5)))
	require.NoError(t, err)
	t.Cleanup(func() { classifier.Close() })

	events := observer.NewEventPublisher()
	recording := &recordingObserver{}
	events.Subscribe(recording)

	images := &fakeImages{}
	svc := NewClassificationService(Dependencies{
		Images:            images,
		Samples:           repository.NewSampleRepository(store, repository.DefaultSamples(), 1<<20, 1024),
		Classifier:        classifier,
		Events:            events,
		MaxImageDimension: 1024,
		OracleTimeout:     analyzer.DefaultOptions().OracleTimeout,
	})
	return &fixture{svc: svc, images: images, events: events, recording: recording}
}

func TestClassifyUpload(t *testing.T) {
	f := newFixture(t)
	ctx := WithRequestID(context.Background(), "req-42")

	resp, err := f.svc.ClassifyUpload(ctx, encodePNG(t, whiteImage(100, 100)), "plate.png", "")
	require.NoError(t, err)

	assert.Equal(t, "req-42", resp.ID)
	assert.Equal(t, "upload:plate.png", resp.Source)
	assert.Equal(t, models.ImageMetadata{Format: "png", Width: 100, Height: 100}, resp.Image)
	assert.Equal(t, models.LabelPancake, resp.Result.Prediction)
	assert.True(t, resp.Result.IsPancake)
	assert.Equal(t, models.OracleDisabled, resp.Result.OracleStatus)

	f.events.Flush()
	types := f.recording.types()
	assert.Equal(t, 1, types[observer.ClassificationStarted])
	assert.Equal(t, 1, types[observer.ClassificationCompleted])
}

func TestClassifyUpload_Errors(t *testing.T) {
	f := newFixture(t)

	transparent := image.NewNRGBA(image.Rect(0, 0, 40, 40))

	tests := []struct {
		name   string
		data   []byte
		mode   string
		status int
	}{
		{"empty body", nil, "", http.StatusBadRequest},
		{"not an image", []byte("hello, waffle"), "", http.StatusBadRequest},
		{"unknown mode", encodePNG(t, whiteImage(10, 10)), "neural", http.StatusBadRequest},
		{"one pixel", encodePNG(t, whiteImage(1, 1)), "", http.StatusBadRequest},
		{"fully transparent", encodePNG(t, transparent), "heuristic", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ClassifyUpload(context.Background(), tt.data, "", tt.mode)
			require.Error(t, err)
			assert.Equal(t, tt.status, apperrors.GetStatusCode(err))
		})
	}
}

func TestClassifyURL(t *testing.T) {
	f := newFixture(t)
	f.images.decoded = &storage.DecodedImage{Image: stripeImage(100, 100), Format: "jpeg", OriginalWidth: 400, OriginalHeight: 400}

	resp, err := f.svc.ClassifyURL(context.Background(), models.URLClassificationRequest{URL: "https://example.com/w.jpg", Mode: "blended"})
	require.NoError(t, err)
	assert.Equal(t, models.LabelWaffle, resp.Result.Prediction)
	assert.Equal(t, 400, resp.Image.Width)
	assert.NotEmpty(t, resp.ID)

	f.events.Flush()
	assert.Equal(t, 1, f.recording.types()[observer.ImageFetched])
}

func TestClassifyURL_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"rejected url", fmt.Errorf("%w: private host", repository.ErrInvalidImageURL), http.StatusBadRequest},
		{"not an image", fmt.Errorf("%w: png: invalid format", storage.ErrDecode), http.StatusBadRequest},
		{"server down", errors.New("server error: status code 503"), http.StatusBadGateway},
		{"slow", fmt.Errorf("failed to fetch image: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.images.err = tt.err

			_, err := f.svc.ClassifyURL(context.Background(), models.URLClassificationRequest{URL: "https://example.com/x.png"})
			require.Error(t, err)
			assert.Equal(t, tt.status, apperrors.GetStatusCode(err))

			f.events.Flush()
			assert.Equal(t, 1, f.recording.types()[observer.ImageFetchFailed])
		})
	}
}

func TestClassifySample(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		wantLabel string
	}{
		{"pancake3", models.LabelPancake},
		{"WAFFLE3", models.LabelWaffle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.ClassifySample(context.Background(), tt.name, "heuristic")
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, resp.Result.Prediction)
			assert.Equal(t, tt.wantLabel, resp.Result.ExpectedLabel)
			assert.True(t, resp.Result.Correct)
		})
	}
}

func TestClassifySample_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		sample string
		status int
	}{
		{"unknown sample", "crepe1", http.StatusNotFound},
		{"missing file", "pancake1", http.StatusNotFound},
		{"corrupt file", "waffle4", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ClassifySample(context.Background(), tt.sample, "")
			require.Error(t, err)
			assert.Equal(t, tt.status, apperrors.GetStatusCode(err))
		})
	}
}

func TestClassifyDetailed(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.ClassifyDetailed(context.Background(), encodePNG(t, stripeImage(100, 100)), "", "heuristic")
	require.NoError(t, err)

	assert.Equal(t, models.LabelWaffle, resp.Result.Prediction)
	require.NotNil(t, resp.Result.Features)
	require.Len(t, resp.RuleTrace, 7)
	assert.True(t, resp.RuleTrace[0].Fired)
	assert.Equal(t, 10, resp.Thresholds.SampleStride)
	assert.Equal(t, int64(3000), resp.Thresholds.OracleTimeoutMillis)
	assert.Equal(t, 100, resp.Diagnostics.Width)
	assert.GreaterOrEqual(t, resp.PerformanceMetrics.TotalProcessingTime, resp.PerformanceMetrics.ClassificationTime)
}

func TestListSamples(t *testing.T) {
	f := newFixture(t)

	list := f.svc.ListSamples()
	require.Len(t, list.Samples, 10)
	assert.Equal(t, "pancake1", list.Samples[0].Name)
	assert.Equal(t, "waffle5", list.Samples[9].Name)
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
	assert.Equal(t, "abc", RequestIDFromContext(WithRequestID(context.Background(), "abc")))
}
