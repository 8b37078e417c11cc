package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/anime-shed/pancake-waffle-classifier/internal/analyzer"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

const maxResponseBytes = 1 << 20

// HTTPOracle posts the raster as a PNG to a model server and reads back a
// JSON array of {"className","probability"} objects. It makes one attempt.
type HTTPOracle struct {
	endpoint string
	client   *http.Client
}

// NewHTTPOracle creates an oracle for the given endpoint
func NewHTTPOracle(endpoint string) *HTTPOracle {
	return &HTTPOracle{
		endpoint: endpoint,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
}

func (o *HTTPOracle) Name() string {
	return "http"
}

func (o *HTTPOracle) Classify(ctx context.Context, raster *analyzer.Raster) ([]models.OracleLabel, error) {
	body, contentType, err := encodeMultipart(raster)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building oracle request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status code %d", ErrBadResponse, resp.StatusCode)
	}

	var labels []models.OracleLabel
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&labels); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	for _, l := range labels {
		if l.Probability < 0 || l.Probability > 1 {
			return nil, fmt.Errorf("%w: probability %f for %q outside [0,1]", ErrBadResponse, l.Probability, l.ClassName)
		}
	}
	return labels, nil
}

func encodeMultipart(raster *analyzer.Raster) (*bytes.Buffer, string, error) {
	if err := raster.Validate(); err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, "", err
	}
	if err := png.Encode(part, raster.Image()); err != nil {
		return nil, "", fmt.Errorf("encoding raster: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

var _ analyzer.Oracle = (*HTTPOracle)(nil)
