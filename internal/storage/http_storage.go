package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (*DecodedImage, error)
}

// HTTPImageFetcher implements ImageFetcher over plain HTTP(S)
type HTTPImageFetcher struct {
	client   *http.Client
	maxBytes int64
	maxDim   int
	backoff  time.Duration
}

// NewHTTPImageFetcher creates an HTTP image fetcher. Downloads larger than
// maxBytes are rejected; decoded images are scaled to maxDim.
func NewHTTPImageFetcher(timeout time.Duration, maxBytes int64, maxDim int) ImageFetcher {
	return newHTTPImageFetcher(timeout, maxBytes, maxDim, time.Second)
}

func newHTTPImageFetcher(timeout time.Duration, maxBytes int64, maxDim int, backoff time.Duration) *HTTPImageFetcher {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxBytes: maxBytes,
		maxDim:   maxDim,
		backoff:  backoff,
	}
}

func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (*DecodedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req.Header.Set("Accept", "image/jpeg, image/png, image/gif, image/bmp, */*")
	req.Header.Set("User-Agent", "Pancake-Waffle-Classifier/1.0")

	// Retry logic (3 attempts) - only retry on transient errors
	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		resp, err = h.client.Do(req)
		if err != nil {
			lastErr = err
			resp = nil
		} else if resp.StatusCode == http.StatusOK {
			break
		} else {
			resp.Body.Close()
			lastErr = statusError(resp.StatusCode)
			retryable := resp.StatusCode >= 500
			resp = nil
			if !retryable {
				break
			}
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("failed to fetch image: %w", ctx.Err())
		}

		// Back off before next retry, 1x then 2x
		if attempt < 2 {
			select {
			case <-time.After(time.Duration(attempt+1) * h.backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("failed to fetch image: %w", ctx.Err())
			}
		}
	}

	if resp == nil {
		return nil, fmt.Errorf("failed to fetch image after 3 attempts: %w", lastErr)
	}
	defer resp.Body.Close()

	data, err := ReadLimited(resp.Body, h.maxBytes)
	if err != nil {
		return nil, err
	}
	return DecodeImage(data, h.maxDim)
}

func statusError(code int) error {
	if code >= 400 && code < 500 {
		return fmt.Errorf("client error: status code %d", code)
	}
	return fmt.Errorf("server error: status code %d", code)
}
