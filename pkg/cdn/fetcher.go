package cdn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"
)

var (
	ErrFetchStatus   = errors.New("unexpected status fetching resource")
	ErrFetchTooLarge = errors.New("resource exceeds fetch size limit")
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxBytes     = 64 << 20
)

// RetryConfig defines retry behaviour for fetches answered with 5xx.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// HTTPFetcher downloads remote resources before file sockets persist them.
type HTTPFetcher struct {
	Client   *http.Client
	MaxBytes int64
	Retry    RetryConfig
	Logger   *slog.Logger
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client:   &http.Client{Timeout: defaultFetchTimeout},
		MaxBytes: defaultMaxBytes,
		Retry:    RetryConfig{Attempts: 1},
		Logger:   slog.Default().With("module", "cdn_fetcher"),
	}
}

// Fetch returns the body and the media type announced by the server.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	attempts := max(f.Retry.Attempts, 1)

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			f.Logger.InfoContext(ctx, "Retrying fetch", "url", rawURL, "attempt", attempt, "attempts", attempts)

			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(f.Retry.Delay):
			}
		}

		data, mediaType, retry, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return data, mediaType, nil
		}

		lastErr = err
		if !retry {
			break
		}
	}

	return nil, "", lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL string) ([]byte, string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to create fetch request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, "", true, fmt.Errorf("fetch failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", resp.StatusCode >= http.StatusInternalServerError,
			fmt.Errorf("%w: %d from %s", ErrFetchStatus, resp.StatusCode, rawURL)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = defaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to read fetched body: %w", err)
	}

	if int64(len(data)) > limit {
		return nil, "", false, fmt.Errorf("%w (%d bytes)", ErrFetchTooLarge, limit)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	return data, mediaType, false, nil
}
