// Package apiexec performs the outbound HTTP call of components whose method
// is a real HTTP verb.
package apiexec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/protocol"
	"github.com/omnitool-ai/omnitool-sub002/pkg/registry"
)

const defaultTimeout = 60 * time.Second

// Headers identifying who a call runs on behalf of.
const (
	HeaderUser    = "X-Omni-User"
	HeaderSession = "X-Omni-Session"
	HeaderJob     = "X-Omni-Job"
)

var (
	ErrUnknownNamespace = errors.New("no base URL for namespace")
	ErrHTTPServerError  = errors.New("server error during API call")
)

// StatusError is returned when the API answers with a 4xx or 5xx status.
type StatusError struct {
	APIKey string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s answered %d: %s", e.APIKey, e.Status, e.Body)
}

// Resolver maps a component key to the operation it calls.
type Resolver interface {
	ResolveOperation(key string) (registry.Operation, error)
}

// RetryConfig defines retry behavior for calls answered with 5xx.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

var _ protocol.APIExecutor = (*Executor)(nil)

// Executor implements protocol.APIExecutor over net/http.
type Executor struct {
	resolver Resolver
	client   *http.Client
	baseURLs map[string]string
	headers  map[string]http.Header
	retry    RetryConfig
	logger   *slog.Logger
}

type Option func(*Executor)

// WithBaseURL routes every operation of namespace to baseURL.
func WithBaseURL(namespace, baseURL string) Option {
	return func(e *Executor) {
		e.baseURLs[namespace] = strings.TrimRight(baseURL, "/")
	}
}

// WithHeader adds a static header, e.g. credentials, to calls into namespace.
func WithHeader(namespace, key, value string) Option {
	return func(e *Executor) {
		h, ok := e.headers[namespace]
		if !ok {
			h = make(http.Header)
			e.headers[namespace] = h
		}

		h.Set(key, value)
	}
}

func WithClient(client *http.Client) Option {
	return func(e *Executor) {
		e.client = client
	}
}

func WithRetry(retry RetryConfig) Option {
	return func(e *Executor) {
		e.retry = retry
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

func New(resolver Resolver, opts ...Option) *Executor {
	e := &Executor{
		resolver: resolver,
		client:   &http.Client{Timeout: defaultTimeout},
		baseURLs: make(map[string]string),
		headers:  make(map[string]http.Header),
		retry:    RetryConfig{Attempts: 1},
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With("module", "api_executor")

	return e
}

// Execute calls the operation behind apiKey. JSON responses are decoded;
// anything else textual comes back as a string, binary bodies as bytes.
func (e *Executor) Execute(ctx context.Context, apiKey string, body map[string]any, opts protocol.RequestOptions, caller protocol.Caller) (any, error) {
	op, err := e.resolver.ResolveOperation(apiKey)
	if err != nil {
		return nil, err
	}

	base, ok := e.baseURLs[op.Namespace]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNamespace, op.Namespace)
	}

	logger := e.logger.With("api", apiKey, "method", op.Method, "job_id", caller.JobID)
	attempts := max(e.retry.Attempts, 1)

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			logger.InfoContext(ctx, "Retrying API call", "attempt", attempt, "attempts", attempts)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.retry.Delay):
			}
		}

		req, err := e.buildRequest(ctx, base, op, body, opts, caller)
		if err != nil {
			return nil, err
		}

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("api call failed: %w", err)

			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError && attempt < attempts {
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("%w (status %d)", ErrHTTPServerError, resp.StatusCode)

			continue
		}

		return e.processResponse(ctx, apiKey, resp, opts.ResponseContentType, logger)
	}

	return nil, fmt.Errorf("all retry attempts failed, last error: %w", lastErr)
}

func (e *Executor) buildRequest(
	ctx context.Context,
	base string,
	op registry.Operation,
	body map[string]any,
	opts protocol.RequestOptions,
	caller protocol.Caller,
) (*http.Request, error) {
	path := op.Path
	query := url.Values{}
	headers := make(http.Header)

	var cookies []*http.Cookie

	for _, p := range opts.Params {
		value := paramString(p.Value)

		switch p.In {
		case "path":
			path = strings.ReplaceAll(path, "{"+p.Name+"}", url.PathEscape(value))
		case "header":
			headers.Set(p.Name, value)
		case "cookie":
			cookies = append(cookies, &http.Cookie{Name: p.Name, Value: value})
		default:
			query.Add(p.Name, value)
		}
	}

	target := base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader

	if hasBody(op.Method, body) {
		b, err := json.Marshal(models.FiniteMap(body))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create api request: %w", err)
	}

	for k, v := range e.headers[op.Namespace] {
		req.Header[k] = append([]string(nil), v...)
	}

	for k, v := range headers {
		req.Header[k] = v
	}

	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	accept := opts.ResponseContentType
	if accept == "" {
		accept = "application/json"
	}

	req.Header.Set("Accept", accept)
	req.Header.Set(HeaderUser, caller.User)
	req.Header.Set(HeaderSession, caller.SessionID)
	req.Header.Set(HeaderJob, caller.JobID)

	for _, c := range cookies {
		req.AddCookie(c)
	}

	return req, nil
}

func (e *Executor) processResponse(ctx context.Context, apiKey string, resp *http.Response, expected string, logger *slog.Logger) (any, error) {
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{APIKey: apiKey, Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	logger.DebugContext(ctx, "API call completed", "status", resp.StatusCode, "bytes", len(bodyBytes))

	mediaType := expected
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType = ct
	}

	mediaType, _, _ = mime.ParseMediaType(mediaType)

	switch {
	case len(bodyBytes) == 0:
		return map[string]any{}, nil
	case mediaType == "" || strings.HasSuffix(mediaType, "json"):
		var body any

		err = json.Unmarshal(bodyBytes, &body)
		if err != nil {
			logger.WarnContext(ctx, "Failed to parse response as JSON, returning as string", "error", err)

			return string(bodyBytes), nil
		}

		return body, nil
	case strings.HasPrefix(mediaType, "text/"), strings.HasSuffix(mediaType, "xml"):
		return string(bodyBytes), nil
	}

	return bodyBytes, nil
}

func hasBody(method string, body map[string]any) bool {
	switch method {
	case http.MethodGet, http.MethodHead:
		return false
	}

	return len(body) > 0
}

func paramString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case bool, float64, float32, int, int64:
		return fmt.Sprint(t)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	return string(b)
}
