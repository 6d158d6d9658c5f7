package apiexec

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/protocol"
	"github.com/omnitool-ai/omnitool-sub002/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T, formats ...models.ComponentFormat) *registry.Registry {
	t.Helper()

	r := registry.NewRegistry(nil)
	for _, f := range formats {
		require.NoError(t, r.Register(f))
	}

	return r
}

var caller = protocol.Caller{User: "u1", SessionID: "s1", JobID: "job-1"}

func TestExecutor_JSONCall(t *testing.T) {
	var got struct {
		method, path, query, header, user, job, contentType string
		body                                                map[string]any
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.Query().Get("verbose")
		got.header = r.Header.Get("X-Trace")
		got.user = r.Header.Get(HeaderUser)
		got.job = r.Header.Get(HeaderJob)
		got.contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got.body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer": 42}`))
	}))
	defer server.Close()

	reg := newRegistry(t, models.ComponentFormat{
		APINamespace:   "acme",
		APIOperationID: "update",
		Method:         "PUT",
		Path:           "/items/{id}",
	})

	e := New(reg, WithBaseURL("acme", server.URL+"/"), WithHeader("acme", "Authorization", "Bearer t"))

	out, err := e.Execute(context.Background(), "acme.update", map[string]any{"title": "x"}, protocol.RequestOptions{
		Params: []protocol.Parameter{
			{Name: "id", In: "path", Value: "a b"},
			{Name: "verbose", In: "query", Value: true},
			{Name: "X-Trace", In: "header", Value: 7.0},
		},
	}, caller)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"answer": 42.0}, out)
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/items/a b", got.path)
	assert.Equal(t, "true", got.query)
	assert.Equal(t, "7", got.header)
	assert.Equal(t, "u1", got.user)
	assert.Equal(t, "job-1", got.job)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, map[string]any{"title": "x"}, got.body)
}

func TestExecutor_TextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		b, _ := io.ReadAll(r.Body)
		assert.Empty(t, b)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("hello"))
	}))
	defer server.Close()

	reg := newRegistry(t, models.ComponentFormat{APINamespace: "acme", APIOperationID: "hello", Method: "GET"})
	e := New(reg, WithBaseURL("acme", server.URL))

	out, err := e.Execute(context.Background(), "acme.hello", map[string]any{"ignored": true},
		protocol.RequestOptions{ResponseContentType: "text/plain"}, caller)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestExecutor_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	reg := newRegistry(t, models.ComponentFormat{APINamespace: "acme", APIOperationID: "fail"})
	e := New(reg, WithBaseURL("acme", server.URL))

	_, err := e.Execute(context.Background(), "acme.fail", nil, protocol.RequestOptions{}, caller)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.Status)
	assert.Contains(t, se.Body, "nope")
}

func TestExecutor_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	reg := newRegistry(t, models.ComponentFormat{APINamespace: "acme", APIOperationID: "flaky"})
	e := New(reg, WithBaseURL("acme", server.URL), WithRetry(RetryConfig{Attempts: 3}))

	out, err := e.Execute(context.Background(), "acme.flaky", map[string]any{"a": 1.0}, protocol.RequestOptions{}, caller)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestExecutor_UnknownNamespace(t *testing.T) {
	reg := newRegistry(t, models.ComponentFormat{APINamespace: "acme", APIOperationID: "x"})

	_, err := New(reg).Execute(context.Background(), "acme.x", nil, protocol.RequestOptions{}, caller)
	require.ErrorIs(t, err, ErrUnknownNamespace)

	_, err = New(reg).Execute(context.Background(), "other.x", nil, protocol.RequestOptions{}, caller)
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestExecutor_NonFiniteBody(t *testing.T) {
	var raw []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	reg := newRegistry(t, models.ComponentFormat{
		APINamespace:   "acme",
		APIOperationID: "score",
		Method:         "POST",
		Path:           "/score",
	})

	e := New(reg, WithBaseURL("acme", server.URL))

	_, err := e.Execute(context.Background(), "acme.score", map[string]any{
		"limit":   math.Inf(1),
		"weights": []any{1.0, math.NaN()},
	}, protocol.RequestOptions{}, caller)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, models.PositiveInfinity, body["limit"])
	assert.Equal(t, []any{1.0, models.NotANumber}, body["weights"])
}
