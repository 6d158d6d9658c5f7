package protocol

import "context"

// Parameter is a request field that travels outside the body.
type Parameter struct {
	Name  string `json:"name"`
	In    string `json:"in"`
	Value any    `json:"value"`
}

// RequestOptions carry the non-body parts of an API call.
type RequestOptions struct {
	Params              []Parameter
	ResponseContentType string
}

// Caller tags an API call with the identity it runs on behalf of.
type Caller struct {
	User      string
	SessionID string
	JobID     string
}

// APIExecutor performs the outbound call of a non pseudo-method component.
// The response is either a decoded JSON value or a string.
type APIExecutor interface {
	Execute(ctx context.Context, apiKey string, body map[string]any, opts RequestOptions, caller Caller) (any, error)
}

// Evaluator runs a query expression against a payload.
type Evaluator interface {
	Evaluate(expression string, data any) (any, error)
}
