// Package web provides HTTP request and response types for the component API.
package web

import (
	"github.com/moogar0880/problems"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/services"
)

// BuildComponentRequest represents the optional body of a build call. Without
// a node the component renders with its defaults.
type BuildComponentRequest struct {
	Node *models.Node `json:"node,omitempty"`
}

// ExecuteComponentRequest represents the request body for running a component.
type ExecuteComponentRequest struct {
	SessionID  string           `json:"session_id"`
	UserID     string           `json:"user_id"     validate:"required"`
	WorkflowID string           `json:"workflow_id"`
	NodeID     string           `json:"node_id"`
	Data       map[string]any   `json:"data"`
	Inputs     map[string][]any `json:"inputs"`
	Args       map[string]any   `json:"args"`
}

func (r ExecuteComponentRequest) toService() services.ExecuteRequest {
	return services.ExecuteRequest(r)
}

// ExecuteComponentResponse carries what the node committed. On a pipeline
// failure the problem is set and outputs hold the error output.
type ExecuteComponentResponse struct {
	*services.ExecuteResult

	Problem *problems.Problem `json:"problem,omitempty"`
}

// ComponentListResponse wraps the catalog.
type ComponentListResponse struct {
	Components []models.ComponentFormat `json:"components"`
	TotalCount int                      `json:"total_count"`
}

// CanConnectResponse answers whether two sockets may be wired.
type CanConnectResponse struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Compatible bool   `json:"compatible"`
}
