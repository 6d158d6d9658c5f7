// Package services exposes component catalog and execution operations to transports.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/omnitool-ai/omnitool-sub002/pkg/components"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/registry"
	"github.com/omnitool-ai/omnitool-sub002/pkg/sockets"
)

// ListComponentsRequest filters the component catalog. Empty fields match all.
type ListComponentsRequest struct {
	Namespace string
	Category  string
	Tag       string
}

// ExecuteRequest runs one node of a component outside of a recipe.
type ExecuteRequest struct {
	SessionID  string           `json:"session_id"`
	UserID     string           `json:"user_id"     validate:"required"`
	WorkflowID string           `json:"workflow_id"`
	NodeID     string           `json:"node_id"`
	Data       map[string]any   `json:"data"`
	Inputs     map[string][]any `json:"inputs"`
	Args       map[string]any   `json:"args"`
}

// ExecuteResult is what a node committed after running. NaN and infinite
// outputs are replaced by their string forms.
type ExecuteResult struct {
	NodeID  string         `json:"node_id"`
	JobID   string         `json:"job_id"`
	Outputs map[string]any `json:"outputs"`
}

// SocketInfo describes one registered socket.
type SocketInfo struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Array    bool     `json:"array,omitempty"`
	Format   string   `json:"format,omitempty"`
	Siblings []string `json:"siblings,omitempty"`
}

// Component handles component catalog, build and execution operations.
type Component struct {
	registry *registry.Registry
	host     *components.Host
	validate *validator.Validate
	logger   *slog.Logger
}

// NewComponent creates a new component service.
func NewComponent(reg *registry.Registry, host *components.Host) *Component {
	host = host.WithDefaults()

	return &Component{
		registry: reg,
		host:     host,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   host.Logger.With("module", "component_service"),
	}
}

// ListComponents returns the effective schemas matching req, ordered by key.
func (s *Component) ListComponents(_ context.Context, req ListComponentsRequest) []models.ComponentFormat {
	all := s.registry.List()
	out := make([]models.ComponentFormat, 0, len(all))

	for _, f := range all {
		if req.Namespace != "" && f.APINamespace != req.Namespace {
			continue
		}

		if req.Category != "" && !strings.EqualFold(f.Category, req.Category) {
			continue
		}

		if req.Tag != "" && !slices.Contains(f.Tags, req.Tag) {
			continue
		}

		out = append(out, f)
	}

	return out
}

// GetComponent returns the effective schema of key.
func (s *Component) GetComponent(_ context.Context, key string) (models.ComponentFormat, error) {
	if key == "" {
		return models.ComponentFormat{}, ErrEmptyKey
	}

	f, err := s.registry.Format(key)
	if err != nil {
		return models.ComponentFormat{}, wrap("get_component", "component_not_found", err)
	}

	return f, nil
}

// BuildNode renders key onto node. A nil node renders the component's defaults.
func (s *Component) BuildNode(ctx context.Context, key string, node *models.Node) (*components.BuildResult, error) {
	c, err := s.component(key, "build_node")
	if err != nil {
		return nil, err
	}

	if node != nil {
		if node.Component == "" {
			node.Component = key
		}

		if node.Component != key {
			return nil, invalid("build_node", "node_mismatch",
				fmt.Sprintf("node is bound to %s", node.Component), ErrNodeKeyMismatch)
		}
	}

	return c.Build(ctx, s.host.Sockets, node)
}

// Execute runs key as a single node and returns what it committed. When the
// pipeline fails the result still carries the node's outputs, including the
// error output.
func (s *Component) Execute(ctx context.Context, key string, req ExecuteRequest) (*ExecuteResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, invalid("execute", "invalid_request", err.Error(), ErrInvalidRequest)
	}

	c, err := s.component(key, "execute")
	if err != nil {
		return nil, err
	}

	nodeID := req.NodeID
	if nodeID == "" {
		nodeID = uuid.New().String()
	}

	node := models.NewNode(nodeID, key)
	for k, v := range req.Data {
		node.Data[k] = v
	}

	for k, v := range req.Inputs {
		node.Inputs[k] = v
	}

	job := models.NewJobContext(req.SessionID, req.UserID, req.WorkflowID, req.Args)

	wctx, err := components.NewWorkerContext(s.host, job, node)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker context: %w", err)
	}
	defer wctx.Dispose()

	s.logger.DebugContext(ctx, "Executing component", "component", key, "node_id", nodeID, "job_id", wctx.Job.JobID)

	_, err = c.WorkerStart(ctx, wctx)

	result := &ExecuteResult{NodeID: nodeID, JobID: wctx.Job.JobID, Outputs: models.FiniteMap(node.Outputs)}
	if err != nil {
		return result, wrap("execute", "execution_failed", err)
	}

	return result, nil
}

// Sockets resolves the socket of every registered port and lists the registry.
func (s *Component) Sockets(_ context.Context) []SocketInfo {
	for _, f := range s.registry.List() {
		for _, io := range f.Inputs {
			components.SocketFor(s.host.Sockets, io)
		}

		for _, io := range f.Outputs {
			components.SocketFor(s.host.Sockets, io)
		}
	}

	all := s.host.Sockets.All()
	out := make([]SocketInfo, 0, len(all))

	for _, sock := range all {
		opts := sock.Options()
		out = append(out, SocketInfo{
			Name:     sock.Name(),
			Kind:     string(sock.Kind()),
			Array:    opts.Array,
			Format:   opts.Format,
			Siblings: s.host.Sockets.Siblings(sock),
		})
	}

	return out
}

// CanConnect reports whether an output socket may be wired into an input socket.
func (s *Component) CanConnect(from, to string) (bool, error) {
	out, ok := s.host.Sockets.Get(from)
	if !ok {
		return false, invalid("can_connect", "unknown_socket", "unknown socket "+from, ErrInvalidRequest)
	}

	in, ok := s.host.Sockets.Get(to)
	if !ok {
		return false, invalid("can_connect", "unknown_socket", "unknown socket "+to, ErrInvalidRequest)
	}

	return sockets.CanConnect(out, in), nil
}

func (s *Component) component(key, op string) (*components.Component, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	c, err := s.registry.Get(key)
	if err != nil {
		return nil, wrap(op, "component_unavailable", err)
	}

	return c, nil
}
