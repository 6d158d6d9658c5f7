package components

import (
	"log/slog"
	"sync"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/sockets"
)

// WorkerContext is the node-scoped context of one execution. It is created
// per invocation and disposed afterwards.
type WorkerContext struct {
	Job  models.JobContext
	Node *models.Node

	mu   sync.RWMutex
	host *Host
}

// NewWorkerContext forks job so the execution cannot mutate the caller's copy.
func NewWorkerContext(host *Host, job models.JobContext, node *models.Node) (*WorkerContext, error) {
	forked, err := job.Fork()
	if err != nil {
		return nil, err
	}

	return &WorkerContext{
		Job:  forked,
		Node: node,
		host: host.WithDefaults(),
	}, nil
}

// Host returns the application reference, or ErrContextDisposed after Dispose.
func (w *WorkerContext) Host() (*Host, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.host == nil {
		return nil, ErrContextDisposed
	}

	return w.host, nil
}

// Dispose drops the application reference.
func (w *WorkerContext) Dispose() {
	w.mu.Lock()
	w.host = nil
	w.mu.Unlock()
}

func (w *WorkerContext) NodeID() string {
	if w.Node == nil {
		return ""
	}

	return w.Node.ID
}

// SocketEnv is what sockets may reach while coercing this node's values.
func (w *WorkerContext) SocketEnv() *sockets.Env {
	host, err := w.Host()
	if err != nil {
		return &sockets.Env{UserID: w.Job.UserID, JobID: w.Job.JobID}
	}

	return &sockets.Env{
		CDN:     host.CDN,
		Fetcher: host.Fetcher,
		UserID:  w.Job.UserID,
		JobID:   w.Job.JobID,
		Logger:  w.logger(host),
	}
}

func (w *WorkerContext) logger(host *Host) *slog.Logger {
	return host.Logger.With(
		"module", "component_runtime",
		"node_id", w.NodeID(),
		"job_id", w.Job.JobID,
	)
}
