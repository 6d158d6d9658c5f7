// Package protocol defines the contracts of the collaborators the component runtime consumes.
package protocol

import (
	"context"
	"time"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
)

// GetFormat selects how CDN.Get returns the resource payload.
type GetFormat string

const (
	GetFormatNone     GetFormat = ""
	GetFormatAsBase64 GetFormat = "asBase64"
	GetFormatBase64   GetFormat = "base64"
	GetFormatStream   GetFormat = "stream"
	GetFormatFile     GetFormat = "file"
)

// PutOptions describe a resource being written to the CDN.
type PutOptions struct {
	FileName string
	MimeType string
	FileType string
	UserID   string
	JobID    string
	TTL      time.Duration
	Meta     map[string]any
}

// GetOptions qualify a CDN read.
type GetOptions struct {
	UserID string
}

// CDN is the content-addressed storage service. Handles returned by Get and
// PutTemp always carry a stable fid and url; base64 formats populate Data with
// the base64 text.
type CDN interface {
	// Find returns nil, nil when the fid is unknown.
	Find(ctx context.Context, fid string) (*models.Handle, error)
	Get(ctx context.Context, ref models.Handle, opts GetOptions, format GetFormat) (*models.Handle, error)
	PutTemp(ctx context.Context, data []byte, opts PutOptions) (*models.Handle, error)
}

// Fetcher downloads remote content before it is persisted.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}
