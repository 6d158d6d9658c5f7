package cmd

import (
	"log/slog"
	"time"

	"github.com/omnitool-ai/omnitool-sub002/pkg/cdn"
)

// NewCDN opens the resource store behind --cdn. publicURL is the prefix
// handed out in handle URLs, normally the server's /fid route.
func NewCDN(rawURL, publicURL string, ttl time.Duration, logger *slog.Logger) (*cdn.Store, error) {
	opts := []cdn.Option{cdn.WithLogger(logger)}

	if publicURL != "" {
		opts = append(opts, cdn.WithBaseURL(publicURL))
	}

	if ttl > 0 {
		opts = append(opts, cdn.WithTTL(ttl))
	}

	return cdn.Open(rawURL, opts...)
}
