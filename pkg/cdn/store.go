// Package cdn provides reference implementations of the content storage
// collaborator: an in-memory store for tests and single-node hosts, and a
// Redis-backed store for shared deployments.
package cdn

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/protocol"
	backend "github.com/redis/go-redis/v9"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidReference = errors.New("resource reference carries no fid")
	ErrUnsupportedURL   = errors.New("unsupported CDN url")
)

// DefaultTempTTL is how long PutTemp resources live unless overridden.
const DefaultTempTTL = 24 * time.Hour

// record is what a backend persists per fid.
type record struct {
	Handle models.Handle `json:"handle"`
	Data   []byte        `json:"data"`
}

type storage interface {
	save(ctx context.Context, fid string, rec record, ttl time.Duration) error
	// load returns nil, nil when the fid is unknown or expired.
	load(ctx context.Context, fid string) (*record, error)
}

// Store implements protocol.CDN over a storage backend.
type Store struct {
	storage storage
	baseURL string
	ttl     time.Duration
	prefix  string
	logger  *slog.Logger
}

type Option func(*Store)

// WithBaseURL sets the public URL resources are served from.
func WithBaseURL(baseURL string) Option {
	return func(s *Store) {
		s.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithTTL sets the default lifetime of temporary resources.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix used by the Redis backend.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func newStore(opts []Option) *Store {
	s := &Store{
		baseURL: "http://localhost:1688/fid",
		ttl:     DefaultTempTTL,
		prefix:  "omnitool:cdn:",
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("module", "cdn")

	return s
}

// Open builds a store from a URL: memory:// or redis://[user:pass@]host:port/db.
func Open(rawURL string, opts ...Option) (*Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnsupportedURL, rawURL, err)
	}

	switch u.Scheme {
	case "memory", "":
		return NewMemory(opts...), nil
	case "redis", "rediss":
		redisOpts, err := backend.ParseURL(rawURL)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrUnsupportedURL, rawURL, err)
		}

		return NewRedis(backend.NewClient(redisOpts), opts...), nil
	}

	return nil, fmt.Errorf("%w %q", ErrUnsupportedURL, rawURL)
}

func (s *Store) Find(ctx context.Context, fid string) (*models.Handle, error) {
	rec, err := s.storage.load(ctx, fid)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		return nil, nil
	}

	h := rec.Handle.WithoutData()

	return &h, nil
}

func (s *Store) Get(ctx context.Context, ref models.Handle, _ protocol.GetOptions, format protocol.GetFormat) (*models.Handle, error) {
	fid := referenceFID(ref)
	if fid == "" {
		return nil, ErrInvalidReference
	}

	rec, err := s.storage.load(ctx, fid)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fid)
	}

	h := rec.Handle.WithoutData()

	switch format {
	case protocol.GetFormatBase64, protocol.GetFormatAsBase64:
		h.Data = []byte(base64.StdEncoding.EncodeToString(rec.Data))
	case protocol.GetFormatStream, protocol.GetFormatFile:
		h.Data = append([]byte(nil), rec.Data...)
	case protocol.GetFormatNone:
	}

	return &h, nil
}

func (s *Store) PutTemp(ctx context.Context, data []byte, opts protocol.PutOptions) (*models.Handle, error) {
	fid := strings.ReplaceAll(uuid.NewString(), "-", "")

	mime := opts.MimeType
	if mime == "" {
		mime = mimetype.Detect(data).String()
	}

	fileType := opts.FileType
	if fileType == "" {
		fileType = fileTypeOf(mime)
	}

	h := models.Handle{
		FID:      fid,
		URL:      s.baseURL + "/" + fid,
		FURL:     models.MakeFURL(fid, extension(opts.FileName, mime)),
		FileName: opts.FileName,
		MimeType: mime,
		FileType: fileType,
		Size:     int64(len(data)),
		Meta:     models.CloneMap(opts.Meta),
	}

	if h.Meta == nil {
		h.Meta = map[string]any{}
	}

	if opts.UserID != "" {
		h.Meta["owner"] = opts.UserID
	}

	if opts.JobID != "" {
		h.Meta["jobId"] = opts.JobID
	}

	ttl := s.ttl
	if opts.TTL > 0 {
		ttl = opts.TTL
	}

	err := s.storage.save(ctx, fid, record{Handle: h, Data: data}, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to store resource: %w", err)
	}

	s.logger.DebugContext(ctx, "Stored temporary resource", "fid", fid, "mime", mime, "size", len(data))

	return &h, nil
}

func referenceFID(ref models.Handle) string {
	switch {
	case ref.FID != "":
		return ref.FID
	case ref.Ticket != "":
		return ref.Ticket
	}

	if fid, ok := models.ParseFURL(ref.FURL); ok {
		return fid
	}

	return ""
}

func extension(fileName, mime string) string {
	if ext := path.Ext(fileName); ext != "" {
		return ext
	}

	if m := mimetype.Lookup(mime); m != nil && m.Extension() != "" {
		return m.Extension()
	}

	return "bin"
}

func fileTypeOf(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "image"
	case strings.HasPrefix(mime, "audio/"):
		return "audio"
	case strings.HasPrefix(mime, "video/"):
		return "video"
	case strings.HasPrefix(mime, "text/"), mime == "application/pdf":
		return "document"
	}

	return "file"
}
