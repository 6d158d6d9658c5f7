package sockets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"unicode"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/protocol"
)

var (
	// ErrNoCDN is returned when a file socket has to write but no CDN is reachable.
	ErrNoCDN = errors.New("no CDN available to persist resource")
	// ErrNoFetcher is returned when a URL has to be fetched but no fetcher is set.
	ErrNoFetcher = errors.New("no fetcher available to download resource")
	// ErrPersist wraps every failure to turn a value into a stored resource.
	ErrPersist = errors.New("failed to persist resource")
)

// controlCharRatio is the share of control characters above which string
// content is not treated as text.
const controlCharRatio = 0.1

// FileSocket is the file-resource family: File, Image, Audio, Document and
// Video share persistence and differ in file type and MIME sniffing.
type FileSocket struct {
	base
}

func (s *FileSocket) CompatibleWith(other Socket, noReverse bool) bool {
	return compatible(s, &s.base, other, noReverse)
}

func (s *FileSocket) HandleInput(ctx context.Context, env *Env, value any) (any, error) {
	if s.opts.Array {
		list := toList(value)
		out := make([]any, 0, len(list))

		for _, v := range list {
			res, err := s.resolve(ctx, env, v)
			if err != nil {
				return nil, err
			}

			if res != nil {
				out = append(out, res)
			}
		}

		return nilIfEmpty(out), nil
	}

	return s.resolve(ctx, env, firstOf(value))
}

func (s *FileSocket) HandleOutput(ctx context.Context, env *Env, value any) (any, error) {
	return s.HandleInput(ctx, env, value)
}

func (s *FileSocket) resolve(ctx context.Context, env *Env, value any) (any, error) {
	h, err := s.Persist(ctx, env, value)
	if err != nil || h == nil {
		return nil, err
	}

	if s.opts.Format == FormatBase64 {
		return s.toBase64(ctx, env, *h)
	}

	if s.boolSetting(SettingDoNotReturnData) {
		return h.WithoutData().ToMap(), nil
	}

	return h.ToMap(), nil
}

// Persist turns a payload value into a stored handle. Already persisted
// handles are returned unchanged without touching the CDN.
func (s *FileSocket) Persist(ctx context.Context, env *Env, value any) (*models.Handle, error) {
	ref, err := ParseResourceRef(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	if ref == nil {
		return nil, nil
	}

	if p, ok := ref.(Persisted); ok {
		h := p.Handle.Copy()

		return &h, nil
	}

	if env == nil || env.CDN == nil {
		return nil, ErrNoCDN
	}

	var h *models.Handle

	switch r := ref.(type) {
	case RawBytes:
		mime := r.MimeType
		if mime == "" {
			mime = mimetype.Detect(r.Data).String()
		}

		h, err = env.CDN.PutTemp(ctx, r.Data, s.putOptions(env, r.FileName, mime, r.Meta))
	case RawURL:
		h, err = s.fetchAndPersist(ctx, env, r.URL)
	case FidRef:
		h, err = env.CDN.Get(ctx, models.Handle{FID: r.FID}, protocol.GetOptions{UserID: env.UserID}, protocol.GetFormatNone)
	case RawText:
		h, err = env.CDN.PutTemp(ctx, []byte(r.Text), s.putOptions(env, "", s.sniffText(r.Text), nil))
	default:
		err = fmt.Errorf("%w: %T", ErrUnsupportedResource, ref)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	return h, nil
}

func (s *FileSocket) fetchAndPersist(ctx context.Context, env *Env, rawURL string) (*models.Handle, error) {
	if env.Fetcher == nil {
		return nil, ErrNoFetcher
	}

	data, mime, err := env.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}

	if mime == "" {
		mime = mimetype.Detect(data).String()
	}

	return env.CDN.PutTemp(ctx, data, s.putOptions(env, urlFileName(rawURL), mime, map[string]any{"source": rawURL}))
}

// urlFileName is the last segment of the URL path, or "" when the path has none.
func urlFileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}

	return name
}

func (s *FileSocket) toBase64(ctx context.Context, env *Env, h models.Handle) (any, error) {
	if env == nil || env.CDN == nil {
		return nil, ErrNoCDN
	}

	full, err := env.CDN.Get(ctx, h, protocol.GetOptions{UserID: env.UserID}, protocol.GetFormatBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	encoded := string(full.Data)
	if s.boolSetting(SettingIncludeHeader) {
		return "data:" + full.MimeType + ";base64," + encoded, nil
	}

	return encoded, nil
}

func (s *FileSocket) putOptions(env *Env, fileName, mime string, meta map[string]any) protocol.PutOptions {
	return protocol.PutOptions{
		FileName: fileName,
		MimeType: mime,
		FileType: string(s.kind),
		UserID:   env.UserID,
		JobID:    env.JobID,
		Meta:     meta,
	}
}

// sniffText guesses the MIME type of string content. Documents count control
// characters; the other kinds ask mimetype.
func (s *FileSocket) sniffText(text string) string {
	if s.kind == KindDocument {
		if LooksLikeText(text) {
			return "text/plain"
		}

		return "application/octet-stream"
	}

	return mimetype.Detect([]byte(text)).String()
}

// LooksLikeText reports whether control characters stay below the text threshold.
func LooksLikeText(text string) bool {
	if text == "" || !utf8.ValidString(text) {
		return text == ""
	}

	total, control := 0, 0

	for _, r := range text {
		total++

		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			control++
		}
	}

	return float64(control)/float64(total) < controlCharRatio
}
