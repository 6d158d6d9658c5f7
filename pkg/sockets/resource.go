package sockets

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
)

// ErrUnsupportedResource is returned for values no file socket can persist.
var ErrUnsupportedResource = errors.New("unsupported resource value")

// ResourceRef is the shape a file-like value was recognised as. It is chosen
// once at the socket boundary.
type ResourceRef interface {
	isResourceRef()
}

// Persisted is a handle that already lives in the CDN.
type Persisted struct {
	Handle models.Handle
}

// RawBytes is binary content that still has to be written.
type RawBytes struct {
	Data     []byte
	MimeType string
	FileName string
	Meta     map[string]any
}

// RawURL is an absolute http(s) URL to fetch and persist.
type RawURL struct {
	URL string
}

// FidRef is a fid:// URI pointing at an existing resource.
type FidRef struct {
	FID string
}

// RawText is string content persisted as-is.
type RawText struct {
	Text string
}

func (Persisted) isResourceRef() {}
func (RawBytes) isResourceRef()  {}
func (RawURL) isResourceRef()    {}
func (FidRef) isResourceRef()    {}
func (RawText) isResourceRef()   {}

// ParseResourceRef classifies a payload value. It returns nil, nil for empty input.
func ParseResourceRef(v any) (ResourceRef, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case models.Handle:
		return fromHandle(t), nil
	case *models.Handle:
		if t == nil {
			return nil, nil
		}

		return fromHandle(*t), nil
	case []byte:
		if len(t) == 0 {
			return nil, nil
		}

		return RawBytes{Data: t}, nil
	case string:
		return fromString(t), nil
	case map[string]any:
		h, err := DecodeHandle(t)
		if err != nil {
			return nil, err
		}

		return fromHandle(h), nil
	}

	return nil, fmt.Errorf("%w: %T", ErrUnsupportedResource, v)
}

// DecodeHandle decodes a loosely typed payload object into a Handle.
func DecodeHandle(m map[string]any) (models.Handle, error) {
	var h models.Handle

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &h,
	})
	if err != nil {
		return h, err
	}

	err = decoder.Decode(m)
	if err != nil {
		return h, fmt.Errorf("failed to decode resource handle: %w", err)
	}

	return h, nil
}

func fromHandle(h models.Handle) ResourceRef {
	switch {
	case h.IsPersisted():
		return Persisted{Handle: h}
	case len(h.Data) > 0:
		return RawBytes{Data: h.Data, MimeType: h.MimeType, FileName: h.FileName, Meta: h.Meta}
	case h.FID != "":
		return FidRef{FID: h.FID}
	case h.FURL != "":
		return fromString(h.FURL)
	case h.URL != "":
		return fromString(h.URL)
	}

	return nil
}

func fromString(s string) ResourceRef {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if fid, ok := models.ParseFURL(s); ok {
		return FidRef{FID: fid}
	}

	if isHTTPURL(s) {
		return RawURL{URL: s}
	}

	return RawText{Text: s}
}

func isHTTPURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
