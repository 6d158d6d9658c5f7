package models

import (
	"path"
	"strings"
)

// FidScheme prefixes the portable URI form of a stored resource.
const FidScheme = "fid://"

// Handle is the canonical reference to a file-like value stored in the CDN.
type Handle struct {
	FID      string         `json:"fid,omitempty"`
	Ticket   string         `json:"ticket,omitempty"`
	URL      string         `json:"url,omitempty"`
	FURL     string         `json:"furl,omitempty"`
	FileName string         `json:"fileName,omitempty"`
	MimeType string         `json:"mimeType,omitempty"`
	FileType string         `json:"fileType,omitempty"`
	Size     int64          `json:"size,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
	Data     []byte         `json:"data,omitempty"`
}

// IsPersisted reports whether the handle is a stable reference that needs no write.
func (h Handle) IsPersisted() bool {
	return (h.FID != "" || h.Ticket != "") && h.URL != "" && len(h.Data) == 0
}

// Copy returns a deep copy of the handle.
func (h Handle) Copy() Handle {
	c := h
	c.Meta = CloneMap(h.Meta)

	if h.Data != nil {
		c.Data = append([]byte(nil), h.Data...)
	}

	return c
}

// WithoutData returns a copy without the payload bytes.
func (h Handle) WithoutData() Handle {
	c := h.Copy()
	c.Data = nil

	return c
}

// ToMap renders the handle in payload form.
func (h Handle) ToMap() map[string]any {
	m := map[string]any{
		"fid":      h.FID,
		"url":      h.URL,
		"furl":     h.FURL,
		"mimeType": h.MimeType,
		"fileType": h.FileType,
		"size":     h.Size,
	}

	if h.Ticket != "" {
		m["ticket"] = h.Ticket
	}

	if h.FileName != "" {
		m["fileName"] = h.FileName
	}

	if len(h.Meta) > 0 {
		m["meta"] = CloneMap(h.Meta)
	}

	if len(h.Data) > 0 {
		m["data"] = append([]byte(nil), h.Data...)
	}

	return m
}

// MakeFURL builds "fid://<fid>.<ext>".
func MakeFURL(fid, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return FidScheme + fid
	}

	return FidScheme + fid + "." + ext
}

// ParseFURL extracts the fid from a "fid://<fid>.<ext>" URI.
func ParseFURL(uri string) (string, bool) {
	if !strings.HasPrefix(uri, FidScheme) {
		return "", false
	}

	rest := strings.TrimPrefix(uri, FidScheme)
	fid := strings.TrimSuffix(rest, path.Ext(rest))

	return fid, fid != ""
}
