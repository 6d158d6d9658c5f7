// Package sockets implements the port type system: compatibility between
// sockets and coercion of values into the shape each socket kind expects.
package sockets

import (
	"context"
	"log/slog"
	"sync"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/protocol"
)

// Kind is the closed set of socket kinds.
type Kind string

const (
	KindText      Kind = "text"
	KindNumber    Kind = "number"
	KindBoolean   Kind = "boolean"
	KindJSON      Kind = "json"
	KindFile      Kind = "file"
	KindImage     Kind = "image"
	KindAudio     Kind = "audio"
	KindDocument  Kind = "document"
	KindVideo     Kind = "video"
	KindAny       Kind = "any"
	KindPrimitive Kind = "primitive"
)

// IsFile reports whether the kind belongs to the file-resource family.
func (k Kind) IsFile() bool {
	switch k {
	case KindFile, KindImage, KindAudio, KindDocument, KindVideo:
		return true
	}

	return false
}

// Custom settings understood by the built-in kinds.
const (
	SettingArraySeparator  = "array_separator"
	SettingFilterEmpty     = "filter_empty"
	SettingDoNotReturnData = "do_not_return_data"
	SettingIncludeHeader   = "include_header"
	SettingCompatible      = "compatible"
)

// FormatBase64 asks file sockets to return base64 text instead of a handle.
const FormatBase64 = "base64"

// Env is what a socket may reach while coercing: the CDN, a fetcher for
// remote URLs, and the identity writes are attributed to.
type Env struct {
	CDN     protocol.CDN
	Fetcher protocol.Fetcher
	UserID  string
	JobID   string
	Logger  *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e == nil || e.Logger == nil {
		return slog.Default()
	}

	return e.Logger
}

// Socket is the type-and-coercion contract attached to a port.
type Socket interface {
	// Name is the canonical registry name: kind + "Array" + "_" + format.
	Name() string
	Kind() Kind
	Options() models.SocketOptions
	// CompatibleWith asks whether an edge from this socket into other is valid.
	// Unless noReverse is set, the question is handed to other, which decides
	// by its own rules whether it accepts this socket's kind.
	CompatibleWith(other Socket, noReverse bool) bool
	HandleInput(ctx context.Context, env *Env, value any) (any, error)
	HandleOutput(ctx context.Context, env *Env, value any) (any, error)
}

// family is shared by every socket of one kind so options registered later
// widen the accepted kinds of earlier siblings too.
type family struct {
	mu      sync.RWMutex
	kind    Kind
	accepts map[Kind]struct{}
	members map[string]struct{}
}

func newFamily(kind Kind) *family {
	f := &family{
		kind:    kind,
		accepts: make(map[Kind]struct{}),
		members: make(map[string]struct{}),
	}

	for _, k := range defaultAccepts(kind) {
		f.accepts[k] = struct{}{}
	}

	return f
}

func (f *family) merge(name string, extra []Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.members[name] = struct{}{}
	for _, k := range extra {
		f.accepts[k] = struct{}{}
	}
}

func (f *family) accept(k Kind) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, ok := f.accepts[k]

	return ok
}

func (f *family) siblings() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, 0, len(f.members))
	for name := range f.members {
		out = append(out, name)
	}

	return out
}

func defaultAccepts(kind Kind) []Kind {
	switch kind {
	case KindText:
		return []Kind{KindText, KindNumber, KindBoolean, KindJSON, KindFile, KindImage, KindAudio, KindDocument, KindVideo, KindAny}
	case KindNumber, KindBoolean:
		return []Kind{KindNumber, KindBoolean, KindText, KindAny}
	case KindJSON:
		return []Kind{KindJSON, KindText, KindNumber, KindBoolean, KindAny}
	case KindFile:
		return []Kind{KindFile, KindImage, KindAudio, KindDocument, KindVideo, KindText, KindAny}
	case KindImage, KindAudio, KindDocument, KindVideo:
		return []Kind{kind, KindFile, KindText, KindAny}
	case KindPrimitive:
		return []Kind{KindAny}
	default:
		return []Kind{kind, KindAny}
	}
}

// base carries what every kind shares.
type base struct {
	name   string
	kind   Kind
	opts   models.SocketOptions
	family *family
}

func (b *base) Name() string                  { return b.name }
func (b *base) Kind() Kind                    { return b.kind }
func (b *base) Options() models.SocketOptions { return b.opts }

// accepts is the sink-side rule: does this socket take values of other's kind.
func (b *base) accepts(other Socket) bool {
	if other.Name() == b.name {
		return true
	}

	return b.family.accept(other.Kind())
}

// compatible implements the directional double dispatch shared by all kinds.
func compatible(self Socket, b *base, other Socket, noReverse bool) bool {
	if other == nil {
		return false
	}

	if !noReverse {
		return other.CompatibleWith(self, true)
	}

	return b.accepts(other)
}

func (b *base) setting(key string) (any, bool) {
	return b.opts.Setting(key)
}

func (b *base) boolSetting(key string) bool {
	v, ok := b.setting(key)
	if !ok {
		return false
	}

	return truthy(v)
}
