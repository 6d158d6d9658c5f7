package sockets

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
)

// Registry maps canonical socket names to one shared instance each. It is
// append-only after warm-up and safe for concurrent use.
type Registry struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	sockets  map[string]Socket
	families map[Kind]*family
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		logger:   logger.With("module", "socket_registry"),
		sockets:  make(map[string]Socket),
		families: make(map[Kind]*family),
	}
}

// CanonicalName is kind + "Array" when array + "_<format>" when a format is set.
func CanonicalName(kind string, opts models.SocketOptions) string {
	name := kind
	if opts.Array {
		name += "Array"
	}

	if opts.Format != "" {
		name += "_" + opts.Format
	}

	return name
}

// Normalize resolves aliases and the Array/B64 name markers into a base kind
// name and adjusted options.
func Normalize(kind string, opts models.SocketOptions) (string, models.SocketOptions) {
	name := strings.TrimSpace(kind)

	if strings.Contains(name, "Array") {
		opts.Array = true
		name = strings.Replace(name, "Array", "", 1)
	}

	if strings.Contains(name, "B64") {
		opts.Format = FormatBase64
		name = strings.Replace(name, "B64", "", 1)
	}

	lower := strings.ToLower(name)

	switch {
	case strings.HasPrefix(lower, "image"):
		name = string(KindImage)
	case strings.HasPrefix(lower, "audio"):
		name = string(KindAudio)
	case strings.HasPrefix(lower, "document"):
		name = string(KindDocument)
	case strings.HasPrefix(lower, "video"):
		name = string(KindVideo)
	case strings.HasPrefix(lower, "cdnobject"), strings.HasPrefix(lower, "file"):
		name = string(KindFile)
	case strings.Contains(lower, "object"), lower == "json":
		name = string(KindJSON)
	case lower == models.TypeArray:
		name = string(KindJSON)
		opts.Array = true
	case lower == "string", lower == "text":
		name = string(KindText)
	case lower == models.TypeNumber, lower == models.TypeInteger, lower == "float":
		name = string(KindNumber)
	case lower == models.TypeBoolean:
		name = string(KindBoolean)
	case lower == "any":
		name = string(KindAny)
	}

	return name, opts
}

// GetOrCreate returns the shared socket for (kind, opts), creating it on
// first request. Unknown kinds degrade to an inert primitive socket.
func (r *Registry) GetOrCreate(kind string, opts models.SocketOptions) Socket {
	name, opts := Normalize(kind, opts)
	canonical := CanonicalName(name, opts)

	r.mu.RLock()
	s, ok := r.sockets[canonical]
	r.mu.RUnlock()

	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sockets[canonical]; ok {
		return s
	}

	k := Kind(name)
	if !known(k) {
		r.logger.Warn("Unknown socket kind, falling back to primitive", "kind", kind, "socket", canonical)
		k = KindPrimitive
	}

	fam, ok := r.families[k]
	if !ok {
		fam = newFamily(k)
		r.families[k] = fam
	}

	fam.merge(canonical, extraAccepts(opts))

	b := base{name: canonical, kind: k, opts: opts, family: fam}

	s = newSocket(b)
	r.sockets[canonical] = s

	r.logger.Debug("Registered socket", "socket", canonical, "kind", k, "siblings", len(fam.siblings()))

	return s
}

// Get returns a registered socket by canonical name.
func (r *Registry) Get(canonical string) (Socket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sockets[canonical]

	return s, ok
}

// All lists the registered sockets ordered by name.
func (r *Registry) All() []Socket {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Socket, 0, len(r.sockets))
	for _, s := range r.sockets {
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })

	return out
}

// Siblings lists the canonical names registered under the same kind.
func (r *Registry) Siblings(s Socket) []string {
	r.mu.RLock()
	fam, ok := r.families[s.Kind()]
	r.mu.RUnlock()

	if !ok {
		return nil
	}

	names := fam.siblings()
	sort.Strings(names)

	return names
}

// CanConnect reports whether an edge from an output socket into an input socket is valid.
func CanConnect(from, to Socket) bool {
	if from == nil || to == nil {
		return false
	}

	return from.CompatibleWith(to, false)
}

func known(k Kind) bool {
	switch k {
	case KindText, KindNumber, KindBoolean, KindJSON, KindAny,
		KindFile, KindImage, KindAudio, KindDocument, KindVideo:
		return true
	}

	return false
}

func newSocket(b base) Socket {
	switch {
	case b.kind == KindText:
		return &TextSocket{base: b}
	case b.kind == KindNumber:
		return &NumberSocket{base: b}
	case b.kind == KindBoolean:
		return &BooleanSocket{base: b}
	case b.kind == KindJSON:
		return &JSONSocket{base: b}
	case b.kind == KindAny:
		return &AnySocket{base: b}
	case b.kind.IsFile():
		return &FileSocket{base: b}
	}

	return &PrimitiveSocket{base: b}
}

// extraAccepts reads the "compatible" custom setting (a list of kind names).
func extraAccepts(opts models.SocketOptions) []Kind {
	v, ok := opts.Setting(SettingCompatible)
	if !ok {
		return nil
	}

	list, _ := asSlice(v)
	out := make([]Kind, 0, len(list))

	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			continue
		}

		name, _ := Normalize(s, models.SocketOptions{})
		out = append(out, Kind(name))
	}

	return out
}
