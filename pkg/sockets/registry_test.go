package sockets

import (
	"testing"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetOrCreate_SharesInstances(t *testing.T) {
	r := NewRegistry(nil)

	a := r.GetOrCreate("text", models.SocketOptions{})
	b := r.GetOrCreate("string", models.SocketOptions{})

	assert.Same(t, a, b)
	assert.Equal(t, "text", a.Name())
	assert.Len(t, r.All(), 1)
}

func TestRegistry_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		opts     models.SocketOptions
		expected string
		kindOf   Kind
		array    bool
	}{
		{name: "image alias", kind: "imageArray", expected: "imageArray", kindOf: KindImage, array: true},
		{name: "image base64 marker", kind: "imageB64", expected: "image_base64", kindOf: KindImage},
		{name: "cdn object alias", kind: "cdnObjectArray", expected: "fileArray", kindOf: KindFile, array: true},
		{name: "object to json", kind: "object", expected: "json", kindOf: KindJSON},
		{name: "object array", kind: "objectArray", expected: "jsonArray", kindOf: KindJSON, array: true},
		{name: "primitive array type", kind: "array", expected: "jsonArray", kindOf: KindJSON, array: true},
		{name: "integer", kind: "integer", expected: "number", kindOf: KindNumber},
		{name: "explicit options", kind: "audio", opts: models.SocketOptions{Array: true, Format: "base64"}, expected: "audioArray_base64", kindOf: KindAudio, array: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(nil)
			s := r.GetOrCreate(tt.kind, tt.opts)

			assert.Equal(t, tt.expected, s.Name())
			assert.Equal(t, tt.kindOf, s.Kind())
			assert.Equal(t, tt.array, s.Options().Array)
		})
	}
}

func TestRegistry_UnknownKindFallsBackToPrimitive(t *testing.T) {
	r := NewRegistry(nil)

	s := r.GetOrCreate("quantum", models.SocketOptions{})

	_, ok := s.(*PrimitiveSocket)
	require.True(t, ok)
	assert.Equal(t, "quantum", s.Name())
	assert.Equal(t, KindPrimitive, s.Kind())

	found, ok := r.Get("quantum")
	require.True(t, ok)
	assert.Same(t, s, found)
}

func TestCanConnect_IsDirectional(t *testing.T) {
	r := NewRegistry(nil)

	text := r.GetOrCreate("text", models.SocketOptions{})
	number := r.GetOrCreate("number", models.SocketOptions{})
	json := r.GetOrCreate("json", models.SocketOptions{})
	image := r.GetOrCreate("image", models.SocketOptions{})
	anything := r.GetOrCreate("any", models.SocketOptions{})

	assert.True(t, CanConnect(number, text))
	assert.True(t, CanConnect(image, text))
	assert.True(t, CanConnect(text, image))
	assert.False(t, CanConnect(json, image))

	// json accepts numbers, numbers do not accept json
	assert.True(t, CanConnect(number, json))
	assert.False(t, CanConnect(json, number))

	assert.True(t, CanConnect(anything, number))
	assert.True(t, CanConnect(number, anything))
	assert.False(t, CanConnect(nil, number))
}

func TestCanConnect_Primitive(t *testing.T) {
	r := NewRegistry(nil)

	quantum := r.GetOrCreate("quantum", models.SocketOptions{})
	text := r.GetOrCreate("text", models.SocketOptions{})
	anything := r.GetOrCreate("any", models.SocketOptions{})

	assert.True(t, CanConnect(quantum, quantum))
	assert.False(t, CanConnect(quantum, text))
	assert.True(t, CanConnect(anything, quantum))
}

func TestRegistry_FamilyMerge(t *testing.T) {
	r := NewRegistry(nil)

	first := r.GetOrCreate("image", models.SocketOptions{})
	json := r.GetOrCreate("json", models.SocketOptions{})

	assert.False(t, CanConnect(json, first))

	second := r.GetOrCreate("image", models.SocketOptions{
		Format:         "base64",
		CustomSettings: map[string]any{SettingCompatible: []any{"object"}},
	})

	assert.NotSame(t, first, second)
	assert.True(t, CanConnect(json, first))
	assert.True(t, CanConnect(first, second))
	assert.Equal(t, []string{"image", "image_base64"}, r.Siblings(first))
}
