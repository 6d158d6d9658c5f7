package sockets

import (
	"context"
	"errors"
	"testing"

	"github.com/omnitool-ai/omnitool-sub002/pkg/mocks"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func storedHandle(fid string) *models.Handle {
	return &models.Handle{
		FID:      fid,
		URL:      "http://cdn.local/fid/" + fid,
		FURL:     models.MakeFURL(fid, "png"),
		MimeType: "image/png",
		FileType: "image",
		Size:     4,
	}
}

func newEnv(cdn *mocks.MockCDN, fetcher *mocks.MockFetcher) *Env {
	env := &Env{CDN: cdn, UserID: "user-1", JobID: "job-1"}
	if fetcher != nil {
		env.Fetcher = fetcher
	}

	return env
}

func TestFileSocket_PersistedHandleIsIdempotent(t *testing.T) {
	cdn := &mocks.MockCDN{}
	s := NewRegistry(nil).GetOrCreate("image", models.SocketOptions{})

	in := map[string]any{"fid": "f1", "url": "http://cdn.local/fid/f1", "mimeType": "image/png"}

	out, err := s.HandleInput(context.Background(), newEnv(cdn, nil), in)
	require.NoError(t, err)

	res, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "f1", res["fid"])
	assert.Equal(t, "http://cdn.local/fid/f1", res["url"])

	cdn.AssertNotCalled(t, "PutTemp", mock.Anything, mock.Anything, mock.Anything)
	cdn.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFileSocket_PersistsBytes(t *testing.T) {
	cdn := &mocks.MockCDN{}
	cdn.On("PutTemp", mock.Anything, []byte("raw!"), mock.MatchedBy(func(opts protocol.PutOptions) bool {
		return opts.FileType == "file" && opts.UserID == "user-1" && opts.JobID == "job-1"
	})).Return(storedHandle("b1"), nil).Once()

	s := NewRegistry(nil).GetOrCreate("file", models.SocketOptions{})

	out, err := s.HandleInput(context.Background(), newEnv(cdn, nil), []byte("raw!"))
	require.NoError(t, err)

	res, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "b1", res["fid"])
	cdn.AssertExpectations(t)
}

func TestFileSocket_FetchesURLOnce(t *testing.T) {
	cdn := &mocks.MockCDN{}
	fetcher := &mocks.MockFetcher{}

	fetcher.On("Fetch", mock.Anything, "https://example.com/a.png").Return([]byte("\x89PNG"), "image/png", nil).Once()
	cdn.On("PutTemp", mock.Anything, []byte("\x89PNG"), mock.MatchedBy(func(opts protocol.PutOptions) bool {
		return opts.FileName == "a.png" && opts.MimeType == "image/png" && opts.FileType == "image"
	})).Return(storedHandle("u1"), nil).Once()

	s := NewRegistry(nil).GetOrCreate("image", models.SocketOptions{})

	out, err := s.HandleInput(context.Background(), newEnv(cdn, fetcher), "https://example.com/a.png")
	require.NoError(t, err)

	res, ok := out.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, res["fid"])
	cdn.AssertNumberOfCalls(t, "PutTemp", 1)
	fetcher.AssertExpectations(t)
}

func TestFileSocket_ResolvesFidURI(t *testing.T) {
	cdn := &mocks.MockCDN{}
	cdn.On("Get", mock.Anything, models.Handle{FID: "abc"}, protocol.GetOptions{UserID: "user-1"}, protocol.GetFormatNone).
		Return(storedHandle("abc"), nil).Once()

	s := NewRegistry(nil).GetOrCreate("file", models.SocketOptions{})

	out, err := s.HandleInput(context.Background(), newEnv(cdn, nil), "fid://abc.png")
	require.NoError(t, err)

	res, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "abc", res["fid"])
	cdn.AssertExpectations(t)
}

func TestFileSocket_Base64Format(t *testing.T) {
	encoded := &models.Handle{FID: "f1", URL: "http://cdn.local/fid/f1", MimeType: "text/plain", Data: []byte("aGVsbG8=")}

	cdn := &mocks.MockCDN{}
	cdn.On("Get", mock.Anything, mock.AnythingOfType("models.Handle"), mock.Anything, protocol.GetFormatBase64).Return(encoded, nil)

	r := NewRegistry(nil)
	in := map[string]any{"fid": "f1", "url": "http://cdn.local/fid/f1"}

	plain := r.GetOrCreate("documentB64", models.SocketOptions{})
	out, err := plain.HandleInput(context.Background(), newEnv(cdn, nil), in)
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", out)

	withHeader := r.GetOrCreate("document", models.SocketOptions{
		Format:         FormatBase64,
		Array:          true,
		CustomSettings: map[string]any{SettingIncludeHeader: true},
	})
	out, err = withHeader.HandleInput(context.Background(), newEnv(cdn, nil), in)
	require.NoError(t, err)
	assert.Equal(t, []any{"data:text/plain;base64,aGVsbG8="}, out)
}

func TestFileSocket_DoNotReturnData(t *testing.T) {
	withData := storedHandle("d1")
	withData.Data = []byte("payload")

	cdn := &mocks.MockCDN{}
	cdn.On("PutTemp", mock.Anything, []byte("payload"), mock.Anything).Return(withData, nil)

	r := NewRegistry(nil)
	s := r.GetOrCreate("file", models.SocketOptions{CustomSettings: map[string]any{SettingDoNotReturnData: true}})

	out, err := s.HandleInput(context.Background(), newEnv(cdn, nil), []byte("payload"))
	require.NoError(t, err)

	res, ok := out.(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, res, "data")
}

func TestFileSocket_ArrayDropsEmpty(t *testing.T) {
	cdn := &mocks.MockCDN{}
	s := NewRegistry(nil).GetOrCreate("fileArray", models.SocketOptions{})

	in := []any{map[string]any{"fid": "f1", "url": "http://cdn.local/fid/f1"}, nil, ""}

	out, err := s.HandleInput(context.Background(), newEnv(cdn, nil), in)
	require.NoError(t, err)

	list, ok := out.([]any)
	require.True(t, ok)
	assert.Len(t, list, 1)

	out, err = s.HandleInput(context.Background(), newEnv(cdn, nil), []any{nil})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestFileSocket_Failures(t *testing.T) {
	s := NewRegistry(nil).GetOrCreate("document", models.SocketOptions{})

	_, err := s.HandleInput(context.Background(), nil, "some text")
	require.ErrorIs(t, err, ErrNoCDN)

	cdn := &mocks.MockCDN{}
	cdn.On("PutTemp", mock.Anything, []byte("some text"), mock.MatchedBy(func(opts protocol.PutOptions) bool {
		return opts.MimeType == "text/plain"
	})).Return(nil, errors.New("disk full"))

	_, err = s.HandleInput(context.Background(), newEnv(cdn, nil), "some text")
	require.ErrorIs(t, err, ErrPersist)

	_, err = s.HandleInput(context.Background(), newEnv(cdn, nil), 42)
	require.ErrorIs(t, err, ErrUnsupportedResource)

	_, err = s.HandleInput(context.Background(), newEnv(cdn, nil), "https://example.com/doc.pdf")
	require.ErrorIs(t, err, ErrNoFetcher)
}

func TestLooksLikeText(t *testing.T) {
	assert.True(t, LooksLikeText("hello\nworld\t!"))
	assert.False(t, LooksLikeText("\x00\x01\x02abc"))
	assert.True(t, LooksLikeText(""))
}

func TestParseResourceRef(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected ResourceRef
	}{
		{name: "nil", input: nil, expected: nil},
		{name: "blank string", input: "  ", expected: nil},
		{name: "url", input: "http://example.com/x.txt", expected: RawURL{URL: "http://example.com/x.txt"}},
		{name: "fid uri", input: "fid://abc.jpg", expected: FidRef{FID: "abc"}},
		{name: "relative path is text", input: "/tmp/x", expected: RawText{Text: "/tmp/x"}},
		{name: "bytes", input: []byte("hi"), expected: RawBytes{Data: []byte("hi")}},
		{name: "fid without url", input: map[string]any{"fid": "f9"}, expected: FidRef{FID: "f9"}},
		{
			name:     "persisted",
			input:    models.Handle{FID: "f1", URL: "u", Size: 3},
			expected: Persisted{Handle: models.Handle{FID: "f1", URL: "u", Size: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseResourceRef(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ref)
		})
	}
}

func TestURLFileName(t *testing.T) {
	tests := map[string]string{
		"https://example.com/a.png":            "a.png",
		"https://example.com/dir/b.jpg?x=1#f": "b.jpg",
		"https://example.com":                  "",
		"https://example.com/":                 "",
		"http://[::1]:namedport":               "",
	}

	for raw, want := range tests {
		assert.Equal(t, want, urlFileName(raw), raw)
	}
}

func TestFileSocket_FetchedHostIsNotAFileName(t *testing.T) {
	cdn := &mocks.MockCDN{}
	fetcher := &mocks.MockFetcher{}

	fetcher.On("Fetch", mock.Anything, "https://example.com?size=2").Return([]byte("\x89PNG"), "image/png", nil).Once()
	cdn.On("PutTemp", mock.Anything, []byte("\x89PNG"), mock.MatchedBy(func(opts protocol.PutOptions) bool {
		return opts.FileName == ""
	})).Return(storedHandle("u2"), nil).Once()

	s := NewRegistry(nil).GetOrCreate("image", models.SocketOptions{})

	_, err := s.HandleInput(context.Background(), newEnv(cdn, fetcher), "https://example.com?size=2")
	require.NoError(t, err)
	cdn.AssertExpectations(t)
}
