package cdn

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/protocol"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStoreContract(t *testing.T, store *Store) {
	t.Helper()

	ctx := context.Background()

	h, err := store.PutTemp(ctx, []byte("hello"), protocol.PutOptions{
		FileName: "greeting.txt",
		MimeType: "text/plain",
		UserID:   "user-1",
		JobID:    "job-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, h.FID)
	assert.Equal(t, "https://cdn.test/fid/"+h.FID, h.URL)
	assert.Equal(t, "fid://"+h.FID+".txt", h.FURL)
	assert.Equal(t, "document", h.FileType)
	assert.EqualValues(t, 5, h.Size)
	assert.Equal(t, "user-1", h.Meta["owner"])
	assert.True(t, h.IsPersisted())

	found, err := store.Find(ctx, h.FID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, h.FID, found.FID)
	assert.Empty(t, found.Data)

	missing, err := store.Find(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	plain, err := store.Get(ctx, models.Handle{FURL: h.FURL}, protocol.GetOptions{}, protocol.GetFormatNone)
	require.NoError(t, err)
	assert.Equal(t, h.FID, plain.FID)
	assert.Empty(t, plain.Data)

	encoded, err := store.Get(ctx, models.Handle{FID: h.FID}, protocol.GetOptions{}, protocol.GetFormatBase64)
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", string(encoded.Data))

	raw, err := store.Get(ctx, models.Handle{Ticket: h.FID}, protocol.GetOptions{}, protocol.GetFormatFile)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(raw.Data))

	_, err = store.Get(ctx, models.Handle{FID: "unknown"}, protocol.GetOptions{}, protocol.GetFormatNone)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, models.Handle{}, protocol.GetOptions{}, protocol.GetFormatNone)
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, NewMemory(WithBaseURL("https://cdn.test/fid/")))
}

func TestRedisStore_Contract(t *testing.T) {
	mr := miniredis.RunT(t)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	runStoreContract(t, NewRedis(client, WithBaseURL("https://cdn.test/fid"), WithPrefix("test:cdn:")))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "test:cdn:")
}

func TestRedisStore_TTL(t *testing.T) {
	mr := miniredis.RunT(t)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	store := NewRedis(client, WithTTL(time.Minute))

	h, err := store.PutTemp(context.Background(), []byte{0x89, 'P', 'N', 'G'}, protocol.PutOptions{})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	found, err := store.Find(context.Background(), h.FID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemory(WithTTL(time.Minute))
	mem := store.storage.(*memoryStorage)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return now }

	h, err := store.PutTemp(context.Background(), []byte("x"), protocol.PutOptions{MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "image", h.FileType)
	assert.Equal(t, "fid://"+h.FID+".png", h.FURL)

	now = now.Add(2 * time.Minute)

	found, err := store.Find(context.Background(), h.FID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestOpen(t *testing.T) {
	store, err := Open("memory://")
	require.NoError(t, err)
	assert.IsType(t, &memoryStorage{}, store.storage)

	mr := miniredis.RunT(t)

	store, err = Open("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	assert.IsType(t, &redisStorage{}, store.storage)

	_, err = Open("s3://bucket")
	require.ErrorIs(t, err, ErrUnsupportedURL)
}
