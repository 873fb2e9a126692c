package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryFactory(t *testing.T) *Factory {
	provider, err := CreateProvider("memory", nil)
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })
	return &Factory{provider: provider}
}

func TestKeyBuilder(t *testing.T) {
	kb := NewKeyBuilder("share_info")

	assert.Equal(t, "share_info", kb.Build())
	assert.Equal(t, "share_info:abc:def", kb.Build("abc", "def"))
	assert.Equal(t, "share_info:42", kb.BuildID(42))

	dash := NewKeyBuilder("album").WithSeparator("-")
	assert.Equal(t, "album-7", dash.BuildID(7))
}

func TestFactory_SetGet(t *testing.T) {
	f := newMemoryFactory(t)
	ctx := context.Background()

	type payload struct {
		Title string `json:"title"`
		Count int    `json:"count"`
	}

	require.NoError(t, f.Set(ctx, ShareInfo.BuildID("tok"), payload{Title: "Wedding", Count: 3}, time.Minute))

	var got payload
	require.NoError(t, f.Get(ctx, ShareInfo.BuildID("tok"), &got))
	assert.Equal(t, "Wedding", got.Title)
	assert.Equal(t, 3, got.Count)
}

func TestFactory_MissIsNormalized(t *testing.T) {
	f := newMemoryFactory(t)

	var dest string
	err := f.Get(context.Background(), "absent", &dest)
	assert.True(t, IsCacheMiss(err))
}

func TestFactory_Delete(t *testing.T) {
	f := newMemoryFactory(t)
	ctx := context.Background()

	require.NoError(t, f.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, f.Delete(ctx, "k"))

	exists, err := f.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateProvider_Unknown(t *testing.T) {
	_, err := CreateProvider("memcached", nil)
	assert.Error(t, err)
}
