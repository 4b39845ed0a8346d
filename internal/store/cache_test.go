package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache", "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetMiss(t *testing.T) {
	c := openTemp(t)

	payload, ok, err := c.Get("All", "v1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, payload)
}

func TestPutGetReplace(t *testing.T) {
	c := openTemp(t)

	require.NoError(t, c.Put("Consulting", "v1", []byte(`{"a":1}`)))
	require.NoError(t, c.Put("Consulting", "v1", []byte(`{"a":2}`)))

	payload, ok, err := c.Get("Consulting", "v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":2}`, string(payload))

	_, ok, err = c.Get("Consulting", "v2")
	require.NoError(t, err)
	assert.False(t, ok, "other data versions must not hit")
}

func TestPruneAndStats(t *testing.T) {
	c := openTemp(t)

	require.NoError(t, c.Put("All", "old", []byte("1")))
	require.NoError(t, c.Put("Consulting", "old", []byte("2")))
	require.NoError(t, c.Put("All", "new", []byte("3")))

	s, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, s.Entries)
	assert.Equal(t, 2, s.Versions)
	assert.False(t, s.Newest.IsZero())

	removed, err := c.Prune("new")
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	s, err = c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries)
}
