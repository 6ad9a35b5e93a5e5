package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/screener/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return New(NewClient(mr.Addr(), "", 0))
}

func TestStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "coll-1", "<EMAIL_1234>", "jane@example.com"))
	require.NoError(t, s.Store(ctx, "coll-1", "<PHONE_5678>", "9876543210"))

	m, err := s.Mappings(ctx, "coll-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"<EMAIL_1234>": "jane@example.com",
		"<PHONE_5678>": "9876543210",
	}, m)
}

func TestStore_Exists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "coll-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Store(ctx, "coll-1", "<EMAIL_1234>", "x@y.io"))
	ok, err = s.Exists(ctx, "coll-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_MappingsUnknownCollection(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Mappings(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStore_CollectionsAreIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Store(ctx, "a", "<EMAIL_1111>", "a@x.io"))
	require.NoError(t, s.Store(ctx, "b", "<EMAIL_2222>", "b@x.io"))

	m, err := s.Mappings(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, m, 1)
	assert.Equal(t, "a@x.io", m["<EMAIL_1111>"])
}

func TestStore_Ping(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
