package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pointView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func TestLocalCache_SetGetDelete(t *testing.T) {
	c := NewLocalCache(time.Minute, 0, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "plain", "value", 0))
	require.NoError(t, c.Set(ctx, "list", []pointView{{ID: "cp-1", Status: "AVAILABLE"}}, time.Minute))

	val, err := c.Get(ctx, "plain")
	require.NoError(t, err)
	assert.Equal(t, "value", val)

	val, err = c.Get(ctx, "list")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"cp-1","status":"AVAILABLE"}]`, val)

	require.NoError(t, c.Delete(ctx, "plain"))
	_, err = c.Get(ctx, "plain")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestLocalCache_ExpiredEntryIsMiss(t *testing.T) {
	c := NewLocalCache(time.Hour, 0, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)

	c.cleanup()
	assert.Zero(t, c.Len())
}

func TestLocalCache_BoundedEntries(t *testing.T) {
	c := NewLocalCache(time.Hour, 2, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	require.NoError(t, c.Set(ctx, "c", "3", 0))
	assert.Equal(t, 2, c.Len())

	val, err := c.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "3", val)

	// Overwriting an existing key never evicts.
	require.NoError(t, c.Set(ctx, "c", "4", 0))
	assert.Equal(t, 2, c.Len())
}

func TestLocalCache_CloseTwice(t *testing.T) {
	c := NewLocalCache(time.Minute, 0, zap.NewNop())
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Ping())
}
