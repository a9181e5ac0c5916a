package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type route struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

func TestJSONRoundTripThroughMemory(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	require.NoError(t, SetJSON(ctx, c, "k", route{"GRU", "LIS"}, time.Minute))

	var got route
	require.NoError(t, GetJSON(ctx, c, "k", &got))
	assert.Equal(t, route{"GRU", "LIS"}, got)
}

func TestGetJSON_Miss(t *testing.T) {
	var got route
	err := GetJSON(context.Background(), NewMemory(), "absent", &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestGetJSON_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	require.NoError(t, c.Set(ctx, "k", "{not json", 0))

	var got route
	err := GetJSON(ctx, c, "k", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemory()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory_Del(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Del(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}
