package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("channel:teststreamer", "777")
	value, ok := c.Get("channel:teststreamer")
	require.True(t, ok)
	assert.Equal(t, "777", value)
	assert.Equal(t, 1, c.Size())
}

func TestCache_Expiration(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.SetWithTTL("short", "lived", 10*time.Millisecond)
	_, ok := c.Get("short")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("short")
	assert.False(t, ok)
}

func TestCache_Delete(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("key", 1)
	c.Delete("key")
	_, ok := c.Get("key")
	assert.False(t, ok)

	// deleting an absent key is a no-op
	c.Delete("key")

	// Stop is idempotent
	c.Stop()
	c.Stop()
}

func TestCache_OverwriteRefreshesTTL(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.SetWithTTL("key", "old", 10*time.Millisecond)
	c.SetWithTTL("key", "new", time.Minute)

	time.Sleep(20 * time.Millisecond)
	value, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "new", value)
}
