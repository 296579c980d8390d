package prefs

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	theme, err := s.GetTheme(ctx, "client-a")
	require.NoError(t, err)
	assert.Equal(t, "", theme)

	require.NoError(t, s.SetTheme(ctx, "client-a", "dark"))
	require.NoError(t, s.SetTheme(ctx, "client-b", "light"))

	theme, _ = s.GetTheme(ctx, "client-a")
	assert.Equal(t, "dark", theme)
	theme, _ = s.GetTheme(ctx, "client-b")
	assert.Equal(t, "light", theme)
}

func TestRedisStore_ThemeKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	s := NewRedisStore(client, "stockdash:prefs:", time.Hour)
	assert.Equal(t, "stockdash:prefs:theme:abc", s.themeKey("abc"))
}

func TestRedisStore_UnreachableServerReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	s := NewRedisStore(client, "p:", 0)
	_, err := s.GetTheme(context.Background(), "abc")
	assert.Error(t, err)
}
