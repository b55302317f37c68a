package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisMemory(t *testing.T, maxTurns int) (*RedisMemory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisMemory(client, maxTurns, time.Hour), mr
}

func TestRedisMemoryAppendAndRecent(t *testing.T) {
	mem, _ := newTestRedisMemory(t, 50)
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		require.NoError(t, mem.AppendTurn(ctx, "a1:s1", ChatRoleUser, fmt.Sprint(i)))
	}

	recent, err := mem.RecentContext(ctx, "a1:s1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}, texts(recent))
	assert.Equal(t, ChatRoleUser, recent[0].Role)
	assert.False(t, recent[0].At.IsZero())

	n, err := mem.Len(ctx, "a1:s1")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	none, err := mem.RecentContext(ctx, "a1:s1", 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	missing, err := mem.RecentContext(ctx, "other", 5)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestRedisMemoryTrimsAndExpires(t *testing.T) {
	mem, mr := newTestRedisMemory(t, 3)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, mem.AppendTurn(ctx, "a1", ChatRoleAssistant, fmt.Sprint(i)))
	}

	window, err := mem.Window(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4", "5"}, texts(window))

	ttl := mr.TTL(memoryKey("a1"))
	assert.Equal(t, time.Hour, ttl)

	mr.FastForward(2 * time.Hour)
	n, err := mem.Len(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisMemoryClearAndValidation(t *testing.T) {
	mem, _ := newTestRedisMemory(t, 10)
	ctx := context.Background()
	require.NoError(t, mem.AppendTurn(ctx, "a1", ChatRoleUser, "hi"))
	require.NoError(t, mem.Clear(ctx, "a1"))
	n, _ := mem.Len(ctx, "a1")
	assert.Equal(t, 0, n)

	assert.ErrorIs(t, mem.AppendTurn(ctx, "a1", "robot", "hi"), ErrInvalidTurn)
}
