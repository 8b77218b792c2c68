package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryTRL(t *testing.T) {
	now := time.Now()
	trl := NewMemoryTRL(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	revoked, err := trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, trl.Revoke(ctx, "jti-1", time.Hour))
	revoked, err = trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	// Past the TTL the entry no longer counts as revoked.
	now = now.Add(2 * time.Hour)
	revoked, err = trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestMemoryTRLEmptyJTI(t *testing.T) {
	trl := NewMemoryTRL()
	ctx := context.Background()

	require.NoError(t, trl.Revoke(ctx, "", time.Hour))
	revoked, err := trl.IsRevoked(ctx, "")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRedisTRL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	trl := NewRedisTRL(client)
	ctx := context.Background()

	revoked, err := trl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, trl.Revoke(ctx, "jti-2", time.Hour))
	revoked, err = trl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	require.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = trl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	require.False(t, revoked)
}
