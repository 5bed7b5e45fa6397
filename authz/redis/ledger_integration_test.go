//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lancerhub/webhook-guard/authz"
)

func TestLedger_MarkProcessed_Integration(t *testing.T) {
	ctx := context.Background()

	t.Run("mark and check event", func(t *testing.T) {
		redisContainer, cleanup := SetupRedisContainer(t, ctx)
		defer cleanup()

		ledger := CreateTestLedger(t, redisContainer.Addr, 1*time.Hour)
		defer ledger.Close(ctx)

		seen, err := ledger.IsProcessed(ctx, authz.Stripe, "evt_integration_1")
		require.NoError(t, err)
		assert.False(t, seen)

		err = ledger.MarkProcessed(ctx, authz.Stripe, "evt_integration_1")
		require.NoError(t, err)

		seen, err = ledger.IsProcessed(ctx, authz.Stripe, "evt_integration_1")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("marking twice is idempotent", func(t *testing.T) {
		redisContainer, cleanup := SetupRedisContainer(t, ctx)
		defer cleanup()

		ledger := CreateTestLedger(t, redisContainer.Addr, 1*time.Hour)
		defer ledger.Close(ctx)

		err := ledger.MarkProcessed(ctx, authz.Stripe, "evt_integration_2")
		require.NoError(t, err)

		err = ledger.MarkProcessed(ctx, authz.Stripe, "evt_integration_2")
		require.NoError(t, err)

		seen, err := ledger.IsProcessed(ctx, authz.Stripe, "evt_integration_2")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("providers are scoped independently", func(t *testing.T) {
		redisContainer, cleanup := SetupRedisContainer(t, ctx)
		defer cleanup()

		ledger := CreateTestLedger(t, redisContainer.Addr, 1*time.Hour)
		defer ledger.Close(ctx)

		err := ledger.MarkProcessed(ctx, authz.Stripe, "evt_shared_id")
		require.NoError(t, err)

		seen, err := ledger.IsProcessed(ctx, authz.Shopify, "evt_shared_id")
		require.NoError(t, err)
		assert.False(t, seen, "same event id under another provider must not collide")
	})
}

func TestLedger_TTL_Integration(t *testing.T) {
	ctx := context.Background()

	t.Run("entry carries the configured TTL", func(t *testing.T) {
		redisContainer, cleanup := SetupRedisContainer(t, ctx)
		defer cleanup()

		ledger := CreateTestLedger(t, redisContainer.Addr, 1*time.Hour)
		defer ledger.Close(ctx)

		err := ledger.MarkProcessed(ctx, authz.Stripe, "evt_ttl_1")
		require.NoError(t, err)

		ttl := GetKeyTTL(t, redisContainer.Addr, "dedup:stripe:evt_ttl_1")
		assert.Greater(t, ttl, int64(3500), "TTL should be ~1 hour (3600s)")
		assert.LessOrEqual(t, ttl, int64(3600), "TTL should be <= 1 hour")
	})

	t.Run("entry expires after TTL", func(t *testing.T) {
		redisContainer, cleanup := SetupRedisContainer(t, ctx)
		defer cleanup()

		ledger := CreateTestLedger(t, redisContainer.Addr, 2*time.Second)
		defer ledger.Close(ctx)

		err := ledger.MarkProcessed(ctx, authz.Stripe, "evt_ttl_2")
		require.NoError(t, err)

		seen, err := ledger.IsProcessed(ctx, authz.Stripe, "evt_ttl_2")
		require.NoError(t, err)
		assert.True(t, seen)

		// Wait for TTL to expire
		time.Sleep(3 * time.Second)

		seen, err = ledger.IsProcessed(ctx, authz.Stripe, "evt_ttl_2")
		require.NoError(t, err)
		assert.False(t, seen, "expired entry must read as unseen")
	})
}

func TestLedger_Size_Integration(t *testing.T) {
	ctx := context.Background()

	t.Run("size counts live entries", func(t *testing.T) {
		redisContainer, cleanup := SetupRedisContainer(t, ctx)
		defer cleanup()

		ledger := CreateTestLedger(t, redisContainer.Addr, 1*time.Hour)
		defer ledger.Close(ctx)

		size, err := ledger.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), size)

		for _, id := range []string{"evt_a", "evt_b", "evt_c"} {
			err = ledger.MarkProcessed(ctx, authz.Stripe, id)
			require.NoError(t, err)
		}
		err = ledger.MarkProcessed(ctx, authz.GitHub, "delivery_x")
		require.NoError(t, err)

		size, err = ledger.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), size)
	})
}
