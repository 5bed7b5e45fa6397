package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/lancerhub/webhook-guard/authz"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of authz.DedupStore
 * One key per (provider, event id) holding the processing timestamp, expired
 * by Redis TTL so the ledger stays a bounded window, not permanent audit
 * storage.
 */

const ledgerPrefix = "dedup" // Key naming: dedup:{provider}:{event_id}

type Ledger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLedger creates a new Redis deduplication ledger
func NewLedger(addr, password string, db int, ttl time.Duration) (*Ledger, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Ledger{
		client: client,
		ttl:    ttl,
	}, nil
}

// IsProcessed reports whether the event id is present before expiry
func (l *Ledger) IsProcessed(ctx context.Context, provider authz.Provider, eventID string) (bool, error) {
	n, err := l.client.Exists(ctx, ledgerKey(provider, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("checking processed event: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records the event id with the ledger TTL. SET NX is an
// atomic check-and-set: no prior read is required, concurrent marks of the
// same id are idempotent, and the first writer's timestamp wins.
func (l *Ledger) MarkProcessed(ctx context.Context, provider authz.Provider, eventID string) error {
	key := ledgerKey(provider, eventID)
	err := l.client.SetNX(ctx, key, time.Now().Unix(), l.ttl).Err()
	if err != nil {
		return fmt.Errorf("marking event processed: %w", err)
	}
	return nil
}

// Size returns the number of live ledger entries, used by the metrics
// collector. SCAN-based so it never blocks the server.
func (l *Ledger) Size(ctx context.Context) (int64, error) {
	var (
		cursor uint64
		count  int64
	)
	pattern := ledgerPrefix + ":*"
	for {
		keys, next, err := l.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return 0, fmt.Errorf("scanning ledger keys: %w", err)
		}
		count += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

// Close closes the Redis connection
func (l *Ledger) Close(ctx context.Context) error {
	return l.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
func (l *Ledger) GetClient() *redis.Client {
	return l.client
}

func ledgerKey(provider authz.Provider, eventID string) string {
	return fmt.Sprintf("%s:%s:%s", ledgerPrefix, provider.String(), eventID)
}
