package metrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LedgerSizer is the slice of the dedup ledger the collector needs.
type LedgerSizer interface {
	Size(ctx context.Context) (int64, error)
}

// RedisCollector implements the Collector interface for Redis-backed metrics
type RedisCollector struct {
	client *redis.Client
	ledger LedgerSizer
}

// NewRedisCollector creates a new Redis metrics collector
func NewRedisCollector(client *redis.Client, ledger LedgerSizer) *RedisCollector {
	return &RedisCollector{
		client: client,
		ledger: ledger,
	}
}

// Collect gathers all metrics from Redis
func (c *RedisCollector) Collect(ctx context.Context) (Metrics, error) {
	decisions, err := c.GetDecisionCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("collecting decision counts: %w", err)
	}

	duplicates, err := c.GetDuplicateCount(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("collecting duplicate count: %w", err)
	}

	ledgerSize, err := c.GetLedgerSize(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("collecting ledger size: %w", err)
	}

	findings, err := c.GetFindingCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("collecting finding counts: %w", err)
	}

	return Metrics{
		DecisionCounts: decisions,
		DuplicateCount: duplicates,
		LedgerSize:     ledgerSize,
		FindingCounts:  findings,
		Timestamp:      time.Now(),
	}, nil
}

// GetDecisionCounts returns decision counts keyed "provider:outcome"
func (c *RedisCollector) GetDecisionCounts(ctx context.Context) (map[string]int64, error) {
	return c.scanCounters(ctx, decisionCounterPrefix)
}

// GetDuplicateCount returns the number of duplicates flagged
func (c *RedisCollector) GetDuplicateCount(ctx context.Context) (int64, error) {
	val, err := c.client.Get(ctx, duplicateCounterKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading duplicate counter: %w", err)
	}
	return val, nil
}

// GetLedgerSize returns the number of live dedup ledger entries
func (c *RedisCollector) GetLedgerSize(ctx context.Context) (int64, error) {
	return c.ledger.Size(ctx)
}

// GetFindingCounts returns finding counts keyed by discrepancy kind
func (c *RedisCollector) GetFindingCounts(ctx context.Context) (map[string]int64, error) {
	return c.scanCounters(ctx, findingCounterPrefix)
}

// scanCounters walks all counter keys under a prefix and returns their
// values keyed by the suffix after the prefix.
func (c *RedisCollector) scanCounters(ctx context.Context, prefix string) (map[string]int64, error) {
	counts := make(map[string]int64)
	var cursor uint64
	pattern := prefix + ":*"

	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning counter keys: %w", err)
		}

		for _, key := range keys {
			raw, err := c.client.Get(ctx, key).Result()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("reading counter %s: %w", key, err)
			}
			val, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			counts[strings.TrimPrefix(key, prefix+":")] = val
		}

		cursor = next
		if cursor == 0 {
			return counts, nil
		}
	}
}
