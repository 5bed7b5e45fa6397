package metrics

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

/* Recorder increments the Redis counters the collector reads. Recording is
 * best-effort everywhere it is called: metrics must never affect an
 * authorization decision or a sweep.
 */

const (
	decisionCounterPrefix = "metrics:decisions" // metrics:decisions:{provider}:{outcome}
	duplicateCounterKey   = "metrics:duplicates"
	findingCounterPrefix  = "metrics:findings" // metrics:findings:{kind}
)

type RedisRecorder struct {
	client *redis.Client
}

// NewRedisRecorder creates a new Redis metrics recorder
func NewRedisRecorder(client *redis.Client) *RedisRecorder {
	return &RedisRecorder{client: client}
}

// IncrDecision counts one authorization decision
func (r *RedisRecorder) IncrDecision(ctx context.Context, provider, outcome string) error {
	key := fmt.Sprintf("%s:%s:%s", decisionCounterPrefix, provider, outcome)
	if err := r.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("incrementing decision counter: %w", err)
	}
	return nil
}

// IncrDuplicate counts one flagged duplicate delivery
func (r *RedisRecorder) IncrDuplicate(ctx context.Context) error {
	if err := r.client.Incr(ctx, duplicateCounterKey).Err(); err != nil {
		return fmt.Errorf("incrementing duplicate counter: %w", err)
	}
	return nil
}

// IncrFinding counts one sweep finding
func (r *RedisRecorder) IncrFinding(ctx context.Context, kind string) error {
	key := fmt.Sprintf("%s:%s", findingCounterPrefix, kind)
	if err := r.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("incrementing finding counter: %w", err)
	}
	return nil
}
