package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lancerhub/webhook-guard/reconcile"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of reconcile.RunState
 * A SETNX lock serializes runs per job id, a JSON cursor key checkpoints
 * progress inside a run, and a last-completed key remembers the end of the
 * last fully swept window.
 */

const (
	lockPrefix       = "reconcile:lock"       // reconcile:lock:{job_id}
	cursorPrefix     = "reconcile:cursor"     // reconcile:cursor:{job_id}
	lastRunPrefix    = "reconcile:lastrun"    // reconcile:lastrun:{job_id}
	lockHolderMarker = "held"
)

type RunState struct {
	client *redis.Client
	jobID  string
}

// NewRunState creates run state for a named sweep job
func NewRunState(client *redis.Client, jobID string) *RunState {
	return &RunState{
		client: client,
		jobID:  jobID,
	}
}

// AcquireLock takes the run lock with a TTL so a crashed run cannot block
// the job forever. SET NX is atomic: exactly one concurrent caller wins.
func (r *RunState) AcquireLock(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.key(lockPrefix), lockHolderMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring lock: %w", err)
	}
	return ok, nil
}

// ReleaseLock frees the run lock
func (r *RunState) ReleaseLock(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key(lockPrefix)).Err(); err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}

// LoadCursor returns the checkpointed cursor, if one exists
func (r *RunState) LoadCursor(ctx context.Context) (reconcile.Cursor, bool, error) {
	data, err := r.client.Get(ctx, r.key(cursorPrefix)).Bytes()
	if err == redis.Nil {
		return reconcile.Cursor{}, false, nil
	}
	if err != nil {
		return reconcile.Cursor{}, false, fmt.Errorf("loading cursor: %w", err)
	}

	var cursor reconcile.Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return reconcile.Cursor{}, false, fmt.Errorf("unmarshaling cursor: %w", err)
	}
	return cursor, true, nil
}

// SaveCursor checkpoints the cursor. The TTL matches the lock order of
// magnitude so an abandoned checkpoint eventually clears itself.
func (r *RunState) SaveCursor(ctx context.Context, cursor reconcile.Cursor) error {
	data, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("marshaling cursor: %w", err)
	}
	if err := r.client.Set(ctx, r.key(cursorPrefix), data, 48*time.Hour).Err(); err != nil {
		return fmt.Errorf("saving cursor: %w", err)
	}
	return nil
}

// ClearCursor removes the checkpoint after a completed run
func (r *RunState) ClearCursor(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key(cursorPrefix)).Err(); err != nil {
		return fmt.Errorf("clearing cursor: %w", err)
	}
	return nil
}

// LastCompleted returns the end of the last fully swept window
func (r *RunState) LastCompleted(ctx context.Context) (time.Time, error) {
	ts, err := r.client.Get(ctx, r.key(lastRunPrefix)).Int64()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("loading last completed window: %w", err)
	}
	return time.Unix(ts, 0), nil
}

// SetLastCompleted records the end of a fully swept window
func (r *RunState) SetLastCompleted(ctx context.Context, t time.Time) error {
	if err := r.client.Set(ctx, r.key(lastRunPrefix), t.Unix(), 0).Err(); err != nil {
		return fmt.Errorf("recording completed window: %w", err)
	}
	return nil
}

func (r *RunState) key(prefix string) string {
	return fmt.Sprintf("%s:%s", prefix, r.jobID)
}
