package reconcile

import (
	"context"
	"errors"
	"time"
)

/* Small, focused interfaces for the sweep's collaborators: the provider's
 * event history, the local system of record, the per-run state, and the
 * operator alert channel.
 */

// ErrNotFound reports a transaction absent from the local system of record.
var ErrNotFound = errors.New("not found")

// ProviderRecord is a normalized view of one provider-side object observed
// through the provider's event history.
type ProviderRecord struct {
	EventID   string
	ObjectID  string
	Type      string
	Status    string
	Amount    int64 // minor units
	Currency  string
	CreatedAt time.Time
}

// Transaction is a local system-of-record row for a payment.
type Transaction struct {
	ID               string
	ProviderObjectID string
	Status           string
	Amount           int64 // minor units
	Currency         string
	UpdatedAt        time.Time
}

// EventSource provides paginated read access to the provider's event history.
type EventSource interface {
	/* List returns one page of records created in [since, until), starting
	 * after cursor (empty for the first page). It returns the next cursor,
	 * or "" when the window is exhausted.
	 */
	List(ctx context.Context, since, until time.Time, cursor string, limit int) ([]ProviderRecord, string, error)
}

// RecordStore provides read and corrective-write access to the local system
// of record plus the append-only findings log.
type RecordStore interface {
	GetByProviderObjectID(ctx context.Context, objectID string) (Transaction, error)
	/* ListUpdatedSince returns local transactions touched in [since, until),
	 * used to detect records with no matching provider object.
	 */
	ListUpdatedSince(ctx context.Context, since, until time.Time) ([]Transaction, error)
	/* ApplyStatus re-applies a known status transition. Idempotent, keyed by
	 * the provider event id: returns false when that event was already
	 * applied by an earlier (possibly interrupted) run.
	 */
	ApplyStatus(ctx context.Context, objectID, status, eventID string) (bool, error)
	/* InsertFromProvider creates a local transaction for a provider object
	 * missing locally. Idempotent on the provider object id: returns false
	 * when the row already exists.
	 */
	InsertFromProvider(ctx context.Context, rec ProviderRecord) (bool, error)
	// AppendFinding persists one finding to the append-only audit log.
	AppendFinding(ctx context.Context, f Finding) error
}

// Cursor is the per-run checkpoint: the window bounds plus the last
// successfully processed page position, so an interrupted sweep resumes
// instead of starting over.
type Cursor struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	PageCursor  string    `json:"page_cursor"`
	// SeenObjectIDs accumulates the provider object ids observed so far in
	// this window, so the missing-upstream pass stays correct across a
	// resumed run. Bounded by one window's event volume.
	SeenObjectIDs []string `json:"seen_object_ids,omitempty"`
}

// RunState serializes sweep runs and persists their progress.
type RunState interface {
	/* AcquireLock takes the run lock for the job. Returns false when another
	 * sweep holds it; overlapping sweeps could double-apply corrections.
	 */
	AcquireLock(ctx context.Context, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context) error
	LoadCursor(ctx context.Context) (Cursor, bool, error)
	SaveCursor(ctx context.Context, c Cursor) error
	ClearCursor(ctx context.Context) error
	// LastCompleted returns the end of the last fully swept window, zero
	// when the job has never completed.
	LastCompleted(ctx context.Context) (time.Time, error)
	SetLastCompleted(ctx context.Context, t time.Time) error
}

// Alert is one operator-facing notification.
type Alert struct {
	Subject  string    `json:"subject"`
	Severity string    `json:"severity"`
	Body     string    `json:"body"`
	Count    int       `json:"count,omitempty"`
	SentAt   time.Time `json:"sent_at"`
}

// Notifier delivers alerts to the operator channel.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}
