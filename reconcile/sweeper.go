package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lancerhub/webhook-guard/authz"
	"github.com/rs/zerolog"
)

/* Sweeper cross-checks the local system of record against the provider's
 * event history to catch webhooks that were missed, dropped, or processed
 * out of order. One serialized run per tick: a run lock prevents overlapping
 * sweeps from double-applying corrections, and a page-level cursor checkpoint
 * makes an interrupted run resumable without re-fetching processed pages.
 */

// ErrRunInProgress reports that another sweep holds the run lock.
var ErrRunInProgress = errors.New("sweep already in progress")

const (
	lockTTL         = 2 * time.Hour
	defaultPageSize = 100
)

// Summary describes one completed (or attempted) sweep run.
type Summary struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Pages       int
	Examined    int
	Findings    map[Kind]int
	Corrected   int
	Resumed     bool
}

type Sweeper struct {
	source   EventSource
	store    RecordStore
	state    RunState
	notifier Notifier
	policy   Policy
	provider authz.Provider
	logger   zerolog.Logger

	// Window is the trailing period swept when the job has never completed.
	Window time.Duration
	// PageSize is the provider page size per List call.
	PageSize int

	now func() time.Time
}

// NewSweeper creates a new reconciliation sweeper with dependency injection
func NewSweeper(source EventSource, store RecordStore, state RunState, notifier Notifier, policy Policy, provider authz.Provider, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		source:   source,
		store:    store,
		state:    state,
		notifier: notifier,
		policy:   policy,
		provider: provider,
		logger:   logger,
		Window:   24 * time.Hour,
		PageSize: defaultPageSize,
		now:      time.Now,
	}
}

// Run executes one sweep. A mid-run failure leaves the cursor checkpoint in
// place and alerts operators; the next Run resumes from the last successfully
// processed page. Corrective writes are idempotent keyed by provider event
// id, so a resumed run never applies one twice.
func (s *Sweeper) Run(ctx context.Context) (Summary, error) {
	acquired, err := s.state.AcquireLock(ctx, lockTTL)
	if err != nil {
		return Summary{}, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !acquired {
		return Summary{}, ErrRunInProgress
	}
	defer func() {
		if err := s.state.ReleaseLock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error().Err(err).Msg("releasing run lock failed")
		}
	}()

	cursor, resumed, err := s.loadWindow(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		WindowStart: cursor.WindowStart,
		WindowEnd:   cursor.WindowEnd,
		Findings:    make(map[Kind]int),
		Resumed:     resumed,
	}

	if err := s.sweepProvider(ctx, &cursor, &summary); err != nil {
		s.alertFailure(ctx, err)
		return summary, err
	}

	if err := s.sweepLocal(ctx, cursor, &summary); err != nil {
		s.alertFailure(ctx, err)
		return summary, err
	}

	if err := s.state.ClearCursor(ctx); err != nil {
		return summary, fmt.Errorf("clearing cursor: %w", err)
	}
	if err := s.state.SetLastCompleted(ctx, cursor.WindowEnd); err != nil {
		return summary, fmt.Errorf("recording completed window: %w", err)
	}

	s.logger.Info().
		Time("window_start", summary.WindowStart).
		Time("window_end", summary.WindowEnd).
		Int("examined", summary.Examined).
		Int("corrected", summary.Corrected).
		Bool("resumed", summary.Resumed).
		Msg("sweep completed")

	return summary, nil
}

// loadWindow restores a checkpointed window or opens a new one ending now.
func (s *Sweeper) loadWindow(ctx context.Context) (Cursor, bool, error) {
	cursor, found, err := s.state.LoadCursor(ctx)
	if err != nil {
		return Cursor{}, false, fmt.Errorf("loading cursor: %w", err)
	}
	if found {
		s.logger.Info().
			Time("window_start", cursor.WindowStart).
			Str("page_cursor", cursor.PageCursor).
			Msg("resuming interrupted sweep")
		return cursor, true, nil
	}

	since, err := s.state.LastCompleted(ctx)
	if err != nil {
		return Cursor{}, false, fmt.Errorf("loading last completed window: %w", err)
	}
	now := s.now()
	if since.IsZero() || now.Sub(since) > s.Window {
		since = now.Add(-s.Window)
	}

	return Cursor{WindowStart: since, WindowEnd: now}, false, nil
}

// sweepProvider pages through the provider's event history for the window,
// classifying each object against the local record. The cursor (including
// the set of object ids already seen) is checkpointed after every page.
func (s *Sweeper) sweepProvider(ctx context.Context, cursor *Cursor, summary *Summary) error {
	for {
		records, next, err := s.source.List(ctx, cursor.WindowStart, cursor.WindowEnd, cursor.PageCursor, s.PageSize)
		if err != nil {
			return fmt.Errorf("listing provider events: %w", err)
		}

		for _, rec := range records {
			if err := s.reconcileRecord(ctx, rec, summary); err != nil {
				return err
			}
			cursor.SeenObjectIDs = append(cursor.SeenObjectIDs, rec.ObjectID)
			summary.Examined++
		}
		summary.Pages++

		cursor.PageCursor = next
		if err := s.state.SaveCursor(ctx, *cursor); err != nil {
			return fmt.Errorf("checkpointing cursor: %w", err)
		}

		if next == "" {
			return nil
		}
	}
}

// reconcileRecord compares one provider-side object with the local record and
// applies the policy for whatever discrepancy it finds.
func (s *Sweeper) reconcileRecord(ctx context.Context, rec ProviderRecord, summary *Summary) error {
	local, err := s.store.GetByProviderObjectID(ctx, rec.ObjectID)
	if errors.Is(err, ErrNotFound) {
		return s.handleMissingLocally(ctx, rec, summary)
	}
	if err != nil {
		return fmt.Errorf("looking up local record %s: %w", rec.ObjectID, err)
	}

	if local.Amount != rec.Amount {
		finding := s.newFinding(AmountDivergence, rec, local)
		finding.Detail = fmt.Sprintf("local amount %d, upstream amount %d %s", local.Amount, rec.Amount, rec.Currency)
		return s.record(ctx, finding, summary)
	}

	if local.Status != rec.Status {
		return s.handleStatusDivergence(ctx, rec, local, summary)
	}

	return nil
}

func (s *Sweeper) handleMissingLocally(ctx context.Context, rec ProviderRecord, summary *Summary) error {
	finding := s.newFinding(MissingLocally, rec, Transaction{})
	finding.Detail = fmt.Sprintf("provider object %s (%s, status %s) has no local record", rec.ObjectID, rec.Type, rec.Status)

	if s.policy.Rule(MissingLocally).Correct {
		created, err := s.store.InsertFromProvider(ctx, rec)
		if err != nil {
			return fmt.Errorf("inserting missing record %s: %w", rec.ObjectID, err)
		}
		if created {
			finding.Action = Corrected
			summary.Corrected++
		} else {
			// A previous (interrupted) run already inserted it.
			finding.Action = Skipped
		}
	}

	return s.record(ctx, finding, summary)
}

func (s *Sweeper) handleStatusDivergence(ctx context.Context, rec ProviderRecord, local Transaction, summary *Summary) error {
	finding := s.newFinding(StatusDivergence, rec, local)
	finding.Detail = fmt.Sprintf("local status %q, upstream status %q", local.Status, rec.Status)

	if s.policy.Rule(StatusDivergence).Correct && CanTransition(local.Status, rec.Status) {
		applied, err := s.store.ApplyStatus(ctx, rec.ObjectID, rec.Status, rec.EventID)
		if err != nil {
			return fmt.Errorf("applying status correction %s: %w", rec.ObjectID, err)
		}
		if applied {
			finding.Action = Corrected
			summary.Corrected++
		} else {
			finding.Action = Skipped
		}
	}

	return s.record(ctx, finding, summary)
}

// sweepLocal flags local records touched in the window that have no matching
// provider object: possible data-entry error or provider-side deletion.
// Never corrective-writes toward the provider.
func (s *Sweeper) sweepLocal(ctx context.Context, cursor Cursor, summary *Summary) error {
	seen := make(map[string]struct{}, len(cursor.SeenObjectIDs))
	for _, id := range cursor.SeenObjectIDs {
		seen[id] = struct{}{}
	}

	locals, err := s.store.ListUpdatedSince(ctx, cursor.WindowStart, cursor.WindowEnd)
	if err != nil {
		return fmt.Errorf("listing local records: %w", err)
	}

	for _, local := range locals {
		if local.ProviderObjectID == "" {
			continue
		}
		if _, ok := seen[local.ProviderObjectID]; ok {
			continue
		}

		finding := s.newFinding(MissingUpstream, ProviderRecord{ObjectID: local.ProviderObjectID}, local)
		finding.Detail = fmt.Sprintf("local record %s references provider object %s absent from the window", local.ID, local.ProviderObjectID)
		if err := s.record(ctx, finding, summary); err != nil {
			return err
		}
	}

	return nil
}

// newFinding builds a finding with the policy's severity and Alerted as the
// default action; corrective paths overwrite the action when they apply.
func (s *Sweeper) newFinding(kind Kind, rec ProviderRecord, local Transaction) Finding {
	return Finding{
		ID:             uuid.New().String(),
		Kind:           kind,
		Severity:       s.policy.Rule(kind).Severity,
		Provider:       s.provider,
		ObjectID:       rec.ObjectID,
		EventID:        rec.EventID,
		LocalID:        local.ID,
		LocalStatus:    local.Status,
		UpstreamStatus: rec.Status,
		LocalAmount:    local.Amount,
		UpstreamAmount: rec.Amount,
		Currency:       rec.Currency,
		Action:         Alerted,
		DetectedAt:     s.now(),
	}
}

// record appends the finding to the audit log and escalates it to the alert
// channel when it was not corrected. Alert delivery is best-effort: a broken
// alert channel is logged loudly but does not abort corrections in flight.
func (s *Sweeper) record(ctx context.Context, finding Finding, summary *Summary) error {
	if err := s.store.AppendFinding(ctx, finding); err != nil {
		return fmt.Errorf("appending finding: %w", err)
	}
	summary.Findings[finding.Kind]++

	s.logger.Warn().
		Str("finding_id", finding.ID).
		Str("kind", finding.Kind.String()).
		Str("severity", finding.Severity.String()).
		Str("object_id", finding.ObjectID).
		Str("action", finding.Action.String()).
		Msg("discrepancy detected")

	if finding.Action != Alerted {
		return nil
	}

	alert := Alert{
		Subject:  fmt.Sprintf("reconciliation: %s (%s)", finding.Kind, finding.Provider),
		Severity: finding.Severity.String(),
		Body:     finding.Detail,
		SentAt:   s.now(),
	}
	if err := s.notifier.Notify(ctx, alert); err != nil {
		s.logger.Error().Err(err).Str("finding_id", finding.ID).Msg("alert delivery failed")
	}

	return nil
}

// alertFailure escalates a failed run. Uses a detached context so the alert
// still goes out when the run died of cancellation.
func (s *Sweeper) alertFailure(ctx context.Context, runErr error) {
	alert := Alert{
		Subject:  "reconciliation sweep failed",
		Severity: Critical.String(),
		Body:     runErr.Error(),
		SentAt:   s.now(),
	}
	if err := s.notifier.Notify(context.WithoutCancel(ctx), alert); err != nil {
		s.logger.Error().Err(err).Msg("failure alert delivery failed")
	}
}
