package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lancerhub/webhook-guard/reconcile"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

/* Stripe implementation of reconcile.EventSource
 * Reads the authoritative event history through the Events list API, one
 * page per call with an explicit StartingAfter cursor so the sweep can
 * checkpoint between pages.
 */

// DefaultEventTypes are the payment lifecycle events the marketplace
// reconciles against its transactions table.
var DefaultEventTypes = []string{
	"payment_intent.succeeded",
	"payment_intent.payment_failed",
	"payment_intent.canceled",
	"charge.refunded",
}

type Source struct {
	api        *client.API
	eventTypes []string
}

// NewSource creates a new Stripe event source
func NewSource(apiKey string, eventTypes []string) *Source {
	api := &client.API{}
	api.Init(apiKey, nil)

	if len(eventTypes) == 0 {
		eventTypes = DefaultEventTypes
	}

	return &Source{
		api:        api,
		eventTypes: eventTypes,
	}
}

// List fetches one page of events created in [since, until) and maps them to
// normalized provider records. Returns the next page cursor, or "" when the
// window is exhausted.
func (s *Source) List(ctx context.Context, since, until time.Time, cursor string, limit int) ([]reconcile.ProviderRecord, string, error) {
	params := &stripe.EventListParams{
		CreatedRange: &stripe.RangeQueryParams{
			GreaterThanOrEqual: since.Unix(),
			LesserThan:         until.Unix(),
		},
	}
	for _, t := range s.eventTypes {
		params.Types = append(params.Types, stripe.String(t))
	}
	params.Context = ctx
	params.Limit = stripe.Int64(int64(limit))
	params.Single = true // one page per call; the sweep drives pagination
	if cursor != "" {
		params.StartingAfter = stripe.String(cursor)
	}

	iter := s.api.Events.List(params)

	var (
		records []reconcile.ProviderRecord
		lastID  string
		fetched int
	)
	for iter.Next() {
		event := iter.Event()
		lastID = event.ID
		fetched++

		rec, ok := mapEvent(event)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	if err := iter.Err(); err != nil {
		return nil, "", fmt.Errorf("listing stripe events: %w", err)
	}

	// A short page means the window is exhausted.
	if fetched < limit {
		return records, "", nil
	}
	return records, lastID, nil
}

// eventObject is the slice of the event's data object the sweep compares.
type eventObject struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// mapEvent normalizes a Stripe event into a provider record. Events whose
// object cannot be parsed are skipped, not failed: the sweep reconciles what
// it understands and the findings log covers the rest.
func mapEvent(event *stripe.Event) (reconcile.ProviderRecord, bool) {
	if event == nil || event.Data == nil || len(event.Data.Raw) == 0 {
		return reconcile.ProviderRecord{}, false
	}

	var object eventObject
	if err := json.Unmarshal(event.Data.Raw, &object); err != nil || object.ID == "" {
		return reconcile.ProviderRecord{}, false
	}

	return reconcile.ProviderRecord{
		EventID:   event.ID,
		ObjectID:  object.ID,
		Type:      string(event.Type),
		Status:    normalizeStatus(string(event.Type), object.Status),
		Amount:    object.Amount,
		Currency:  strings.ToUpper(object.Currency),
		CreatedAt: time.Unix(event.Created, 0),
	}, true
}

// normalizeStatus maps Stripe object statuses onto the marketplace's
// transaction lifecycle vocabulary.
func normalizeStatus(eventType, objectStatus string) string {
	switch {
	case eventType == "charge.refunded":
		return reconcile.StatusRefunded
	case objectStatus == "succeeded":
		return reconcile.StatusPaid
	case objectStatus == "canceled", objectStatus == "requires_payment_method" && eventType == "payment_intent.payment_failed":
		return reconcile.StatusFailed
	case objectStatus == "processing":
		return reconcile.StatusProcessing
	default:
		return reconcile.StatusPending
	}
}
