package authz

import "time"

/* Decision is what the gateway hands back to the API layer fronting
 * webhook-triggered mutations. It is a value, one per authorization call,
 * never persisted.
 */

// Denial reasons form a closed set; callers and upstream providers key retry
// behavior off them, so new reasons are additions, not rewordings.
const (
	ReasonMissingParameters   = "Missing required parameters"
	ReasonInvalidSignature    = "Invalid signature"
	ReasonAuthorizationFailed = "Authorization failed"
)

// Cache lifetimes signaled to the calling layer. Allows live longer because
// one physical delivery can fan out into several identical authorization
// calls; denials are kept short so a corrected condition (secret rotation,
// clock skew) is retried quickly.
const (
	AllowCacheTTL = 5 * time.Minute
	DenyCacheTTL  = 1 * time.Minute
)

// ResolverContext is the contextual metadata attached to an allow.
type ResolverContext struct {
	Provider      Provider
	EventID       string
	EventType     string
	ValidatedAt   time.Time
	CorrelationID string
	// Duplicate flags an event id already present in the ledger. Advisory:
	// downstream mutation handlers are expected to be idempotent keyed by
	// event id, so duplicates are surfaced, not blocked.
	Duplicate bool
}

// Decision is the allow/deny outcome of one authorization pass.
type Decision struct {
	IsAuthorized bool
	Context      *ResolverContext
	DenialReason string
	DeniedAt     time.Time
	CacheTTL     time.Duration
}

// allow builds an authorized decision with its resolver context.
func allow(ctx ResolverContext) Decision {
	return Decision{
		IsAuthorized: true,
		Context:      &ctx,
		CacheTTL:     AllowCacheTTL,
	}
}

// deny builds a denied decision with the given reason.
func deny(reason string, at time.Time) Decision {
	return Decision{
		IsAuthorized: false,
		DenialReason: reason,
		DeniedAt:     at,
		CacheTTL:     DenyCacheTTL,
	}
}
