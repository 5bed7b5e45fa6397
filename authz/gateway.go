package authz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lancerhub/webhook-guard/authz/verify"
	"github.com/rs/zerolog"
)

/* Gateway orchestrates detection -> verification -> dedup-check and renders
 * an allow/deny decision for the API layer. It is stateless per call; the
 * dedup ledger is the only shared mutable resource, so unlimited parallel
 * invocation is safe without gateway-level locking.
 */

// UseCase defines the authorization operation consumed by the HTTP layer
type UseCase interface {
	Authorize(ctx context.Context, req Request) Decision
}

// Request is one inbound authorization call. Payload is the raw body, never
// mutated, used verbatim for signature recomputation.
type Request struct {
	Payload       []byte
	Signature     string
	OperationName string
	RequestID     string
}

type Gateway struct {
	secrets   SecretSource
	store     DedupStore
	verifiers map[Provider]verify.Verifier
	logger    zerolog.Logger
	now       func() time.Time
}

// NewGateway creates a new authorization gateway with dependency injection
func NewGateway(secrets SecretSource, store DedupStore, logger zerolog.Logger) *Gateway {
	return &Gateway{
		secrets: secrets,
		store:   store,
		verifiers: map[Provider]verify.Verifier{
			Stripe:  verify.StripeVerifier{},
			GitHub:  verify.GitHubVerifier{},
			Shopify: verify.ShopifyVerifier{},
		},
		logger: logger,
		now:    time.Now,
	}
}

// Authorize runs one authorization pass. It is a total function: for any
// input, including garbage payloads and failing stores, it returns a
// well-formed Decision and never panics past its boundary. The caller gates
// mutation endpoints on the result, so an escaped fault here must not be
// mistakable for an allow.
func (g *Gateway) Authorize(ctx context.Context, req Request) (decision Decision) {
	log := g.logger.With().
		Str("operation", req.OperationName).
		Str("request_id", req.RequestID).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("authorization panicked")
			decision = deny(ReasonAuthorizationFailed, g.now())
		}
	}()

	if len(req.Payload) == 0 || req.Signature == "" {
		log.Warn().Msg("missing payload or signature")
		return deny(ReasonMissingParameters, g.now())
	}

	provider := Detect(req.Signature)
	if provider == Unknown {
		log.Warn().Msg("unrecognized signature shape")
		return deny(ReasonInvalidSignature, g.now())
	}
	log = log.With().Str("provider", provider.String()).Logger()

	secret, err := g.secrets.Secret(ctx, provider)
	if err != nil {
		// Operator-fixable, not a malicious request; log loud, deny quiet.
		log.Error().Err(err).Msg("webhook secret not configured")
		return deny(ReasonInvalidSignature, g.now())
	}

	result := g.verifiers[provider].Verify(req.Payload, req.Signature, secret)
	if !result.Valid {
		log.Warn().Msg("signature verification failed")
		return deny(ReasonInvalidSignature, g.now())
	}

	resolverCtx := ResolverContext{
		Provider:      provider,
		EventID:       result.EventID,
		EventType:     result.EventType,
		ValidatedAt:   g.now(),
		CorrelationID: uuid.New().String(),
	}

	if result.EventID != "" {
		resolverCtx.Duplicate = g.checkAndMark(ctx, log, provider, result.EventID)
	}

	log.Info().
		Str("event_id", result.EventID).
		Str("event_type", result.EventType).
		Bool("duplicate", resolverCtx.Duplicate).
		Msg("webhook authorized")

	return allow(resolverCtx)
}

// checkAndMark consults and updates the dedup ledger best-effort. At-least-
// once delivery means duplicates are normal; they are flagged so downstream
// handlers can apply idempotently, and a ledger failure degrades to "unknown"
// rather than blocking a legitimate delivery.
func (g *Gateway) checkAndMark(ctx context.Context, log zerolog.Logger, provider Provider, eventID string) bool {
	seen, err := g.store.IsProcessed(ctx, provider, eventID)
	if err != nil {
		log.Warn().Err(err).Str("event_id", eventID).Msg("dedup check unavailable")
		return false
	}
	if seen {
		log.Info().Str("event_id", eventID).Msg("duplicate delivery detected")
	}

	if err := g.store.MarkProcessed(ctx, provider, eventID); err != nil {
		log.Warn().Err(err).Str("event_id", eventID).Msg("marking event processed failed")
	}
	return seen
}
