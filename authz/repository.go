package authz

import (
	"context"
	"errors"
)

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// ErrSecretNotFound reports that no shared secret is configured for a
// provider. The gateway treats it as an operator-fixable configuration
// error, distinct from a malicious request.
var ErrSecretNotFound = errors.New("secret not found")

// SecretSource supplies the shared webhook secret for a provider.
type SecretSource interface {
	Secret(ctx context.Context, provider Provider) (string, error)
}

// DedupStore is the deduplication ledger: a bounded, TTL-expiring record of
// already-seen event identifiers.
type DedupStore interface {
	/* IsProcessed reports whether the event id is already in the ledger.
	 * Advisory only: a read failure must never convert into a deny.
	 */
	IsProcessed(ctx context.Context, provider Provider, eventID string) (bool, error)
	/* MarkProcessed records the event id with the ledger TTL. The write is
	 * atomic check-and-set and idempotent, so concurrent marks of the same
	 * id are safe.
	 */
	MarkProcessed(ctx context.Context, provider Provider, eventID string) error
}

// StaticSecrets is a SecretSource backed by an in-process map, filled from
// configuration at startup.
type StaticSecrets map[Provider]string

// Secret returns the configured secret for the provider.
func (s StaticSecrets) Secret(_ context.Context, provider Provider) (string, error) {
	secret, ok := s[provider]
	if !ok || secret == "" {
		return "", ErrSecretNotFound
	}
	return secret, nil
}
