package authz_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lancerhub/webhook-guard/authz"
	"github.com/lancerhub/webhook-guard/authz/mocks"
)

const testSecret = "whsec_gateway_test"

// signStripeHeader builds a live Stripe-Signature header so the gateway's
// real clock stays inside the replay window.
func signStripeHeader(secret string, payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func signGitHubHeader(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestGatewayAuthorize(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	payload := []byte(`{"id":"evt_abc123","type":"payment_intent.succeeded"}`)

	t.Run("failure - missing payload denies with missing parameters", func(t *testing.T) {
		gateway := authz.NewGateway(mocks.NewSecretSource(t), mocks.NewDedupStore(t), logger)

		decision := gateway.Authorize(ctx, authz.Request{
			Signature: "t=1,v1=deadbeef",
		})

		assert.False(t, decision.IsAuthorized)
		assert.Equal(t, authz.ReasonMissingParameters, decision.DenialReason)
		assert.Equal(t, authz.DenyCacheTTL, decision.CacheTTL)
		assert.False(t, decision.DeniedAt.IsZero())
		assert.Nil(t, decision.Context)
	})

	t.Run("failure - missing signature denies with missing parameters", func(t *testing.T) {
		gateway := authz.NewGateway(mocks.NewSecretSource(t), mocks.NewDedupStore(t), logger)

		decision := gateway.Authorize(ctx, authz.Request{Payload: payload})

		assert.False(t, decision.IsAuthorized)
		assert.Equal(t, authz.ReasonMissingParameters, decision.DenialReason)
	})

	t.Run("failure - unrecognized signature shape denies with invalid signature", func(t *testing.T) {
		gateway := authz.NewGateway(mocks.NewSecretSource(t), mocks.NewDedupStore(t), logger)

		decision := gateway.Authorize(ctx, authz.Request{
			Payload:   payload,
			Signature: "Bearer some-jwt-looking-thing",
		})

		assert.False(t, decision.IsAuthorized)
		assert.Equal(t, authz.ReasonInvalidSignature, decision.DenialReason)
	})

	t.Run("failure - secret not configured denies with invalid signature", func(t *testing.T) {
		secrets := mocks.NewSecretSource(t)
		secrets.On("Secret", mock.Anything, authz.Stripe).Return("", authz.ErrSecretNotFound)
		gateway := authz.NewGateway(secrets, mocks.NewDedupStore(t), logger)

		decision := gateway.Authorize(ctx, authz.Request{
			Payload:   payload,
			Signature: signStripeHeader(testSecret, payload),
		})

		assert.False(t, decision.IsAuthorized)
		assert.Equal(t, authz.ReasonInvalidSignature, decision.DenialReason)
	})

	t.Run("failure - wrong secret denies with invalid signature", func(t *testing.T) {
		secrets := mocks.NewSecretSource(t)
		secrets.On("Secret", mock.Anything, authz.Stripe).Return("whsec_other", nil)
		gateway := authz.NewGateway(secrets, mocks.NewDedupStore(t), logger)

		decision := gateway.Authorize(ctx, authz.Request{
			Payload:   payload,
			Signature: signStripeHeader(testSecret, payload),
		})

		assert.False(t, decision.IsAuthorized)
		assert.Equal(t, authz.ReasonInvalidSignature, decision.DenialReason)
	})

	t.Run("success - valid stripe signature allows with resolver context", func(t *testing.T) {
		secrets := mocks.NewSecretSource(t)
		secrets.On("Secret", mock.Anything, authz.Stripe).Return(testSecret, nil)

		store := mocks.NewDedupStore(t)
		store.On("IsProcessed", mock.Anything, authz.Stripe, "evt_abc123").Return(false, nil)
		store.On("MarkProcessed", mock.Anything, authz.Stripe, "evt_abc123").Return(nil)

		gateway := authz.NewGateway(secrets, store, logger)

		decision := gateway.Authorize(ctx, authz.Request{
			Payload:   payload,
			Signature: signStripeHeader(testSecret, payload),
		})

		assert.True(t, decision.IsAuthorized)
		assert.Empty(t, decision.DenialReason)
		assert.Equal(t, authz.AllowCacheTTL, decision.CacheTTL)
		if assert.NotNil(t, decision.Context) {
			assert.Equal(t, authz.Stripe, decision.Context.Provider)
			assert.Equal(t, "evt_abc123", decision.Context.EventID)
			assert.Equal(t, "payment_intent.succeeded", decision.Context.EventType)
			assert.NotEmpty(t, decision.Context.CorrelationID)
			assert.False(t, decision.Context.ValidatedAt.IsZero())
			assert.False(t, decision.Context.Duplicate)
		}
	})

	t.Run("success - duplicate delivery is flagged but still allowed", func(t *testing.T) {
		secrets := mocks.NewSecretSource(t)
		secrets.On("Secret", mock.Anything, authz.Stripe).Return(testSecret, nil)

		store := mocks.NewDedupStore(t)
		store.On("IsProcessed", mock.Anything, authz.Stripe, "evt_abc123").Return(true, nil)
		store.On("MarkProcessed", mock.Anything, authz.Stripe, "evt_abc123").Return(nil)

		gateway := authz.NewGateway(secrets, store, logger)

		decision := gateway.Authorize(ctx, authz.Request{
			Payload:   payload,
			Signature: signStripeHeader(testSecret, payload),
		})

		assert.True(t, decision.IsAuthorized)
		assert.True(t, decision.Context.Duplicate)
	})

	t.Run("success - dedup read failure degrades to not-duplicate", func(t *testing.T) {
		secrets := mocks.NewSecretSource(t)
		secrets.On("Secret", mock.Anything, authz.Stripe).Return(testSecret, nil)

		store := mocks.NewDedupStore(t)
		store.On("IsProcessed", mock.Anything, authz.Stripe, "evt_abc123").
			Return(false, errors.New("redis: connection refused"))

		gateway := authz.NewGateway(secrets, store, logger)

		decision := gateway.Authorize(ctx, authz.Request{
			Payload:   payload,
			Signature: signStripeHeader(testSecret, payload),
		})

		assert.True(t, decision.IsAuthorized)
		assert.False(t, decision.Context.Duplicate)
	})

	t.Run("success - dedup write failure does not block delivery", func(t *testing.T) {
		secrets := mocks.NewSecretSource(t)
		secrets.On("Secret", mock.Anything, authz.Stripe).Return(testSecret, nil)

		store := mocks.NewDedupStore(t)
		store.On("IsProcessed", mock.Anything, authz.Stripe, "evt_abc123").Return(false, nil)
		store.On("MarkProcessed", mock.Anything, authz.Stripe, "evt_abc123").
			Return(errors.New("redis: connection refused"))

		gateway := authz.NewGateway(secrets, store, logger)

		decision := gateway.Authorize(ctx, authz.Request{
			Payload:   payload,
			Signature: signStripeHeader(testSecret, payload),
		})

		assert.True(t, decision.IsAuthorized)
	})

	t.Run("success - github signature allows without event id or ledger calls", func(t *testing.T) {
		secrets := mocks.NewSecretSource(t)
		secrets.On("Secret", mock.Anything, authz.GitHub).Return("gh_secret", nil)

		// No expectations on the store: GitHub carries no event id in the
		// body, so the ledger must never be touched.
		gateway := authz.NewGateway(secrets, mocks.NewDedupStore(t), logger)

		decision := gateway.Authorize(ctx, authz.Request{
			Payload:   payload,
			Signature: signGitHubHeader("gh_secret", payload),
		})

		assert.True(t, decision.IsAuthorized)
		assert.Equal(t, authz.GitHub, decision.Context.Provider)
		assert.Empty(t, decision.Context.EventID)
		assert.False(t, decision.Context.Duplicate)
	})

	t.Run("failure - panicking ledger converts to authorization failed", func(t *testing.T) {
		secrets := mocks.NewSecretSource(t)
		secrets.On("Secret", mock.Anything, authz.Stripe).Return(testSecret, nil)

		store := mocks.NewDedupStore(t)
		store.On("IsProcessed", mock.Anything, authz.Stripe, "evt_abc123").
			Run(func(_ mock.Arguments) { panic("ledger exploded") }).
			Return(false, nil)

		gateway := authz.NewGateway(secrets, store, logger)

		decision := gateway.Authorize(ctx, authz.Request{
			Payload:   payload,
			Signature: signStripeHeader(testSecret, payload),
		})

		assert.False(t, decision.IsAuthorized)
		assert.Equal(t, authz.ReasonAuthorizationFailed, decision.DenialReason)
		assert.Equal(t, authz.DenyCacheTTL, decision.CacheTTL)
	})
}

func TestStaticSecrets(t *testing.T) {
	ctx := context.Background()
	secrets := authz.StaticSecrets{
		authz.Stripe: "whsec_123",
		authz.GitHub: "",
	}

	t.Run("success - configured secret", func(t *testing.T) {
		secret, err := secrets.Secret(ctx, authz.Stripe)

		assert.NoError(t, err)
		assert.Equal(t, "whsec_123", secret)
	})

	t.Run("failure - empty secret treated as missing", func(t *testing.T) {
		_, err := secrets.Secret(ctx, authz.GitHub)

		assert.ErrorIs(t, err, authz.ErrSecretNotFound)
	})

	t.Run("failure - unconfigured provider", func(t *testing.T) {
		_, err := secrets.Secret(ctx, authz.Shopify)

		assert.ErrorIs(t, err, authz.ErrSecretNotFound)
	})
}
