package authz

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("payload"))
	digest := mac.Sum(nil)

	hexDigest := hex.EncodeToString(digest)
	b64Digest := base64.StdEncoding.EncodeToString(digest)

	tests := []struct {
		name   string
		header string
		want   Provider
	}{
		{"stripe - timestamp and versioned signature", "t=1700000000,v1=" + hexDigest, Stripe},
		{"stripe - multiple v1 values", "t=1700000000,v1=" + hexDigest + ",v1=" + hexDigest, Stripe},
		{"github - sha256 prefix with hex digest", "sha256=" + hexDigest, GitHub},
		{"shopify - sha256 prefix with base64 digest", "sha256=" + b64Digest, Shopify},
		{"shopify - bare base64 digest", b64Digest, Shopify},
		{"unknown - empty header", "", Unknown},
		{"unknown - whitespace header", "   ", Unknown},
		{"unknown - random string", "hello world", Unknown},
		{"unknown - sha256 prefix with garbage", "sha256=garbage", Unknown},
		{"unknown - short hex digest", "sha256=" + hexDigest[:40], Unknown},
		{"unknown - base64 of the wrong digest size", base64.StdEncoding.EncodeToString([]byte("short")), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.header))
		})
	}

	t.Run("uppercase hex digest still detects as github", func(t *testing.T) {
		assert.Equal(t, GitHub, Detect("sha256="+strings.ToUpper(hexDigest)))
	})
}

func TestProvider(t *testing.T) {
	t.Run("string round trip", func(t *testing.T) {
		for _, p := range Providers() {
			assert.Equal(t, p, NewProvider(p.String()))
		}
	})

	t.Run("unknown strings map to Unknown", func(t *testing.T) {
		assert.Equal(t, Unknown, NewProvider("paypal"))
		assert.Equal(t, Unknown, NewProvider(""))
	})

	t.Run("validate", func(t *testing.T) {
		for _, p := range Providers() {
			assert.NoError(t, p.Validate())
		}
		assert.Error(t, Unknown.Validate())
		assert.Error(t, Provider(99).Validate())
	})
}
