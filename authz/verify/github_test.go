package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

const githubSecret = "gh_test_secret"

// signGitHub builds an X-Hub-Signature-256 header for the payload
func signGitHub(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestGitHubVerify(t *testing.T) {
	payload := []byte(`{"action":"opened","number":42}`)
	verifier := GitHubVerifier{}

	t.Run("success - valid signature", func(t *testing.T) {
		result := verifier.Verify(payload, signGitHub(githubSecret, payload), githubSecret)

		assert.True(t, result.Valid)
	})

	t.Run("success - no event id extracted", func(t *testing.T) {
		// GitHub delivery ids travel in a separate header, never the body.
		result := verifier.Verify(payload, signGitHub(githubSecret, payload), githubSecret)

		assert.True(t, result.Valid)
		assert.Empty(t, result.EventID)
		assert.Empty(t, result.EventType)
	})

	t.Run("failure - single bit flip changes the digest", func(t *testing.T) {
		header := signGitHub(githubSecret, payload)

		flipped := make([]byte, len(payload))
		copy(flipped, payload)
		flipped[0] ^= 0x01

		result := verifier.Verify(flipped, header, githubSecret)

		assert.False(t, result.Valid)
	})

	t.Run("failure - every single-bit flip of the first byte rejects", func(t *testing.T) {
		header := signGitHub(githubSecret, payload)

		for bit := 0; bit < 8; bit++ {
			flipped := make([]byte, len(payload))
			copy(flipped, payload)
			flipped[0] ^= 1 << bit

			result := verifier.Verify(flipped, header, githubSecret)
			assert.False(t, result.Valid, "bit %d", bit)
		}
	})

	t.Run("failure - wrong secret", func(t *testing.T) {
		result := verifier.Verify(payload, signGitHub("gh_wrong", payload), githubSecret)

		assert.False(t, result.Valid)
	})

	t.Run("failure - missing prefix", func(t *testing.T) {
		mac := hmac.New(sha256.New, []byte(githubSecret))
		mac.Write(payload)
		result := verifier.Verify(payload, hex.EncodeToString(mac.Sum(nil)), githubSecret)

		assert.False(t, result.Valid)
	})

	t.Run("failure - non-hex digest never throws", func(t *testing.T) {
		result := verifier.Verify(payload, "sha256=not-hex-at-all", githubSecret)

		assert.False(t, result.Valid)
	})

	t.Run("failure - empty secret never throws", func(t *testing.T) {
		result := verifier.Verify(payload, signGitHub(githubSecret, payload), "")

		assert.False(t, result.Valid)
	})
}
