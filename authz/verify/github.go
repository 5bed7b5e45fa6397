package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

/* GitHubVerifier implements the X-Hub-Signature-256 scheme: the header is
 * "sha256=" followed by the hex-encoded HMAC-SHA256 of the raw payload.
 * The scheme carries no timestamp, so there is no replay-window check, and
 * GitHub delivery ids live in a separate header, so no event id is extracted
 * from the payload.
 */
type GitHubVerifier struct{}

// Verify validates an X-Hub-Signature-256 header against the raw payload.
func (GitHubVerifier) Verify(payload []byte, header, secret string) Result {
	if secret == "" {
		return Result{}
	}
	if !strings.HasPrefix(header, "sha256=") {
		return Result{}
	}

	decoded, err := hex.DecodeString(strings.TrimPrefix(header, "sha256="))
	if err != nil {
		return Result{}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)

	if !hmac.Equal(mac.Sum(nil), decoded) {
		return Result{}
	}
	return Result{Valid: true}
}
