package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

/* ShopifyVerifier implements the X-Shopify-Hmac-Sha256 scheme: the header is
 * the base64-encoded HMAC-SHA256 of the raw payload. Some transports forward
 * it with a "sha256=" prefix, which is tolerated here.
 *
 * The comparison is constant time. Earlier revisions of this pipeline used
 * ordinary equality for Shopify only; that inconsistency was a defect, not a
 * design choice.
 */
type ShopifyVerifier struct{}

// Verify validates an X-Shopify-Hmac-Sha256 header against the raw payload.
func (ShopifyVerifier) Verify(payload []byte, header, secret string) Result {
	if secret == "" || header == "" {
		return Result{}
	}

	digest := strings.TrimPrefix(header, "sha256=")
	decoded, err := base64.StdEncoding.DecodeString(digest)
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
