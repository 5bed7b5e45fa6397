package authz

import (
	"encoding/base64"
	"strings"
)

/* Detection is heuristic and order-sensitive: the webhook transport does not
 * carry provider identity out-of-band, so the signature header's shape is all
 * there is to go on. GitHub and Shopify can both arrive with a sha256= prefix
 * and are disambiguated only by digest encoding, which is fragile; see
 * DESIGN.md. A trusted provider header at the transport boundary would make
 * this exact instead of inferred.
 */

const sha256Prefix = "sha256="

// Detect inspects a signature header's shape and returns the provider tag.
// Anything unrecognized maps to Unknown, which the gateway always denies.
func Detect(header string) Provider {
	header = strings.TrimSpace(header)
	if header == "" {
		return Unknown
	}

	// Stripe: comma-separated key=value pairs with a timestamp and at
	// least one versioned signature, e.g. "t=1700000000,v1=abc...".
	if strings.Contains(header, "t=") && strings.Contains(header, "v1=") {
		return Stripe
	}

	if strings.HasPrefix(header, sha256Prefix) {
		digest := strings.TrimPrefix(header, sha256Prefix)
		if isHexDigest(digest) {
			return GitHub
		}
		if isBase64Digest(digest) {
			return Shopify
		}
		return Unknown
	}

	// Shopify sends the digest bare in X-Shopify-Hmac-Sha256; accept that
	// shape too.
	if isBase64Digest(header) {
		return Shopify
	}

	return Unknown
}

// isHexDigest reports whether s is a hex-encoded SHA-256 digest (64 chars).
func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// isBase64Digest reports whether s base64-decodes to a 32-byte digest.
func isBase64Digest(s string) bool {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return false
	}
	return len(raw) == 32
}
