package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tolerance is the maximum accepted skew between the signed timestamp and the
// local clock. Signatures outside the window are rejected even when the
// digest matches, to limit replay exposure.
const Tolerance = 300 * time.Second

/* StripeVerifier implements the Stripe-Signature scheme: the header is a
 * comma-separated list of key=value pairs carrying a unix timestamp (t) and
 * one or more v1 signatures (multiple during secret rotation). The signed
 * content is "{t}.{payload}" and any v1 match accepts.
 */
type StripeVerifier struct {
	// Now is the clock used for the replay-window check. Nil means time.Now.
	Now func() time.Time
}

// Verify validates a Stripe-Signature header against the raw payload.
func (v StripeVerifier) Verify(payload []byte, header, secret string) Result {
	if secret == "" || header == "" {
		return Result{}
	}

	timestamp, signatures := parseStripeHeader(header)
	if timestamp == "" || len(signatures) == 0 {
		return Result{}
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return Result{}
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	skew := now().Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > Tolerance {
		return Result{}
	}

	// Recompute the expected digest over "{t}.{payload}" using the raw
	// timestamp string exactly as it appeared in the header.
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", timestamp, payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		// hmac.Equal is constant time
		if hmac.Equal(expected, decoded) {
			id, eventType := extractEnvelope(payload)
			return Result{Valid: true, EventID: id, EventType: eventType}
		}
	}

	return Result{}
}

// parseStripeHeader extracts the t value and all v1 values from a
// comma-separated key=value header. Unknown keys are ignored.
func parseStripeHeader(header string) (timestamp string, signatures []string) {
	for _, part := range strings.Split(header, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "t":
			timestamp = pair[1]
		case "v1":
			signatures = append(signatures, pair[1])
		}
	}
	return timestamp, signatures
}
