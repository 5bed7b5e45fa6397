package verify

import "encoding/json"

/* Pure signature verification, one implementation per provider scheme.
 * Verifiers hold no state besides an injectable clock, do no I/O, and fail
 * closed: a malformed header, an empty secret, or any internal decode error
 * yields Valid=false rather than an error. Logging failures is the caller's
 * responsibility.
 */

// Result is the outcome of verifying one payload against one header.
// EventID and EventType are populated only when Valid is true and the payload
// parsed as a JSON event envelope; signature correctness and payload shape
// are independent concerns, so a valid signature over an unparsable payload
// still yields Valid=true with empty event fields.
type Result struct {
	Valid     bool
	EventID   string
	EventType string
}

// Verifier validates a provider-specific signature scheme against a raw
// payload and a shared secret.
type Verifier interface {
	Verify(payload []byte, header, secret string) Result
}

// envelope is the minimal shape shared by provider event payloads.
type envelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// extractEnvelope pulls the event id and type out of a payload when it is
// valid JSON. Parse failure is not an error; it just leaves both empty.
func extractEnvelope(payload []byte) (string, string) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return "", ""
	}
	return env.ID, env.Type
}
