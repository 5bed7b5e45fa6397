package authz

import "fmt"

/* Provider is a closed set of webhook senders the gateway knows how to
 * verify. Unknown is the zero value so an undetected provider can never
 * accidentally dispatch to a verifier.
 */
type Provider int

const (
	Unknown Provider = iota
	Stripe
	GitHub
	Shopify
)

// String returns the string representation of the provider
func (p Provider) String() string {
	switch p {
	case Stripe:
		return "stripe"
	case GitHub:
		return "github"
	case Shopify:
		return "shopify"
	default:
		return "unknown"
	}
}

// NewProvider creates a Provider from a string
func NewProvider(str string) Provider {
	switch str {
	case "stripe":
		return Stripe
	case "github":
		return GitHub
	case "shopify":
		return Shopify
	default:
		return Unknown
	}
}

// Validate checks if the provider is one the gateway can verify
func (p Provider) Validate() error {
	if p <= Unknown || p > Shopify {
		return fmt.Errorf("invalid provider: %d", p)
	}
	return nil
}

// Providers returns every provider the gateway can verify
func Providers() []Provider {
	return []Provider{Stripe, GitHub, Shopify}
}
