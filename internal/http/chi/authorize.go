package chi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lancerhub/webhook-guard/authz"
	"github.com/lancerhub/webhook-guard/metrics"
)

/* HTTP layer DTOs for the authorization API
 * Separate from domain entities to avoid leaking internal structure. The
 * request shape mirrors what an API-gateway custom authorizer hands over.
 */

// authorizeRequest represents one inbound authorization call
type authorizeRequest struct {
	AuthorizationToken string `json:"authorizationToken"`
	RequestContext     struct {
		OperationName string `json:"operationName"`
		RequestID     string `json:"requestId"`
		Variables     struct {
			Body      string `json:"body"`
			Signature string `json:"signature"`
		} `json:"variables"`
	} `json:"requestContext"`
}

// resolverContextResponse carries the contextual metadata on an allow
type resolverContextResponse struct {
	Provider      string `json:"provider"`
	EventID       string `json:"eventId,omitempty"`
	EventType     string `json:"eventType,omitempty"`
	ValidatedAt   string `json:"validatedAt"`
	CorrelationID string `json:"correlationId"`
	Duplicate     bool   `json:"duplicate,omitempty"`
}

// authorizeResponse represents the rendered decision
type authorizeResponse struct {
	IsAuthorized    bool                     `json:"isAuthorized"`
	ResolverContext *resolverContextResponse `json:"resolverContext,omitempty"`
	DenialReason    string                   `json:"denialReason,omitempty"`
	DeniedAt        string                   `json:"deniedAt,omitempty"`
	CacheTTLSeconds int                      `json:"cacheTtlSeconds"`
}

// providersResponse represents one supported provider in the API
type providersResponse struct {
	Provider string `json:"provider"`
}

// postAuthorize handles POST /v1/authorize. The decision body, not the HTTP
// status, carries allow/deny; the endpoint itself answers 200 for any
// well-formed call.
func postAuthorize(gateway authz.UseCase, recorder *metrics.RedisRecorder) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req authorizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		// variables.signature wins; authorizationToken is the fallback the
		// gateway transport uses when variables are not forwarded.
		signature := req.RequestContext.Variables.Signature
		if signature == "" {
			signature = req.AuthorizationToken
		}

		decision := gateway.Authorize(r.Context(), authz.Request{
			Payload:       []byte(req.RequestContext.Variables.Body),
			Signature:     signature,
			OperationName: req.RequestContext.OperationName,
			RequestID:     req.RequestContext.RequestID,
		})

		recordDecision(r, recorder, decision)

		response := authorizeResponse{
			IsAuthorized:    decision.IsAuthorized,
			CacheTTLSeconds: int(decision.CacheTTL.Seconds()),
		}
		if decision.IsAuthorized {
			response.ResolverContext = &resolverContextResponse{
				Provider:      decision.Context.Provider.String(),
				EventID:       decision.Context.EventID,
				EventType:     decision.Context.EventType,
				ValidatedAt:   decision.Context.ValidatedAt.UTC().Format(time.RFC3339),
				CorrelationID: decision.Context.CorrelationID,
				Duplicate:     decision.Context.Duplicate,
			}
		} else {
			response.DenialReason = decision.DenialReason
			response.DeniedAt = decision.DeniedAt.UTC().Format(time.RFC3339)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// recordDecision updates the decision counters best-effort; metrics must
// never affect the decision path.
func recordDecision(r *http.Request, recorder *metrics.RedisRecorder, decision authz.Decision) {
	if recorder == nil {
		return
	}

	provider := authz.Unknown.String()
	outcome := "deny"
	if decision.IsAuthorized {
		provider = decision.Context.Provider.String()
		outcome = "allow"
	}

	if err := recorder.IncrDecision(r.Context(), provider, outcome); err != nil {
		return
	}
	if decision.IsAuthorized && decision.Context.Duplicate {
		_ = recorder.IncrDuplicate(r.Context())
	}
}

// getProviders handles GET /v1/providers
func getProviders() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		providers := authz.Providers()

		responses := make([]providersResponse, 0, len(providers))
		for _, p := range providers {
			responses = append(responses, providersResponse{Provider: p.String()})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(responses); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
