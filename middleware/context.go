package middleware

import (
	"context"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

const (
	// PrincipalKey is the context key for the authenticated caller
	PrincipalKey contextKey = "principal"
)

// Auth methods recorded on a Principal
const (
	AuthMethodAPIKey   = "api_key"
	AuthMethodBearer   = "bearer"
	AuthMethodDisabled = "disabled"
)

// Principal is the authenticated caller of a request
type Principal struct {
	Subject    string `json:"subject"`
	CustomerID string `json:"customer_id,omitempty"`
	Method     string `json:"method"`
}

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimiddleware.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, chimiddleware.RequestIDKey, requestID)
}

// GetPrincipalFromContext retrieves the caller from context, or nil
func GetPrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(PrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal adds the caller to the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}
