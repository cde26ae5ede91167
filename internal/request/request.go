package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/nwhitfield/site-studio/internal/services/oidc"
)

type contextKey string

const operatorContextKey contextKey = "operator"

// OperatorContextKey returns the context key used for the operator. Exposed for tests that inject non-operator values.
func OperatorContextKey() contextKey { return operatorContextKey }

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithOperator returns a context with the authenticated operator attached.
func WithOperator(ctx context.Context, claims *oidc.Claims) context.Context {
	return context.WithValue(ctx, operatorContextKey, claims)
}

// OperatorFromContext returns the operator claims from the request context, or nil if missing or wrong type.
func OperatorFromContext(r *http.Request) *oidc.Claims {
	c, _ := r.Context().Value(operatorContextKey).(*oidc.Claims)
	return c
}
