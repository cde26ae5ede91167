package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nwhitfield/site-studio/internal/request"
	"github.com/nwhitfield/site-studio/internal/services/oidc"
)

// TokenVerifier verifies a bearer token. oidc.Verifier implements it.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (*oidc.Claims, error)
}

// OperatorAuth creates authentication middleware for the admin surface.
// The studio has one operator: a valid token must also match the
// configured subject or email, or it is rejected.
func OperatorAuth(verifier TokenVerifier, operatorSubject string, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header", logger)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format", logger)
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, parts[1])
			if err != nil {
				logger.Warn("token_verification_failed", zap.Error(err))
				respondError(w, http.StatusUnauthorized, "Invalid or expired token", logger)
				return
			}

			if operatorSubject != "" && claims.Sub != operatorSubject && claims.Email != operatorSubject {
				logger.Warn("non_operator_token_rejected",
					zap.String("sub", claims.Sub),
				)
				respondError(w, http.StatusForbidden, "Not the site operator", logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithOperator(ctx, claims)))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed_to_encode_error_response", zap.Error(err))
	}
}
