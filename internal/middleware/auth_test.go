package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nwhitfield/site-studio/internal/request"
	"github.com/nwhitfield/site-studio/internal/services/oidc"
)

type fakeVerifier struct {
	claims *oidc.Claims
	err    error
}

func (f *fakeVerifier) Verify(ctx context.Context, tokenString string) (*oidc.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func TestOperatorAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		authHeader string
		verifier   *fakeVerifier
		operator   string
		wantStatus int
	}{
		{
			name:       "valid operator token",
			authHeader: "Bearer good-token",
			verifier:   &fakeVerifier{claims: &oidc.Claims{Sub: "op-123", Email: "n@example.com"}},
			operator:   "op-123",
			wantStatus: http.StatusOK,
		},
		{
			name:       "operator matched by email",
			authHeader: "Bearer good-token",
			verifier:   &fakeVerifier{claims: &oidc.Claims{Sub: "other", Email: "n@example.com"}},
			operator:   "n@example.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			authHeader: "",
			verifier:   &fakeVerifier{claims: &oidc.Claims{Sub: "op-123"}},
			operator:   "op-123",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			authHeader: "good-token",
			verifier:   &fakeVerifier{claims: &oidc.Claims{Sub: "op-123"}},
			operator:   "op-123",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer bad-token",
			verifier:   &fakeVerifier{err: errors.New("expired")},
			operator:   "op-123",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token for someone else",
			authHeader: "Bearer stranger-token",
			verifier:   &fakeVerifier{claims: &oidc.Claims{Sub: "stranger", Email: "s@example.com"}},
			operator:   "op-123",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no operator configured accepts any valid token",
			authHeader: "Bearer good-token",
			verifier:   &fakeVerifier{claims: &oidc.Claims{Sub: "anyone"}},
			operator:   "",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotClaims *oidc.Claims
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotClaims = request.OperatorFromContext(r)
				w.WriteHeader(http.StatusOK)
			})

			handler := OperatorAuth(tt.verifier, tt.operator, nil)(next)

			r := httptest.NewRequest("GET", "/api/sources", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus == http.StatusOK && gotClaims == nil {
				t.Error("expected operator claims in request context")
			}
		})
	}
}
