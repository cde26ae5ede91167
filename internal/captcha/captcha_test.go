package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func verifyServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad form: %v", err)
		}
		if r.PostForm.Get("secret") == "" || r.PostForm.Get("response") == "" {
			t.Error("secret and response must be submitted")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestVerify_Pass(t *testing.T) {
	t.Parallel()

	server := verifyServer(t, `{"success": true, "score": 0.9}`)
	v := NewWithVerifyURL("secret", server.URL, 0.5, nil)

	if !v.Verify(context.Background(), "token", "203.0.113.9") {
		t.Error("a high-score token must pass")
	}
}

func TestVerify_LowScoreRejected(t *testing.T) {
	t.Parallel()

	server := verifyServer(t, `{"success": true, "score": 0.1}`)
	v := NewWithVerifyURL("secret", server.URL, 0.5, nil)

	if v.Verify(context.Background(), "token", "") {
		t.Error("a low-score token must be rejected")
	}
}

func TestVerify_FailureRejected(t *testing.T) {
	t.Parallel()

	server := verifyServer(t, `{"success": false, "error-codes": ["invalid-input-response"]}`)
	v := NewWithVerifyURL("secret", server.URL, 0.5, nil)

	if v.Verify(context.Background(), "token", "") {
		t.Error("an invalid token must be rejected")
	}
}

func TestVerify_EmptyTokenRejected(t *testing.T) {
	t.Parallel()

	v := New("secret", 0.5, nil)
	if v.Verify(context.Background(), "", "") {
		t.Error("an empty token must be rejected")
	}
}

func TestVerify_FailsOpenWhenServiceDown(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // unreachable
	v := NewWithVerifyURL("secret", server.URL, 0.5, nil)

	if !v.Verify(context.Background(), "token", "") {
		t.Error("verification must fail open when the service is unreachable")
	}
}

func TestVerify_DisabledWithoutSecret(t *testing.T) {
	t.Parallel()

	v := New("", 0.5, nil)
	if !v.Verify(context.Background(), "", "") {
		t.Error("verification must pass when no secret is configured")
	}
	if v.Enabled() {
		t.Error("Enabled() must be false without a secret")
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	server := verifyServer(t, `{"success": true, "score": 0.3}`)
	v := NewWithVerifyURL("secret", server.URL, 0.5, nil)

	if got := v.Score(context.Background(), "token", ""); got != 0.3 {
		t.Errorf("expected score 0.3, got %v", got)
	}
}

func TestScore_FailsOpen(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // unreachable
	v := NewWithVerifyURL("secret", server.URL, 0.5, nil)

	if got := v.Score(context.Background(), "token", ""); got != 1.0 {
		t.Errorf("expected 1.0 when the service is unreachable, got %v", got)
	}

	disabled := New("", 0.5, nil)
	if got := disabled.Score(context.Background(), "token", ""); got != 1.0 {
		t.Errorf("expected 1.0 without a secret, got %v", got)
	}
}
