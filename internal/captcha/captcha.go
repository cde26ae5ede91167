// Package captcha verifies reCAPTCHA tokens guarding the public
// suggestion endpoint. Verification fails open: when the verification
// service itself is unreachable, a human visitor is not locked out
// because a third party is down.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Verifier checks reCAPTCHA tokens.
type Verifier struct {
	secret    string
	verifyURL string
	minScore  float64
	client    *http.Client
	logger    *zap.Logger
}

// New creates a verifier. An empty secret disables verification (every
// token passes), which is the local-development mode.
func New(secret string, minScore float64, logger *zap.Logger) *Verifier {
	if minScore <= 0 {
		minScore = 0.5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		secret:    secret,
		verifyURL: defaultVerifyURL,
		minScore:  minScore,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

// NewWithVerifyURL creates a verifier against a custom endpoint, for tests.
func NewWithVerifyURL(secret, verifyURL string, minScore float64, logger *zap.Logger) *Verifier {
	v := New(secret, minScore, logger)
	v.verifyURL = verifyURL
	return v
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks a token and reports whether the request should be
// allowed. Network and decode failures log a warning and allow the
// request through.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) bool {
	if v.secret == "" {
		return true
	}
	if token == "" {
		return false
	}

	result, err := v.check(ctx, token, remoteIP)
	if err != nil {
		v.logger.Warn("captcha_verify_unavailable", zap.Error(err))
		return true
	}

	if !result.Success {
		v.logger.Info("captcha_rejected", zap.Strings("error_codes", result.ErrorCodes))
		return false
	}

	if result.Score < v.minScore {
		v.logger.Info("captcha_low_score",
			zap.Float64("score", result.Score),
			zap.Float64("min_score", v.minScore),
		)
		return false
	}

	return true
}

// Score returns the risk score for a token without gating on it, for
// callers that only flag suspect submissions. Fail-open conditions
// (no secret, empty token, unreachable service) report 1.0.
func (v *Verifier) Score(ctx context.Context, token, remoteIP string) float64 {
	if v.secret == "" || token == "" {
		return 1.0
	}

	result, err := v.check(ctx, token, remoteIP)
	if err != nil {
		v.logger.Warn("captcha_verify_unavailable", zap.Error(err))
		return 1.0
	}
	if !result.Success {
		return 0
	}
	if result.Score < v.minScore {
		v.logger.Info("captcha_low_score",
			zap.Float64("score", result.Score),
			zap.Float64("min_score", v.minScore),
		)
	}
	return result.Score
}

// MinScore returns the configured score threshold.
func (v *Verifier) MinScore() float64 {
	return v.minScore
}

func (v *Verifier) check(ctx context.Context, token, remoteIP string) (*verifyResponse, error) {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("siteverify returned status %d", resp.StatusCode)
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool {
	return v.secret != ""
}
