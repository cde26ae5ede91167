package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nwhitfield/site-studio/internal/captcha"
	"github.com/nwhitfield/site-studio/internal/intake"
	"github.com/nwhitfield/site-studio/internal/request"
	"github.com/nwhitfield/site-studio/internal/validation"
)

// PublicHandler serves the unauthenticated surface: site visitors
// suggesting a source for the research board.
type PublicHandler struct {
	intakeService *intake.Service
	verifier      *captcha.Verifier
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(intakeService *intake.Service, verifier *captcha.Verifier) *PublicHandler {
	return &PublicHandler{intakeService: intakeService, verifier: verifier}
}

// RegisterRoutes registers public routes on the given router.
// The router should already have the /suggest prefix.
func (h *PublicHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.SuggestSource).Methods("POST")
}

// SuggestSourceRequest is a visitor's source suggestion
type SuggestSourceRequest struct {
	URL          string `json:"url" validate:"required,url,max=2000"`
	CaptchaToken string `json:"captcha_token"`
}

// SuggestSource captures a visitor-suggested URL as an inbox card. Only
// an outright captcha failure blocks the submission; a low risk score
// tags the card and lets triage sort it out.
func (h *PublicHandler) SuggestSource(w http.ResponseWriter, r *http.Request) {
	var req SuggestSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	score := h.verifier.Score(r.Context(), req.CaptchaToken, request.ClientIP(r))
	if (h.verifier.Enabled() && req.CaptchaToken == "") || score == 0 {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Captcha verification failed")
		return
	}

	tags := []string{"visitor-suggested"}
	if score < h.verifier.MinScore() {
		tags = append(tags, "low-captcha-score")
	}

	_, created, err := h.intakeService.Capture(r.Context(), intake.CaptureInput{
		URL:  req.URL,
		Tags: tags,
	})
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to record suggestion")
		return
	}

	// Visitors get an acknowledgement, not the card.
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	respondJSON(w, status, map[string]string{"status": "received"})
}
