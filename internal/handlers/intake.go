package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/intake"
	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/validation"
)

// IntakeHandler handles the research triage board: capturing cards,
// moving them between phases, triaging, and connection suggestions.
type IntakeHandler struct {
	service *intake.Service
	rawRepo database.RawSourceRepositoryInterface
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(service *intake.Service, rawRepo database.RawSourceRepositoryInterface) *IntakeHandler {
	return &IntakeHandler{service: service, rawRepo: rawRepo}
}

// RegisterRoutes registers intake routes on the given router
func (h *IntakeHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListCards).Methods("GET")
	r.HandleFunc("", h.Capture).Methods("POST")
	r.HandleFunc("/{id}", h.GetCard).Methods("GET")
	r.HandleFunc("/{id}", h.EnrichCard).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteCard).Methods("DELETE")
	r.HandleFunc("/{id}/move", h.MoveCard).Methods("POST")
	r.HandleFunc("/{id}/triage", h.TriageCard).Methods("POST")
	r.HandleFunc("/{id}/suggestions", h.ListSuggestions).Methods("GET")
	r.HandleFunc("/{id}/suggestions/{suggestionID}", h.UpdateSuggestion).Methods("PATCH")
}

// CaptureRequest represents a card capture request. Exactly one of url
// and file_name must be set.
type CaptureRequest struct {
	URL      string   `json:"url" validate:"omitempty,url,max=2000"`
	FileName string   `json:"file_name" validate:"omitempty,max=500"`
	Tags     []string `json:"tags"`
}

// Capture records a URL or file on the board. Re-capturing a URL that
// is already on the board returns the existing card with 200.
func (h *IntakeHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}
	if (req.URL == "") == (req.FileName == "") {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Exactly one of url and file_name is required")
		return
	}

	card, created, err := h.service.Capture(r.Context(), intake.CaptureInput{
		URL:      req.URL,
		FileName: validation.SanitizeText(req.FileName),
		Tags:     req.Tags,
	})
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to capture card")
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	respondJSON(w, status, card)
}

// ListCards lists board cards, optionally filtered by phase and decision
func (h *IntakeHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	var phase *models.Phase
	if p := r.URL.Query().Get("phase"); p != "" {
		v := models.Phase(p)
		switch v {
		case models.PhaseInbox, models.PhaseReview, models.PhaseDecided:
		default:
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid phase filter")
			return
		}
		phase = &v
	}

	var decision *models.Decision
	if d := r.URL.Query().Get("decision"); d != "" {
		v := models.Decision(d)
		switch v {
		case models.DecisionPending, models.DecisionAccepted, models.DecisionRejected, models.DecisionDeferred:
		default:
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid decision filter")
			return
		}
		decision = &v
	}

	cards, err := h.rawRepo.List(r.Context(), phase, decision)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list cards")
		return
	}
	respondJSON(w, http.StatusOK, cards)
}

// GetCard fetches a single card by ID
func (h *IntakeHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid card ID")
		return
	}

	card, err := h.rawRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Card not found")
		return
	}
	respondJSON(w, http.StatusOK, card)
}

// EnrichRequest represents an operator card update
type EnrichRequest struct {
	Importance *string  `json:"importance,omitempty" validate:"omitempty,importance"`
	Tags       []string `json:"tags,omitempty"`
}

// EnrichCard updates a card's operator-editable annotations
func (h *IntakeHandler) EnrichCard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid card ID")
		return
	}

	var req EnrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	input := intake.EnrichInput{Tags: req.Tags}
	if req.Importance != nil {
		imp := models.Importance(*req.Importance)
		input.Importance = &imp
	}

	card, err := h.service.Enrich(r.Context(), id, input)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Card not found")
		return
	}
	respondJSON(w, http.StatusOK, card)
}

// DeleteCard removes a card from the board
func (h *IntakeHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid card ID")
		return
	}

	if _, err := h.rawRepo.GetByID(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Card not found")
		return
	}
	if err := h.rawRepo.Delete(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete card")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// MoveRequest represents a board phase change
type MoveRequest struct {
	Phase string `json:"phase" validate:"required,board_phase"`
}

// MoveCard moves a card between the inbox and review phases. The
// decided phase is entered through triage only.
func (h *IntakeHandler) MoveCard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid card ID")
		return
	}

	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	card, err := h.service.Move(r.Context(), id, models.Phase(req.Phase))
	if err != nil {
		if errors.Is(err, intake.ErrAlreadyDecided) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Card has already been decided")
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, card)
}

// TriageRequest represents a triage decision
type TriageRequest struct {
	Decision string `json:"decision" validate:"required,triage_decision"`
	Note     string `json:"note" validate:"max=2000"`
}

// TriageResponse is the triage result. Source is set only when an
// accepted card was promoted.
type TriageResponse struct {
	Card   *models.RawSource `json:"card"`
	Source *models.Source    `json:"source,omitempty"`
}

// TriageCard records a decision for a card. An accepted card is
// promoted to a source record; if promotion fails the decision stands
// and the response reports the failure with 502.
func (h *IntakeHandler) TriageCard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid card ID")
		return
	}

	var req TriageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	card, source, err := h.service.Triage(r.Context(), id, models.Decision(req.Decision), validation.SanitizeText(req.Note))
	if err != nil {
		if errors.Is(err, intake.ErrAlreadyDecided) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Card has already been decided")
			return
		}
		var promoErr *intake.PromotionError
		if errors.As(err, &promoErr) {
			// The decision is committed; report the failed promotion.
			respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Card decided but promotion failed")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to triage card")
		return
	}

	respondJSON(w, http.StatusOK, TriageResponse{Card: card, Source: source})
}

// ListSuggestions lists the stored connection suggestions for a card
func (h *IntakeHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid card ID")
		return
	}

	suggestions, err := h.rawRepo.ListSuggestions(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list suggestions")
		return
	}
	respondJSON(w, http.StatusOK, suggestions)
}

// SuggestionRequest marks a suggestion as accepted or dismissed
type SuggestionRequest struct {
	Accepted *bool `json:"accepted" validate:"required"`
}

// UpdateSuggestion records the operator's verdict on a suggestion
func (h *IntakeHandler) UpdateSuggestion(w http.ResponseWriter, r *http.Request) {
	suggestionID, err := uuid.Parse(mux.Vars(r)["suggestionID"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid suggestion ID")
		return
	}

	var req SuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	if err := h.rawRepo.SetSuggestionAccepted(r.Context(), suggestionID, *req.Accepted); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Suggestion not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"accepted": *req.Accepted})
}
