package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/validation"
)

// SiteHandler handles the now page and the site configuration singleton.
type SiteHandler struct {
	siteRepo *database.SiteRepository
}

// NewSiteHandler creates a new site handler
func NewSiteHandler(siteRepo *database.SiteRepository) *SiteHandler {
	return &SiteHandler{siteRepo: siteRepo}
}

// RegisterRoutes registers site routes on the given router
func (h *SiteHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/now", h.GetNowPage).Methods("GET")
	r.HandleFunc("/now", h.UpdateNowPage).Methods("PUT")
	r.HandleFunc("/config", h.GetSiteConfig).Methods("GET")
	r.HandleFunc("/config", h.UpdateSiteConfig).Methods("PUT")
}

// NowPageRequest represents a now page update request
type NowPageRequest struct {
	Body string `json:"body" validate:"required"`
}

// GetNowPage returns the current now page
func (h *SiteHandler) GetNowPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.siteRepo.GetNowPage(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load now page")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// UpdateNowPage replaces the now page body
func (h *SiteHandler) UpdateNowPage(w http.ResponseWriter, r *http.Request) {
	var req NowPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	ctx := r.Context()
	page, err := h.siteRepo.GetNowPage(ctx)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load now page")
		return
	}

	page.Body = req.Body
	if err := h.siteRepo.UpdateNowPage(ctx, page); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update now page")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GetSiteConfig returns the site configuration
func (h *SiteHandler) GetSiteConfig(w http.ResponseWriter, r *http.Request) {
	config, err := h.siteRepo.GetSiteConfig(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load site configuration")
		return
	}
	respondJSON(w, http.StatusOK, config)
}

// UpdateSiteConfig replaces the whole site configuration. The config is a
// single document so updates are full replacements, not patches.
func (h *SiteHandler) UpdateSiteConfig(w http.ResponseWriter, r *http.Request) {
	var config models.SiteConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if config.Nav == nil {
		config.Nav = []models.NavItem{}
	}

	if err := h.siteRepo.UpdateSiteConfig(r.Context(), &config); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update site configuration")
		return
	}

	saved, err := h.siteRepo.GetSiteConfig(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load site configuration")
		return
	}
	respondJSON(w, http.StatusOK, saved)
}
