package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/validation"
)

// CollectionHandler handles shelf and toolkit entries. Both are
// published as saved, with no draft flag.
type CollectionHandler struct {
	shelfRepo   *database.ShelfRepository
	toolkitRepo *database.ToolkitRepository
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(shelfRepo *database.ShelfRepository, toolkitRepo *database.ToolkitRepository) *CollectionHandler {
	return &CollectionHandler{shelfRepo: shelfRepo, toolkitRepo: toolkitRepo}
}

// RegisterRoutes registers collection routes on the given router.
// The router should already have the /content prefix.
func (h *CollectionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/shelf", h.ListShelf).Methods("GET")
	r.HandleFunc("/shelf", h.CreateShelfEntry).Methods("POST")
	r.HandleFunc("/shelf/{slug}", h.GetShelfEntry).Methods("GET")
	r.HandleFunc("/shelf/{slug}", h.UpdateShelfEntry).Methods("PATCH")
	r.HandleFunc("/shelf/{slug}", h.DeleteShelfEntry).Methods("DELETE")

	r.HandleFunc("/toolkit", h.ListToolkit).Methods("GET")
	r.HandleFunc("/toolkit", h.CreateToolkitEntry).Methods("POST")
	r.HandleFunc("/toolkit/{slug}", h.GetToolkitEntry).Methods("GET")
	r.HandleFunc("/toolkit/{slug}", h.UpdateToolkitEntry).Methods("PATCH")
	r.HandleFunc("/toolkit/{slug}", h.DeleteToolkitEntry).Methods("DELETE")
}

// ShelfEntryRequest represents a create or update shelf entry request
type ShelfEntryRequest struct {
	Title        string     `json:"title" validate:"required,min=1,max=500"`
	Slug         string     `json:"slug" validate:"required,min=1,max=200"`
	Creator      string     `json:"creator" validate:"max=500"`
	ShelfType    string     `json:"shelf_type" validate:"max=100"`
	Status       string     `json:"status" validate:"max=100"`
	Rating       int        `json:"rating" validate:"min=0,max=5"`
	Body         string     `json:"body"`
	Tags         []string   `json:"tags"`
	FinishedDate *time.Time `json:"finished_date,omitempty"`
}

// ListShelf lists shelf entries
func (h *CollectionHandler) ListShelf(w http.ResponseWriter, r *http.Request) {
	entries, err := h.shelfRepo.List(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list shelf entries")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// CreateShelfEntry creates a shelf entry
func (h *CollectionHandler) CreateShelfEntry(w http.ResponseWriter, r *http.Request) {
	var req ShelfEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	entry := &models.ShelfEntry{
		ID:           uuid.New(),
		Title:        validation.SanitizeText(req.Title),
		Slug:         req.Slug,
		Creator:      validation.SanitizeText(req.Creator),
		ShelfType:    req.ShelfType,
		Status:       req.Status,
		Rating:       req.Rating,
		Body:         req.Body,
		Tags:         req.Tags,
		FinishedDate: req.FinishedDate,
	}

	if err := h.shelfRepo.Create(r.Context(), entry); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create shelf entry")
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// GetShelfEntry fetches one shelf entry by slug
func (h *CollectionHandler) GetShelfEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.shelfRepo.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Shelf entry not found")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// UpdateShelfEntry replaces a shelf entry's editable fields
func (h *CollectionHandler) UpdateShelfEntry(w http.ResponseWriter, r *http.Request) {
	var req ShelfEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	ctx := r.Context()
	entry, err := h.shelfRepo.GetBySlug(ctx, mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Shelf entry not found")
		return
	}

	entry.Title = validation.SanitizeText(req.Title)
	entry.Creator = validation.SanitizeText(req.Creator)
	entry.ShelfType = req.ShelfType
	entry.Status = req.Status
	entry.Rating = req.Rating
	entry.Body = req.Body
	entry.Tags = req.Tags
	entry.FinishedDate = req.FinishedDate

	if err := h.shelfRepo.Update(ctx, entry); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update shelf entry")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// DeleteShelfEntry removes a shelf entry from the local store
func (h *CollectionHandler) DeleteShelfEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entry, err := h.shelfRepo.GetBySlug(ctx, mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Shelf entry not found")
		return
	}
	if err := h.shelfRepo.Delete(ctx, entry.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete shelf entry")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"slug": entry.Slug})
}

// ToolkitEntryRequest represents a create or update toolkit entry request
type ToolkitEntryRequest struct {
	Title    string   `json:"title" validate:"required,min=1,max=500"`
	Slug     string   `json:"slug" validate:"required,min=1,max=200"`
	Category string   `json:"category" validate:"max=100"`
	URL      string   `json:"url" validate:"omitempty,max=2000"`
	Body     string   `json:"body"`
	Tags     []string `json:"tags"`
}

// ListToolkit lists toolkit entries
func (h *CollectionHandler) ListToolkit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.toolkitRepo.List(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list toolkit entries")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// CreateToolkitEntry creates a toolkit entry
func (h *CollectionHandler) CreateToolkitEntry(w http.ResponseWriter, r *http.Request) {
	var req ToolkitEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	entry := &models.ToolkitEntry{
		ID:       uuid.New(),
		Title:    validation.SanitizeText(req.Title),
		Slug:     req.Slug,
		Category: req.Category,
		URL:      req.URL,
		Body:     req.Body,
		Tags:     req.Tags,
	}

	if err := h.toolkitRepo.Create(r.Context(), entry); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create toolkit entry")
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// GetToolkitEntry fetches one toolkit entry by slug
func (h *CollectionHandler) GetToolkitEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.toolkitRepo.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Toolkit entry not found")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// UpdateToolkitEntry replaces a toolkit entry's editable fields
func (h *CollectionHandler) UpdateToolkitEntry(w http.ResponseWriter, r *http.Request) {
	var req ToolkitEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	ctx := r.Context()
	entry, err := h.toolkitRepo.GetBySlug(ctx, mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Toolkit entry not found")
		return
	}

	entry.Title = validation.SanitizeText(req.Title)
	entry.Category = req.Category
	entry.URL = req.URL
	entry.Body = req.Body
	entry.Tags = req.Tags

	if err := h.toolkitRepo.Update(ctx, entry); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update toolkit entry")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// DeleteToolkitEntry removes a toolkit entry from the local store
func (h *CollectionHandler) DeleteToolkitEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entry, err := h.toolkitRepo.GetBySlug(ctx, mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Toolkit entry not found")
		return
	}
	if err := h.toolkitRepo.Delete(ctx, entry.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete toolkit entry")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"slug": entry.Slug})
}
