package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/validation"
)

// SourceHandler handles source library requests
type SourceHandler struct {
	sourceRepo database.SourceRepositoryInterface
	linkRepo   database.LinkRepositoryInterface
}

// NewSourceHandler creates a new source handler
func NewSourceHandler(sourceRepo database.SourceRepositoryInterface, linkRepo database.LinkRepositoryInterface) *SourceHandler {
	return &SourceHandler{sourceRepo: sourceRepo, linkRepo: linkRepo}
}

// RegisterRoutes registers source routes on the given router.
// The router should already have the /sources prefix.
func (h *SourceHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListSources).Methods("GET")
	r.HandleFunc("", h.CreateSource).Methods("POST")
	r.HandleFunc("/{key}", h.GetSource).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateSource).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteSource).Methods("DELETE")
	r.HandleFunc("/{id}/links", h.ListSourceLinks).Methods("GET")
}

// CreateSourceRequest represents a create source request
type CreateSourceRequest struct {
	Title            string            `json:"title" validate:"required,min=1,max=500"`
	Slug             string            `json:"slug" validate:"required,min=1,max=200"`
	Creator          string            `json:"creator" validate:"max=500"`
	SourceType       models.SourceType `json:"source_type" validate:"required,source_type"`
	URL              string            `json:"url" validate:"omitempty,url,max=2000"`
	Publication      string            `json:"publication" validate:"max=500"`
	DatePublished    *time.Time        `json:"date_published,omitempty"`
	DateEncountered  *time.Time        `json:"date_encountered,omitempty"`
	PublicAnnotation string            `json:"public_annotation" validate:"max=5000"`
	PrivateNotes     string            `json:"private_notes" validate:"max=20000"`
	KeyFindings      []string          `json:"key_findings"`
	Tags             []string          `json:"tags"`
	Public           bool              `json:"public"`
	Location         *models.Location  `json:"location,omitempty"`
}

// UpdateSourceRequest represents an update source request. The slug is
// immutable once assigned and cannot appear here.
type UpdateSourceRequest struct {
	Title            *string            `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Creator          *string            `json:"creator,omitempty" validate:"omitempty,max=500"`
	SourceType       *models.SourceType `json:"source_type,omitempty" validate:"omitempty,source_type"`
	URL              *string            `json:"url,omitempty" validate:"omitempty,max=2000"`
	Publication      *string            `json:"publication,omitempty" validate:"omitempty,max=500"`
	DatePublished    *time.Time         `json:"date_published,omitempty"`
	DateEncountered  *time.Time         `json:"date_encountered,omitempty"`
	PublicAnnotation *string            `json:"public_annotation,omitempty" validate:"omitempty,max=5000"`
	PrivateNotes     *string            `json:"private_notes,omitempty" validate:"omitempty,max=20000"`
	KeyFindings      []string           `json:"key_findings,omitempty"`
	Tags             []string           `json:"tags,omitempty"`
	Public           *bool              `json:"public,omitempty"`
	Location         *models.Location   `json:"location,omitempty"`
}

// ListSources lists sources with optional type, visibility, and tag filters
func (h *SourceHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var sourceType *models.SourceType
	if st := r.URL.Query().Get("source_type"); st != "" {
		stEnum := models.SourceType(st)
		if err := validation.Validate.Var(string(stEnum), "source_type"); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "invalid source_type: "+st)
			return
		}
		sourceType = &stEnum
	}

	var public *bool
	if p := r.URL.Query().Get("public"); p != "" {
		val := p == "true"
		public = &val
	}

	tag := r.URL.Query().Get("tag")

	sources, err := h.sourceRepo.List(ctx, sourceType, public, tag)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list sources")
		return
	}

	respondJSON(w, http.StatusOK, sources)
}

// CreateSource creates a new source
func (h *SourceHandler) CreateSource(w http.ResponseWriter, r *http.Request) {
	var req CreateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", validationErrors.Error())
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	ctx := r.Context()

	exists, err := h.sourceRepo.SlugExists(ctx, req.Slug)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to check slug")
		return
	}
	if exists {
		respondJSONError(w, http.StatusConflict, "Conflict", "A source with this slug already exists")
		return
	}

	source := &models.Source{
		ID:               uuid.New(),
		Title:            validation.SanitizeText(req.Title),
		Slug:             req.Slug,
		Creator:          validation.SanitizeText(req.Creator),
		SourceType:       req.SourceType,
		URL:              req.URL,
		Publication:      validation.SanitizeText(req.Publication),
		DatePublished:    req.DatePublished,
		DateEncountered:  req.DateEncountered,
		PublicAnnotation: validation.SanitizeText(req.PublicAnnotation),
		PrivateNotes:     req.PrivateNotes,
		KeyFindings:      req.KeyFindings,
		Tags:             req.Tags,
		Public:           req.Public,
		Location:         req.Location,
	}

	if err := h.sourceRepo.Create(ctx, source); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create source")
		return
	}

	respondJSON(w, http.StatusCreated, source)
}

// GetSource fetches a source by ID or slug
func (h *SourceHandler) GetSource(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	ctx := r.Context()

	var source *models.Source
	var err error
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		source, err = h.sourceRepo.GetByID(ctx, id)
	} else {
		source, err = h.sourceRepo.GetBySlug(ctx, key)
	}
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Source not found")
		return
	}

	respondJSON(w, http.StatusOK, source)
}

// UpdateSource applies a partial update to a source
func (h *SourceHandler) UpdateSource(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid source ID")
		return
	}

	var req UpdateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	ctx := r.Context()
	source, err := h.sourceRepo.GetByID(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Source not found")
		return
	}

	if req.Title != nil {
		source.Title = validation.SanitizeText(*req.Title)
	}
	if req.Creator != nil {
		source.Creator = validation.SanitizeText(*req.Creator)
	}
	if req.SourceType != nil {
		source.SourceType = *req.SourceType
	}
	if req.URL != nil {
		source.URL = *req.URL
	}
	if req.Publication != nil {
		source.Publication = validation.SanitizeText(*req.Publication)
	}
	if req.DatePublished != nil {
		source.DatePublished = req.DatePublished
	}
	if req.DateEncountered != nil {
		source.DateEncountered = req.DateEncountered
	}
	if req.PublicAnnotation != nil {
		source.PublicAnnotation = validation.SanitizeText(*req.PublicAnnotation)
	}
	if req.PrivateNotes != nil {
		source.PrivateNotes = *req.PrivateNotes
	}
	if req.KeyFindings != nil {
		source.KeyFindings = req.KeyFindings
	}
	if req.Tags != nil {
		source.Tags = req.Tags
	}
	if req.Public != nil {
		source.Public = *req.Public
	}
	if req.Location != nil {
		source.Location = req.Location
	}

	if err := h.sourceRepo.Update(ctx, source); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update source")
		return
	}

	respondJSON(w, http.StatusOK, source)
}

// DeleteSource deletes a source. Its citation links go with it.
func (h *SourceHandler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid source ID")
		return
	}

	if err := h.sourceRepo.Delete(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete source")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// ListSourceLinks lists the citation links for one source
func (h *SourceHandler) ListSourceLinks(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid source ID")
		return
	}

	links, err := h.linkRepo.ListBySource(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list links")
		return
	}

	respondJSON(w, http.StatusOK, links)
}
