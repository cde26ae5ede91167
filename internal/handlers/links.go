package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nwhitfield/site-studio/internal/backlink"
	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/validation"
)

// LinkHandler handles citation link and backlink requests
type LinkHandler struct {
	linkRepo   database.LinkRepositoryInterface
	sourceRepo database.SourceRepositoryInterface
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(linkRepo database.LinkRepositoryInterface, sourceRepo database.SourceRepositoryInterface) *LinkHandler {
	return &LinkHandler{linkRepo: linkRepo, sourceRepo: sourceRepo}
}

// RegisterRoutes registers link routes on the given router.
// The router should already have the /links prefix.
func (h *LinkHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListLinks).Methods("GET")
	r.HandleFunc("", h.CreateLink).Methods("POST")
	r.HandleFunc("/{id}", h.UpdateLink).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteLink).Methods("DELETE")
}

// RegisterBacklinkRoutes registers the backlink lookup route.
// The router should already have the /backlinks prefix.
func (h *LinkHandler) RegisterBacklinkRoutes(r *mux.Router) {
	r.HandleFunc("/{type}/{slug}", h.GetBacklinks).Methods("GET")
}

// CreateLinkRequest represents a create link request
type CreateLinkRequest struct {
	SourceID     uuid.UUID          `json:"source_id" validate:"required"`
	ContentType  models.ContentType `json:"content_type" validate:"required,content_type"`
	ContentSlug  string             `json:"content_slug" validate:"required,min=1,max=200"`
	ContentTitle string             `json:"content_title" validate:"max=500"`
	Role         models.LinkRole    `json:"role"`
	KeyQuote     string             `json:"key_quote" validate:"max=5000"`
	DateLinked   *time.Time         `json:"date_linked,omitempty"`
	Notes        string             `json:"notes" validate:"max=20000"`
}

// UpdateLinkRequest represents an update link request. The edge identity
// (source, content) is immutable; only annotations change.
type UpdateLinkRequest struct {
	ContentTitle *string          `json:"content_title,omitempty" validate:"omitempty,max=500"`
	Role         *models.LinkRole `json:"role,omitempty"`
	KeyQuote     *string          `json:"key_quote,omitempty" validate:"omitempty,max=5000"`
	DateLinked   *time.Time       `json:"date_linked,omitempty"`
	Notes        *string          `json:"notes,omitempty" validate:"omitempty,max=20000"`
}

// ListLinks lists citation links, optionally filtered by source or
// content piece
func (h *LinkHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if sid := r.URL.Query().Get("source_id"); sid != "" {
		id, err := uuid.Parse(sid)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid source_id")
			return
		}
		links, err := h.linkRepo.ListBySource(ctx, id)
		if err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list links")
			return
		}
		respondJSON(w, http.StatusOK, links)
		return
	}

	if key := r.URL.Query().Get("content"); key != "" {
		ref, err := models.ParseContentKey(key)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		links, err := h.linkRepo.ListByContent(ctx, ref)
		if err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list links")
			return
		}
		respondJSON(w, http.StatusOK, links)
		return
	}

	links, err := h.linkRepo.ListAll(ctx)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list links")
		return
	}
	respondJSON(w, http.StatusOK, links)
}

// CreateLink creates a citation link. Creating a link that already
// exists is a no-op returning the existing edge.
func (h *LinkHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	if req.ContentType == models.ContentTypeNow {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "The now page cannot carry citations")
		return
	}

	ctx := r.Context()

	if _, err := h.sourceRepo.GetByID(ctx, req.SourceID); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Source not found")
		return
	}

	role := req.Role
	if role == "" {
		role = models.LinkRoleReference
	}

	link := &models.SourceLink{
		ID:           uuid.New(),
		SourceID:     req.SourceID,
		ContentType:  req.ContentType,
		ContentSlug:  req.ContentSlug,
		ContentTitle: validation.SanitizeText(req.ContentTitle),
		Role:         role,
		KeyQuote:     validation.SanitizeText(req.KeyQuote),
		DateLinked:   req.DateLinked,
		Notes:        req.Notes,
	}

	if err := h.linkRepo.Create(ctx, link); err != nil {
		if errors.Is(err, database.ErrLinkExists) {
			existing, findErr := h.findExisting(r, req.SourceID, link.Ref())
			if findErr != nil {
				respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load existing link")
				return
			}
			respondJSON(w, http.StatusOK, existing)
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create link")
		return
	}

	respondJSON(w, http.StatusCreated, link)
}

func (h *LinkHandler) findExisting(r *http.Request, sourceID uuid.UUID, ref models.ContentRef) (*models.SourceLink, error) {
	links, err := h.linkRepo.ListBySource(r.Context(), sourceID)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		if l.Ref() == ref {
			return l, nil
		}
	}
	return nil, errors.New("existing link not found")
}

// UpdateLink applies a partial update to a link's annotations
func (h *LinkHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid link ID")
		return
	}

	var req UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	ctx := r.Context()
	link, err := h.linkRepo.GetByID(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Link not found")
		return
	}

	if req.ContentTitle != nil {
		link.ContentTitle = validation.SanitizeText(*req.ContentTitle)
	}
	if req.Role != nil {
		link.Role = *req.Role
	}
	if req.KeyQuote != nil {
		link.KeyQuote = validation.SanitizeText(*req.KeyQuote)
	}
	if req.DateLinked != nil {
		link.DateLinked = req.DateLinked
	}
	if req.Notes != nil {
		link.Notes = *req.Notes
	}

	if err := h.linkRepo.Update(ctx, link); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update link")
		return
	}

	respondJSON(w, http.StatusOK, link)
}

// DeleteLink removes a citation link
func (h *LinkHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid link ID")
		return
	}

	if err := h.linkRepo.Delete(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete link")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// GetBacklinks computes the backlinks for one content piece from the
// live citation graph
func (h *LinkHandler) GetBacklinks(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ref := models.ContentRef{Type: models.ContentType(vars["type"]), Slug: vars["slug"]}
	if !ref.Type.Valid() {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid content type")
		return
	}

	links, err := h.linkRepo.ListAll(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load citation graph")
		return
	}

	respondJSON(w, http.StatusOK, backlink.BacklinksFor(links, ref))
}
