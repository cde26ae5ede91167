package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/publisher"
)

// PublishHandler exposes publish operations and the publish audit log.
// Every endpoint here commits to the external store; the audit entry is
// returned whether the commit succeeded or not.
type PublishHandler struct {
	publisher *publisher.Publisher
	logRepo   database.PublishLogRepositoryInterface
}

// NewPublishHandler creates a new publish handler
func NewPublishHandler(pub *publisher.Publisher, logRepo database.PublishLogRepositoryInterface) *PublishHandler {
	return &PublishHandler{publisher: pub, logRepo: logRepo}
}

// RegisterRoutes registers publish routes on the given router
func (h *PublishHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/content/{type}/{slug}", h.PublishContent).Methods("POST")
	r.HandleFunc("/content/{type}/{slug}", h.DeleteContent).Methods("DELETE")
	r.HandleFunc("/research", h.PublishResearch).Methods("POST")
	r.HandleFunc("/site", h.PublishSiteConfig).Methods("POST")
	r.HandleFunc("/now", h.PublishNowPage).Methods("POST")
	r.HandleFunc("/logs", h.ListLogs).Methods("GET")
	r.HandleFunc("/logs/last-success", h.LastSuccess).Methods("GET")
}

func contentRefFromPath(r *http.Request) (models.ContentRef, bool) {
	vars := mux.Vars(r)
	contentType := models.ContentType(vars["type"])
	if !contentType.Valid() || contentType == models.ContentTypeNow {
		return models.ContentRef{}, false
	}
	return models.ContentRef{Type: contentType, Slug: vars["slug"]}, true
}

// respondPublishResult maps a publish attempt onto HTTP: a failed store
// commit still produced an audit entry, so the entry rides along with
// the 502.
func respondPublishResult(w http.ResponseWriter, entry *models.PublishLog, err error) {
	if err != nil {
		if entry != nil {
			respondJSONErrorWithData(w, http.StatusBadGateway, "Bad Gateway", err.Error(), entry)
			return
		}
		respondJSONError(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// PublishContent commits one content piece to the store. With
// ?with_config=true the piece and site.json go out in one commit.
func (h *PublishHandler) PublishContent(w http.ResponseWriter, r *http.Request) {
	ref, ok := contentRefFromPath(r)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid content type")
		return
	}

	var entry *models.PublishLog
	var err error
	if r.URL.Query().Get("with_config") == "true" {
		entry, err = h.publisher.PublishContentWithConfig(r.Context(), ref)
	} else {
		entry, err = h.publisher.PublishContent(r.Context(), ref)
	}
	respondPublishResult(w, entry, err)
}

// DeleteContent removes a content piece from the store and then
// locally. Unpublished drafts are deleted locally without a commit and
// produce no audit entry.
func (h *PublishHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	ref, ok := contentRefFromPath(r)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid content type")
		return
	}

	entry, err := h.publisher.DeleteContent(r.Context(), ref)
	if err != nil {
		respondPublishResult(w, entry, err)
		return
	}
	if entry == nil {
		respondJSON(w, http.StatusOK, map[string]string{"slug": ref.Slug})
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// PublishResearch commits the whole public research corpus in one
// atomic commit.
func (h *PublishHandler) PublishResearch(w http.ResponseWriter, r *http.Request) {
	entry, err := h.publisher.PublishResearch(r.Context())
	respondPublishResult(w, entry, err)
}

// PublishSiteConfig commits site.json
func (h *PublishHandler) PublishSiteConfig(w http.ResponseWriter, r *http.Request) {
	entry, err := h.publisher.PublishSiteConfig(r.Context())
	respondPublishResult(w, entry, err)
}

// PublishNowPage commits the now page
func (h *PublishHandler) PublishNowPage(w http.ResponseWriter, r *http.Request) {
	entry, err := h.publisher.PublishNowPage(r.Context())
	respondPublishResult(w, entry, err)
}

// ListLogs lists audit entries, newest first, optionally filtered by
// data_type and success, capped by limit (default 50).
func (h *PublishHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var dataType *models.PublishDataType
	if dt := q.Get("data_type"); dt != "" {
		v := models.PublishDataType(dt)
		dataType = &v
	}

	var success *bool
	if s := q.Get("success"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid success filter")
			return
		}
		success = &v
	}

	limit := 50
	if l := q.Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v < 1 || v > 500 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Limit must be between 1 and 500")
			return
		}
		limit = v
	}

	entries, err := h.logRepo.List(r.Context(), dataType, success, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list publish logs")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// LastSuccess returns the newest successful entry for a data type
func (h *PublishHandler) LastSuccess(w http.ResponseWriter, r *http.Request) {
	dt := r.URL.Query().Get("data_type")
	if dt == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "data_type is required")
		return
	}

	entry, err := h.logRepo.LastSuccess(r.Context(), models.PublishDataType(dt))
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load publish log")
		return
	}
	if entry == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "No successful publish recorded")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}
