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

// ThreadHandler handles research thread requests
type ThreadHandler struct {
	threadRepo database.ThreadRepositoryInterface
}

// NewThreadHandler creates a new thread handler
func NewThreadHandler(threadRepo database.ThreadRepositoryInterface) *ThreadHandler {
	return &ThreadHandler{threadRepo: threadRepo}
}

// RegisterRoutes registers thread routes on the given router.
// The router should already have the /threads prefix.
func (h *ThreadHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListThreads).Methods("GET")
	r.HandleFunc("", h.CreateThread).Methods("POST")
	r.HandleFunc("/{key}", h.GetThread).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateThread).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteThread).Methods("DELETE")
	r.HandleFunc("/{id}/entries", h.AddEntry).Methods("POST")
	r.HandleFunc("/{id}/entries/{entryID}", h.UpdateEntry).Methods("PATCH")
	r.HandleFunc("/{id}/entries/{entryID}", h.DeleteEntry).Methods("DELETE")
}

// CreateThreadRequest represents a create thread request
type CreateThreadRequest struct {
	Title       string              `json:"title" validate:"required,min=1,max=500"`
	Slug        string              `json:"slug" validate:"required,min=1,max=200"`
	Description string              `json:"description" validate:"max=20000"`
	Status      models.ThreadStatus `json:"status" validate:"omitempty,thread_status"`
	StartedDate *time.Time          `json:"started_date,omitempty"`
	Tags        []string            `json:"tags"`
	Public      bool                `json:"public"`
}

// UpdateThreadRequest represents an update thread request
type UpdateThreadRequest struct {
	Title              *string              `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Description        *string              `json:"description,omitempty" validate:"omitempty,max=20000"`
	Status             *models.ThreadStatus `json:"status,omitempty" validate:"omitempty,thread_status"`
	StartedDate        *time.Time           `json:"started_date,omitempty"`
	CompletedDate      *time.Time           `json:"completed_date,omitempty"`
	ResultingEssaySlug *string              `json:"resulting_essay_slug,omitempty"`
	Tags               []string             `json:"tags,omitempty"`
	Public             *bool                `json:"public,omitempty"`
}

// EntryRequest represents an add or update thread entry request
type EntryRequest struct {
	EntryType     models.EntryType `json:"entry_type"`
	Date          *time.Time       `json:"date,omitempty"`
	Order         int              `json:"order"`
	Title         string           `json:"title" validate:"max=500"`
	Description   string           `json:"description" validate:"max=20000"`
	SourceID      *uuid.UUID       `json:"source_id,omitempty"`
	FieldNoteSlug string           `json:"field_note_slug" validate:"max=200"`
}

// ListThreads lists threads with optional status and visibility filters
func (h *ThreadHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var status *models.ThreadStatus
	if s := r.URL.Query().Get("status"); s != "" {
		if err := validation.ValidateThreadStatus(s); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		sEnum := models.ThreadStatus(s)
		status = &sEnum
	}

	var public *bool
	if p := r.URL.Query().Get("public"); p != "" {
		val := p == "true"
		public = &val
	}

	threads, err := h.threadRepo.List(ctx, status, public)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list threads")
		return
	}

	respondJSON(w, http.StatusOK, threads)
}

// CreateThread creates a new research thread
func (h *ThreadHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	var req CreateThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	status := req.Status
	if status == "" {
		status = models.ThreadStatusActive
	}

	thread := &models.ResearchThread{
		ID:          uuid.New(),
		Title:       validation.SanitizeText(req.Title),
		Slug:        req.Slug,
		Description: req.Description,
		Status:      status,
		StartedDate: req.StartedDate,
		Tags:        req.Tags,
		Public:      req.Public,
		Entries:     []models.ThreadEntry{},
	}

	if err := h.threadRepo.Create(r.Context(), thread); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create thread")
		return
	}

	respondJSON(w, http.StatusCreated, thread)
}

// GetThread fetches a thread with its entries by ID or slug
func (h *ThreadHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	ctx := r.Context()

	var thread *models.ResearchThread
	var err error
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		thread, err = h.threadRepo.GetByID(ctx, id)
	} else {
		thread, err = h.threadRepo.GetBySlug(ctx, key)
	}
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Thread not found")
		return
	}

	respondJSON(w, http.StatusOK, thread)
}

// UpdateThread applies a partial update to a thread
func (h *ThreadHandler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid thread ID")
		return
	}

	var req UpdateThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	ctx := r.Context()
	thread, err := h.threadRepo.GetByID(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Thread not found")
		return
	}

	if req.Title != nil {
		thread.Title = validation.SanitizeText(*req.Title)
	}
	if req.Description != nil {
		thread.Description = *req.Description
	}
	if req.Status != nil {
		thread.Status = *req.Status
	}
	if req.StartedDate != nil {
		thread.StartedDate = req.StartedDate
	}
	if req.CompletedDate != nil {
		thread.CompletedDate = req.CompletedDate
	}
	if req.ResultingEssaySlug != nil {
		thread.ResultingEssaySlug = *req.ResultingEssaySlug
	}
	if req.Tags != nil {
		thread.Tags = req.Tags
	}
	if req.Public != nil {
		thread.Public = *req.Public
	}

	if err := h.threadRepo.Update(ctx, thread); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update thread")
		return
	}

	respondJSON(w, http.StatusOK, thread)
}

// DeleteThread removes a thread and its entries
func (h *ThreadHandler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid thread ID")
		return
	}

	if err := h.threadRepo.Delete(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete thread")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// AddEntry appends an entry to a thread
func (h *ThreadHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	threadID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid thread ID")
		return
	}

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	ctx := r.Context()
	if _, err := h.threadRepo.GetByID(ctx, threadID); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Thread not found")
		return
	}

	entryType := req.EntryType
	if entryType == "" {
		entryType = models.EntryTypeNote
	}
	date := time.Now().UTC()
	if req.Date != nil {
		date = *req.Date
	}

	entry := &models.ThreadEntry{
		ID:            uuid.New(),
		ThreadID:      threadID,
		EntryType:     entryType,
		Date:          date,
		Order:         req.Order,
		Title:         validation.SanitizeText(req.Title),
		Description:   req.Description,
		SourceID:      req.SourceID,
		FieldNoteSlug: req.FieldNoteSlug,
	}

	if err := h.threadRepo.AddEntry(ctx, entry); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to add entry")
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// UpdateEntry replaces an entry's fields
func (h *ThreadHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	threadID, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid thread ID")
		return
	}
	entryID, err := uuid.Parse(vars["entryID"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid entry ID")
		return
	}

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	entryType := req.EntryType
	if entryType == "" {
		entryType = models.EntryTypeNote
	}
	date := time.Now().UTC()
	if req.Date != nil {
		date = *req.Date
	}

	entry := &models.ThreadEntry{
		ID:            entryID,
		ThreadID:      threadID,
		EntryType:     entryType,
		Date:          date,
		Order:         req.Order,
		Title:         validation.SanitizeText(req.Title),
		Description:   req.Description,
		SourceID:      req.SourceID,
		FieldNoteSlug: req.FieldNoteSlug,
	}

	if err := h.threadRepo.UpdateEntry(r.Context(), entry); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update entry")
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

// DeleteEntry removes an entry from a thread
func (h *ThreadHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(mux.Vars(r)["entryID"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid entry ID")
		return
	}

	if err := h.threadRepo.DeleteEntry(r.Context(), entryID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete entry")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": entryID.String()})
}
