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

// ContentHandler handles the local content store: essays, field notes,
// and projects. These carry a draft flag that only the publisher flips.
type ContentHandler struct {
	essayRepo     *database.EssayRepository
	fieldNoteRepo *database.FieldNoteRepository
	projectRepo   *database.ProjectRepository
}

// NewContentHandler creates a new content handler
func NewContentHandler(essayRepo *database.EssayRepository, fieldNoteRepo *database.FieldNoteRepository, projectRepo *database.ProjectRepository) *ContentHandler {
	return &ContentHandler{
		essayRepo:     essayRepo,
		fieldNoteRepo: fieldNoteRepo,
		projectRepo:   projectRepo,
	}
}

// RegisterRoutes registers content routes on the given router.
// The router should already have the /content prefix.
func (h *ContentHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/essays", h.ListEssays).Methods("GET")
	r.HandleFunc("/essays", h.CreateEssay).Methods("POST")
	r.HandleFunc("/essays/{slug}", h.GetEssay).Methods("GET")
	r.HandleFunc("/essays/{slug}", h.UpdateEssay).Methods("PATCH")
	r.HandleFunc("/essays/{slug}", h.DeleteEssay).Methods("DELETE")

	r.HandleFunc("/field-notes", h.ListFieldNotes).Methods("GET")
	r.HandleFunc("/field-notes", h.CreateFieldNote).Methods("POST")
	r.HandleFunc("/field-notes/{slug}", h.GetFieldNote).Methods("GET")
	r.HandleFunc("/field-notes/{slug}", h.UpdateFieldNote).Methods("PATCH")
	r.HandleFunc("/field-notes/{slug}", h.DeleteFieldNote).Methods("DELETE")

	r.HandleFunc("/projects", h.ListProjects).Methods("GET")
	r.HandleFunc("/projects", h.CreateProject).Methods("POST")
	r.HandleFunc("/projects/{slug}", h.GetProject).Methods("GET")
	r.HandleFunc("/projects/{slug}", h.UpdateProject).Methods("PATCH")
	r.HandleFunc("/projects/{slug}", h.DeleteProject).Methods("DELETE")
}

func draftFilter(r *http.Request) *bool {
	if d := r.URL.Query().Get("draft"); d != "" {
		val := d == "true"
		return &val
	}
	return nil
}

// EssayRequest represents a create or update essay request
type EssayRequest struct {
	Title         string     `json:"title" validate:"required,min=1,max=500"`
	Slug          string     `json:"slug" validate:"required,min=1,max=200"`
	Subtitle      string     `json:"subtitle" validate:"max=500"`
	Summary       string     `json:"summary" validate:"max=5000"`
	Body          string     `json:"body"`
	Tags          []string   `json:"tags"`
	HeroImage     string     `json:"hero_image" validate:"max=2000"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
}

// ListEssays lists essays, optionally filtered by draft state
func (h *ContentHandler) ListEssays(w http.ResponseWriter, r *http.Request) {
	essays, err := h.essayRepo.List(r.Context(), draftFilter(r))
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list essays")
		return
	}
	respondJSON(w, http.StatusOK, essays)
}

// CreateEssay creates an essay. New essays always start as drafts; only
// a confirmed publish clears the flag.
func (h *ContentHandler) CreateEssay(w http.ResponseWriter, r *http.Request) {
	var req EssayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	essay := &models.Essay{
		ID:            uuid.New(),
		Title:         validation.SanitizeText(req.Title),
		Slug:          req.Slug,
		Subtitle:      validation.SanitizeText(req.Subtitle),
		Summary:       validation.SanitizeText(req.Summary),
		Body:          req.Body,
		Tags:          req.Tags,
		HeroImage:     req.HeroImage,
		Draft:         true,
		PublishedDate: req.PublishedDate,
	}

	if err := h.essayRepo.Create(r.Context(), essay); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create essay")
		return
	}
	respondJSON(w, http.StatusCreated, essay)
}

// GetEssay fetches one essay by slug
func (h *ContentHandler) GetEssay(w http.ResponseWriter, r *http.Request) {
	essay, err := h.essayRepo.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Essay not found")
		return
	}
	respondJSON(w, http.StatusOK, essay)
}

// UpdateEssay replaces an essay's editable fields. Editing never touches
// the draft flag.
func (h *ContentHandler) UpdateEssay(w http.ResponseWriter, r *http.Request) {
	var req EssayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	ctx := r.Context()
	essay, err := h.essayRepo.GetBySlug(ctx, mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Essay not found")
		return
	}

	essay.Title = validation.SanitizeText(req.Title)
	essay.Subtitle = validation.SanitizeText(req.Subtitle)
	essay.Summary = validation.SanitizeText(req.Summary)
	essay.Body = req.Body
	essay.Tags = req.Tags
	essay.HeroImage = req.HeroImage
	essay.PublishedDate = req.PublishedDate

	if err := h.essayRepo.Update(ctx, essay); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update essay")
		return
	}
	respondJSON(w, http.StatusOK, essay)
}

// DeleteEssay removes an essay from the local store only. Published
// copies are removed through the publish delete operation.
func (h *ContentHandler) DeleteEssay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	essay, err := h.essayRepo.GetBySlug(ctx, mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Essay not found")
		return
	}
	if !essay.Draft {
		respondJSONError(w, http.StatusConflict, "Conflict", "Essay is published; delete it through the publisher")
		return
	}
	if err := h.essayRepo.Delete(ctx, essay.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete essay")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"slug": essay.Slug})
}

// FieldNoteRequest represents a create or update field note request
type FieldNoteRequest struct {
	Title     string           `json:"title" validate:"required,min=1,max=500"`
	Slug      string           `json:"slug" validate:"required,min=1,max=200"`
	Summary   string           `json:"summary" validate:"max=5000"`
	Body      string           `json:"body"`
	Tags      []string         `json:"tags"`
	Location  *models.Location `json:"location,omitempty"`
	NotedDate *time.Time       `json:"noted_date,omitempty"`
}

// ListFieldNotes lists field notes, optionally filtered by draft state
func (h *ContentHandler) ListFieldNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.fieldNoteRepo.List(r.Context(), draftFilter(r))
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list field notes")
		return
	}
	respondJSON(w, http.StatusOK, notes)
}

// CreateFieldNote creates a field note as a draft
func (h *ContentHandler) CreateFieldNote(w http.ResponseWriter, r *http.Request) {
	var req FieldNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	note := &models.FieldNote{
		ID:        uuid.New(),
		Title:     validation.SanitizeText(req.Title),
		Slug:      req.Slug,
		Summary:   validation.SanitizeText(req.Summary),
		Body:      req.Body,
		Tags:      req.Tags,
		Location:  req.Location,
		Draft:     true,
		NotedDate: req.NotedDate,
	}

	if err := h.fieldNoteRepo.Create(r.Context(), note); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create field note")
		return
	}
	respondJSON(w, http.StatusCreated, note)
}

// GetFieldNote fetches one field note by slug
func (h *ContentHandler) GetFieldNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.fieldNoteRepo.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Field note not found")
		return
	}
	respondJSON(w, http.StatusOK, note)
}

// UpdateFieldNote replaces a field note's editable fields
func (h *ContentHandler) UpdateFieldNote(w http.ResponseWriter, r *http.Request) {
	var req FieldNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	ctx := r.Context()
	note, err := h.fieldNoteRepo.GetBySlug(ctx, mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Field note not found")
		return
	}

	note.Title = validation.SanitizeText(req.Title)
	note.Summary = validation.SanitizeText(req.Summary)
	note.Body = req.Body
	note.Tags = req.Tags
	note.Location = req.Location
	note.NotedDate = req.NotedDate

	if err := h.fieldNoteRepo.Update(ctx, note); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update field note")
		return
	}
	respondJSON(w, http.StatusOK, note)
}

// DeleteFieldNote removes a draft field note from the local store
func (h *ContentHandler) DeleteFieldNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	note, err := h.fieldNoteRepo.GetBySlug(ctx, mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Field note not found")
		return
	}
	if !note.Draft {
		respondJSONError(w, http.StatusConflict, "Conflict", "Field note is published; delete it through the publisher")
		return
	}
	if err := h.fieldNoteRepo.Delete(ctx, note.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete field note")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"slug": note.Slug})
}

// ProjectRequest represents a create or update project request
type ProjectRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=500"`
	Slug        string     `json:"slug" validate:"required,min=1,max=200"`
	Summary     string     `json:"summary" validate:"max=5000"`
	Body        string     `json:"body"`
	Tags        []string   `json:"tags"`
	Status      string     `json:"status" validate:"max=100"`
	URL         string     `json:"url" validate:"omitempty,max=2000"`
	StartedDate *time.Time `json:"started_date,omitempty"`
}

// ListProjects lists projects, optionally filtered by draft state
func (h *ContentHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectRepo.List(r.Context(), draftFilter(r))
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list projects")
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

// CreateProject creates a project as a draft
func (h *ContentHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	project := &models.Project{
		ID:          uuid.New(),
		Title:       validation.SanitizeText(req.Title),
		Slug:        req.Slug,
		Summary:     validation.SanitizeText(req.Summary),
		Body:        req.Body,
		Tags:        req.Tags,
		Status:      req.Status,
		URL:         req.URL,
		Draft:       true,
		StartedDate: req.StartedDate,
	}

	if err := h.projectRepo.Create(r.Context(), project); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create project")
		return
	}
	respondJSON(w, http.StatusCreated, project)
}

// GetProject fetches one project by slug
func (h *ContentHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.projectRepo.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Project not found")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// UpdateProject replaces a project's editable fields
func (h *ContentHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return
	}

	ctx := r.Context()
	project, err := h.projectRepo.GetBySlug(ctx, mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Project not found")
		return
	}

	project.Title = validation.SanitizeText(req.Title)
	project.Summary = validation.SanitizeText(req.Summary)
	project.Body = req.Body
	project.Tags = req.Tags
	project.Status = req.Status
	project.URL = req.URL
	project.StartedDate = req.StartedDate

	if err := h.projectRepo.Update(ctx, project); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update project")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// DeleteProject removes a draft project from the local store
func (h *ContentHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project, err := h.projectRepo.GetBySlug(ctx, mux.Vars(r)["slug"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Project not found")
		return
	}
	if !project.Draft {
		respondJSONError(w, http.StatusConflict, "Conflict", "Project is published; delete it through the publisher")
		return
	}
	if err := h.projectRepo.Delete(ctx, project.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete project")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"slug": project.Slug})
}
