package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/query"
	"github.com/starford/almanac/internal/records"
	"github.com/starford/almanac/internal/versioning"
)

// Handler holds the note and people route handlers.
type Handler struct {
	svc *records.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *records.Service) *Handler {
	return &Handler{svc: svc}
}

// noteRequest is the body of PUT /notes/{id}. Absent fields are left unchanged.
type noteRequest struct {
	Title       *string   `json:"title"`
	Content     *string   `json:"content"`
	Category    *string   `json:"category"`
	NoteType    *string   `json:"note_type"`
	Tags        *[]string `json:"tags"`
	Attachments *[]string `json:"attachments"`
	SkillID     *string   `json:"skill_id"`
	ProjectID   *string   `json:"project_id"`
	EventID     *string   `json:"event_id"`
	TaskID      *string   `json:"task_id"`
	IsPinned    *bool     `json:"is_pinned"`
	IsFavorite  *bool     `json:"is_favorite"`
}

func (req noteRequest) changes() versioning.NoteChanges {
	return versioning.NoteChanges{
		Title:       req.Title,
		Content:     req.Content,
		Category:    req.Category,
		NoteType:    req.NoteType,
		Tags:        req.Tags,
		Attachments: req.Attachments,
		SkillID:     req.SkillID,
		ProjectID:   req.ProjectID,
		EventID:     req.EventID,
		TaskID:      req.TaskID,
		IsPinned:    req.IsPinned,
		IsFavorite:  req.IsFavorite,
	}
}

// ifMatch parses an If-Match header holding a note version, quoted or not.
// An absent header yields 0.
func ifMatch(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" {
		return 0, nil
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, apperr.Invalid("If-Match must be a note version")
	}
	return v, nil
}

func writeNote(w http.ResponseWriter, status int, n any, version int) {
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(version)))
	writeJSON(w, status, n)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, pinned first
//	@Tags			notes
//	@Produce		json
//	@Param			q			query		string	false	"Search title, content, category and tags"
//	@Param			category	query		string	false	"Filter by category"
//	@Param			note_type	query		string	false	"Filter by note type"
//	@Param			is_pinned	query		bool	false	"Only pinned notes"
//	@Param			is_favorite	query		bool	false	"Only favorite notes"
//	@Param			timeline	query		string	false	"Filter by updated_at window"
//	@Success		200			{object}	records.View
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	p, err := query.ParamsFromValues(query.Notes, r.URL.Query())
	if err != nil {
		writeError(w, "list notes", apperr.Validation(err))
		return
	}
	view, err := h.svc.Notes.List(r.Context(), UserID(r.Context()), p)
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a note with its linked skill, project, event and task
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	records.NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.NoteDetail(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeNote(w, http.StatusOK, d, d.Version)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note at version 1
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Note	true	"Note to create"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var draft models.Note
	if !decodeJSON(w, r, &draft) {
		return
	}
	n, err := h.svc.CreateNote(r.Context(), UserID(r.Context()), &draft)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeNote(w, http.StatusCreated, n, n.Version)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update a note, snapshotting the previous title and content
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string		true	"Note id"
//	@Param			If-Match	header		string		false	"Expected current version"
//	@Param			body		body		noteRequest	true	"Fields to change"
//	@Success		200			{object}	models.Note
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	expected, err := ifMatch(r)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	var req noteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ch := req.changes()
	ch.ExpectedVersion = expected
	n, err := h.svc.UpdateNote(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), ch)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	writeNote(w, http.StatusOK, n, n.Version)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note and its version history
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVersions handles GET /api/notes/{id}/versions.
//
//	@Summary		List a note's snapshots, newest first
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{array}		models.NoteVersion
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/versions [get]
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.svc.Versions.ListVersions(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "list versions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"versions": versions,
		"total":    len(versions),
	})
}

// RestoreVersion handles POST /api/notes/{id}/versions/{version}/restore.
//
//	@Summary		Restore a note's title and content from a snapshot
//	@Tags			notes
//	@Produce		json
//	@Param			id		path		string	true	"Note id"
//	@Param			version	path		int		true	"Snapshot version number"
//	@Success		200		{object}	models.Note
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/versions/{version}/restore [post]
func (h *Handler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || version < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody("version must be a positive integer"))
		return
	}
	n, err := h.svc.RestoreVersion(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), version)
	if err != nil {
		writeError(w, "restore version", err)
		return
	}
	writeNote(w, http.StatusOK, n, n.Version)
}

// RecordView handles POST /api/notes/{id}/view.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Versions.RecordView(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, "record view", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TogglePin handles POST /api/notes/{id}/pin.
func (h *Handler) TogglePin(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.TogglePin(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "toggle pin", err)
		return
	}
	writeNote(w, http.StatusOK, n, n.Version)
}

// ToggleFavorite handles POST /api/notes/{id}/favorite.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ToggleFavorite(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "toggle favorite", err)
		return
	}
	writeNote(w, http.StatusOK, n, n.Version)
}
