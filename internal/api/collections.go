package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/query"
	"github.com/starford/almanac/internal/records"
)

// collectionHandler serves CRUD and filtered list views for one record type.
type collectionHandler[T models.Record] struct {
	c     *records.Collection[T]
	alloc func() T
	// detail, when set, replaces the plain record on GET /{id}.
	detail func(ctx context.Context, userID, id string) (any, error)
}

// mountCollection registers the five collection routes under /<entity>.
func mountCollection[T models.Record](r chi.Router, h *collectionHandler[T]) {
	base := "/" + h.c.Entity()
	r.Get(base, h.list)
	r.Post(base, h.create)
	r.Get(base+"/{id}", h.get)
	r.Put(base+"/{id}", h.update)
	r.Delete(base+"/{id}", h.remove)
}

// list handles GET /<entity>.
//
//	@Summary		List records with search, enum, flag and timeline filters
//	@Param			q			query		string	false	"Case-insensitive search"
//	@Param			timeline	query		string	false	"all, today, week, month, year, overdue"
//	@Success		200			{object}	records.View
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
func (h *collectionHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	p, err := query.ParamsFromValues(h.c.Schema(), r.URL.Query())
	if err != nil {
		writeError(w, "list "+h.c.Entity(), apperr.Validation(err))
		return
	}
	view, err := h.c.List(r.Context(), UserID(r.Context()), p)
	if err != nil {
		writeError(w, "list "+h.c.Entity(), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// get handles GET /<entity>/{id}.
func (h *collectionHandler[T]) get(w http.ResponseWriter, r *http.Request) {
	userID, id := UserID(r.Context()), chi.URLParam(r, "id")
	var (
		out any
		err error
	)
	if h.detail != nil {
		out, err = h.detail(r.Context(), userID, id)
	} else {
		out, err = h.c.Get(r.Context(), userID, id)
	}
	if err != nil {
		writeError(w, "get "+h.c.Entity(), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// create handles POST /<entity>.
//
//	@Success		201		{object}	models.Record
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
func (h *collectionHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	rec := h.alloc()
	if !decodeJSON(w, r, rec) {
		return
	}
	out, err := h.c.Create(r.Context(), UserID(r.Context()), rec)
	if err != nil {
		writeError(w, "create "+h.c.Entity(), err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// update handles PUT /<entity>/{id}. The body replaces every mutable field.
func (h *collectionHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	rec := h.alloc()
	if !decodeJSON(w, r, rec) {
		return
	}
	out, err := h.c.Update(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), rec)
	if err != nil {
		writeError(w, "update "+h.c.Entity(), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// remove handles DELETE /<entity>/{id}.
func (h *collectionHandler[T]) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.c.Delete(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete "+h.c.Entity(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
