package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/records"
	"github.com/starford/almanac/internal/sse"
	"github.com/starford/almanac/internal/storage"
)

// Deps are the collaborators the API routes need. Broker and Limiter are optional.
type Deps struct {
	Service *records.Service
	Files   storage.Provider
	Broker  *sse.Broker
	Limiter *RateLimiter
	Auth    Auth
}

// NewRouter creates a chi router with all API routes mounted. Every route
// requires an authenticated user; mutations are rate limited per user.
func NewRouter(d Deps) chi.Router {
	svc := d.Service
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(d.Auth))
	r.Use(d.Limiter.Middleware)

	// People import/export before the generic /people/{id} routes.
	r.Get("/people/export", h.ExportPeople)
	r.Post("/people/import", h.ImportPeople)

	mountCollection(r, &collectionHandler[*models.Person]{c: svc.People, alloc: func() *models.Person { return &models.Person{} }})
	mountCollection(r, &collectionHandler[*models.Skill]{c: svc.Skills, alloc: func() *models.Skill { return &models.Skill{} }})
	mountCollection(r, &collectionHandler[*models.Project]{c: svc.Projects, alloc: func() *models.Project { return &models.Project{} }})
	mountCollection(r, &collectionHandler[*models.Event]{c: svc.Events, alloc: func() *models.Event { return &models.Event{} }})
	mountCollection(r, &collectionHandler[*models.Task]{
		c:     svc.Tasks,
		alloc: func() *models.Task { return &models.Task{} },
		detail: func(ctx context.Context, userID, id string) (any, error) {
			return svc.TaskDetail(ctx, userID, id)
		},
	})

	// Notes go through the versioning engine.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Get("/notes/{id}/versions", h.ListVersions)
	r.Post("/notes/{id}/versions/{version}/restore", h.RestoreVersion)
	r.Post("/notes/{id}/view", h.RecordView)
	r.Post("/notes/{id}/pin", h.TogglePin)
	r.Post("/notes/{id}/favorite", h.ToggleFavorite)

	if d.Files != nil {
		r.Post("/attachments", NewAttachmentHandler(d.Files).Upload)
	}

	// Change stream for the authenticated user.
	if d.Broker != nil {
		r.Get("/events/stream", func(w http.ResponseWriter, r *http.Request) {
			d.Broker.Serve(w, r, UserID(r.Context()))
		})
	}

	return r
}
