// Package versioning owns the Note lifecycle: every content update appends an
// immutable snapshot of the superseded state before the note is overwritten.
package versioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/checksum"
	"github.com/starford/almanac/internal/models"
)

// NoteStore is the persistence the engine needs. *store.NoteRepo satisfies it.
type NoteStore interface {
	Get(ctx context.Context, userID, id string) (*models.Note, error)
	List(ctx context.Context, userID string) ([]*models.Note, error)
	Insert(ctx context.Context, n *models.Note) error
	Update(ctx context.Context, n *models.Note) error
	Delete(ctx context.Context, userID, id string) error
	InsertVersion(ctx context.Context, v *models.NoteVersion) error
	ListVersions(ctx context.Context, noteID string) ([]models.NoteVersion, error)
	IncrementViews(ctx context.Context, userID, id string) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for recorded inconsistencies.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine coordinates note writes and their version history.
type Engine struct {
	store NoteStore
	now   func() time.Time
	log   *slog.Logger
}

// New creates an engine over store.
func New(store NoteStore, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		log:   slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// NoteChanges is a partial update; nil fields are left unchanged.
// ExpectedVersion, when non-zero, must equal the stored version or the update
// is rejected with ErrConflict.
type NoteChanges struct {
	Title       *string
	Content     *string
	Category    *string
	NoteType    *string
	Tags        *[]string
	Attachments *[]string
	SkillID     *string
	ProjectID   *string
	EventID     *string
	TaskID      *string
	IsPinned    *bool
	IsFavorite  *bool

	ExpectedVersion int
}

func (c NoteChanges) apply(n *models.Note) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setStr(&n.Title, c.Title)
	setStr(&n.Content, c.Content)
	setStr(&n.Category, c.Category)
	setStr(&n.NoteType, c.NoteType)
	setStr(&n.SkillID, c.SkillID)
	setStr(&n.ProjectID, c.ProjectID)
	setStr(&n.EventID, c.EventID)
	setStr(&n.TaskID, c.TaskID)
	if c.Tags != nil {
		n.Tags = append([]string(nil), (*c.Tags)...)
	}
	if c.Attachments != nil {
		n.Attachments = append([]string(nil), (*c.Attachments)...)
	}
	if c.IsPinned != nil {
		n.IsPinned = *c.IsPinned
	}
	if c.IsFavorite != nil {
		n.IsFavorite = *c.IsFavorite
	}
}

// CreateNote stores draft as version 1 owned by userID. No snapshot is written.
func (e *Engine) CreateNote(ctx context.Context, userID string, draft *models.Note) (*models.Note, error) {
	now := e.now()
	n := *draft
	n.Meta = models.Meta{ID: uuid.NewString(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	n.Version = 1
	n.ViewCount = 0
	if err := n.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	if err := e.store.Insert(ctx, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNote returns one note.
func (e *Engine) GetNote(ctx context.Context, userID, noteID string) (*models.Note, error) {
	return e.store.Get(ctx, userID, noteID)
}

// ListNotes returns every note owned by userID.
func (e *Engine) ListNotes(ctx context.Context, userID string) ([]*models.Note, error) {
	return e.store.List(ctx, userID)
}

// UpdateNote snapshots the current title and content, then applies changes
// and advances the version by one.
//
// The snapshot is written before the overwrite. If the snapshot write fails
// the note is left untouched. If the overwrite fails after the snapshot was
// written, the snapshot is left in place and the failure is reported as a
// store failure; readers tolerate a snapshot whose version_number equals the
// note's current version.
func (e *Engine) UpdateNote(ctx context.Context, userID, noteID string, ch NoteChanges) (*models.Note, error) {
	cur, err := e.store.Get(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	if ch.ExpectedVersion != 0 && ch.ExpectedVersion != cur.Version {
		return nil, fmt.Errorf("note %s at version %d, expected %d: %w",
			noteID, cur.Version, ch.ExpectedVersion, apperr.ErrConflict)
	}

	now := e.now()
	next := *cur
	ch.apply(&next)
	next.Version = cur.Version + 1
	next.Touch(now)
	if err := next.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	snap := &models.NoteVersion{
		ID:            uuid.NewString(),
		NoteID:        cur.ID,
		VersionNumber: cur.Version,
		Title:         cur.Title,
		Content:       cur.Content,
		ContentHash:   checksum.String(cur.Content),
		CreatedAt:     now,
	}
	if err := e.store.InsertVersion(ctx, snap); err != nil {
		return nil, fmt.Errorf("snapshot note %s: %w", noteID, err)
	}

	if err := e.store.Update(ctx, &next); err != nil {
		e.log.Warn("versioning: dangling snapshot",
			slog.String("note_id", noteID),
			slog.Int("version_number", snap.VersionNumber),
			slog.String("error", err.Error()))
		if !errors.Is(err, apperr.ErrStoreFailure) {
			err = apperr.Store("notes.update", err)
		}
		return nil, err
	}
	return &next, nil
}

// RestoreVersion copies a snapshot's title and content back onto the note.
// It is an ordinary update, so the current state is snapshotted first.
func (e *Engine) RestoreVersion(ctx context.Context, userID, noteID string, versionNumber int) (*models.Note, error) {
	cur, err := e.store.Get(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	versions, err := e.store.ListVersions(ctx, cur.ID)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if v.VersionNumber == versionNumber {
			return e.UpdateNote(ctx, userID, noteID, NoteChanges{
				Title:           &v.Title,
				Content:         &v.Content,
				ExpectedVersion: cur.Version,
			})
		}
	}
	return nil, fmt.Errorf("note %s version %d: %w", noteID, versionNumber, apperr.ErrNotFound)
}

// DeleteNote removes the note and its entire history.
func (e *Engine) DeleteNote(ctx context.Context, userID, noteID string) error {
	return e.store.Delete(ctx, userID, noteID)
}

// ListVersions returns the snapshots of a note, newest first. A missing or
// foreign note yields ErrNotFound.
func (e *Engine) ListVersions(ctx context.Context, userID, noteID string) ([]models.NoteVersion, error) {
	if _, err := e.store.Get(ctx, userID, noteID); err != nil {
		return nil, err
	}
	return e.store.ListVersions(ctx, noteID)
}

// RecordView counts one view. Every call counts; version and updated_at are
// left alone.
func (e *Engine) RecordView(ctx context.Context, userID, noteID string) error {
	return e.store.IncrementViews(ctx, userID, noteID)
}

// TogglePin flips is_pinned without creating a version.
func (e *Engine) TogglePin(ctx context.Context, userID, noteID string) (*models.Note, error) {
	return e.toggle(ctx, userID, noteID, func(n *models.Note) { n.IsPinned = !n.IsPinned })
}

// ToggleFavorite flips is_favorite without creating a version.
func (e *Engine) ToggleFavorite(ctx context.Context, userID, noteID string) (*models.Note, error) {
	return e.toggle(ctx, userID, noteID, func(n *models.Note) { n.IsFavorite = !n.IsFavorite })
}

func (e *Engine) toggle(ctx context.Context, userID, noteID string, flip func(*models.Note)) (*models.Note, error) {
	n, err := e.store.Get(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	flip(n)
	n.Touch(e.now())
	if err := e.store.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}
