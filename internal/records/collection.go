// Package records serves the owner-scoped collections: CRUD through the store,
// list views through the query engine, and change notifications.
package records

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/query"
	"github.com/starford/almanac/internal/store"
)

// Change kinds reported to a Publisher.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// Publisher receives one call per successful mutation.
type Publisher interface {
	PublishRecordEvent(userID, entity, kind, id string)
}

type nopPublisher struct{}

func (nopPublisher) PublishRecordEvent(string, string, string, string) {}

// View is a filtered, ordered list plus aggregates over the full collection.
type View[T any] struct {
	Items   []T                 `json:"items"`
	Total   int                 `json:"total"`
	Stats   any                 `json:"stats"`
	Options map[string][]string `json:"options"`
}

// Collection binds one record type to its repository and query schema.
type Collection[T models.Record] struct {
	repo    store.Repository[T]
	schema  *query.Schema[T]
	stats   func([]T, time.Time) any
	prepare func(T)
	svc     *Service
}

// Entity returns the collection name used in routes and events.
func (c *Collection[T]) Entity() string { return c.schema.Entity }

// Schema returns the query schema for this collection.
func (c *Collection[T]) Schema() *query.Schema[T] { return c.schema }

// Create assigns identity and timestamps, validates, and stores rec.
func (c *Collection[T]) Create(ctx context.Context, userID string, rec T) (T, error) {
	now := c.svc.now().UTC()
	*rec.Base() = models.Meta{ID: uuid.NewString(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	if c.prepare != nil {
		c.prepare(rec)
	}
	if err := rec.Validate(); err != nil {
		var zero T
		return zero, apperr.Validation(err)
	}
	if err := c.repo.Insert(ctx, rec); err != nil {
		var zero T
		return zero, err
	}
	c.svc.pub.PublishRecordEvent(userID, c.Entity(), Created, rec.Base().ID)
	return rec, nil
}

// Update replaces every mutable field of the record with id. Identity,
// ownership and created_at are kept from the stored record.
func (c *Collection[T]) Update(ctx context.Context, userID, id string, rec T) (T, error) {
	var zero T
	existing, err := c.repo.Get(ctx, userID, id)
	if err != nil {
		return zero, err
	}
	m := rec.Base()
	m.ID = id
	m.UserID = userID
	m.CreatedAt = existing.Base().CreatedAt
	m.Touch(c.svc.now().UTC())
	if c.prepare != nil {
		c.prepare(rec)
	}
	if err := rec.Validate(); err != nil {
		return zero, apperr.Validation(err)
	}
	if err := c.repo.Update(ctx, rec); err != nil {
		return zero, err
	}
	c.svc.pub.PublishRecordEvent(userID, c.Entity(), Updated, id)
	return rec, nil
}

func (c *Collection[T]) Get(ctx context.Context, userID, id string) (T, error) {
	return c.repo.Get(ctx, userID, id)
}

func (c *Collection[T]) Delete(ctx context.Context, userID, id string) error {
	if err := c.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	c.svc.pub.PublishRecordEvent(userID, c.Entity(), Deleted, id)
	return nil
}

// All returns the user's full collection in default order.
func (c *Collection[T]) All(ctx context.Context, userID string) ([]T, error) {
	items, err := c.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return query.Sort(items, c.schema), nil
}

// List fetches the full collection, orders it, filters it by p, and computes
// stats and filter options over the unfiltered set.
func (c *Collection[T]) List(ctx context.Context, userID string, p query.Params) (*View[T], error) {
	all, err := c.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := c.svc.now()
	preds, err := c.schema.Predicates(p, now)
	if err != nil {
		return nil, apperr.Validation(err)
	}
	items := query.Filter(all, preds...)
	return &View[T]{
		Items:   items,
		Total:   len(items),
		Stats:   c.stats(all, now),
		Options: query.Options(all, c.schema),
	}, nil
}
