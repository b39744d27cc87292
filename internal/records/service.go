package records

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/query"
	"github.com/starford/almanac/internal/store"
	"github.com/starford/almanac/internal/versioning"
)

// Option configures a Service.
type Option func(*Service)

// WithPublisher routes change notifications to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithClock overrides the time source used for timestamps and timelines.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger handed to the versioning engine.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// Service groups every collection a user owns.
type Service struct {
	People   *Collection[*models.Person]
	Skills   *Collection[*models.Skill]
	Projects *Collection[*models.Project]
	Events   *Collection[*models.Event]
	Tasks    *Collection[*models.Task]

	// Notes is read-only here; writes go through Versions.
	Notes    *Collection[*models.Note]
	Versions *versioning.Engine

	pub Publisher
	now func() time.Time
	log *slog.Logger
}

// NewService wires collections over db.
func NewService(db *store.DB, opts ...Option) *Service {
	s := &Service{
		pub: nopPublisher{},
		now: time.Now,
		log: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}

	s.People = &Collection[*models.Person]{
		repo: db.People(), schema: query.People, svc: s,
		stats: func(items []*models.Person, _ time.Time) any { return query.ComputePeopleStats(items) },
	}
	s.Skills = &Collection[*models.Skill]{
		repo: db.Skills(), schema: query.Skills, svc: s,
		stats: func(items []*models.Skill, _ time.Time) any { return query.ComputeSkillStats(items) },
	}
	s.Projects = &Collection[*models.Project]{
		repo: db.Projects(), schema: query.Projects, svc: s,
		stats: func(items []*models.Project, _ time.Time) any { return query.ComputeProjectStats(items) },
	}
	s.Events = &Collection[*models.Event]{
		repo: db.Events(), schema: query.Events, svc: s,
		stats: func(items []*models.Event, now time.Time) any { return query.ComputeEventStats(items, now) },
	}
	s.Tasks = &Collection[*models.Task]{
		repo: db.Tasks(), schema: query.Tasks, svc: s,
		stats:   func(items []*models.Task, now time.Time) any { return query.ComputeTaskStats(items, now) },
		prepare: orderSubtasks,
	}
	s.Notes = &Collection[*models.Note]{
		repo: db.Notes(), schema: query.Notes, svc: s,
		stats: func(items []*models.Note, _ time.Time) any { return query.ComputeNoteStats(items) },
	}
	s.Versions = versioning.New(db.Notes(),
		versioning.WithClock(func() time.Time { return s.now().UTC() }),
		versioning.WithLogger(s.log))
	return s
}

// Publish forwards a change notification, for writers outside a Collection.
func (s *Service) Publish(userID, entity, kind, id string) {
	s.pub.PublishRecordEvent(userID, entity, kind, id)
}

// orderSubtasks numbers subtasks by their position in the submitted list.
func orderSubtasks(t *models.Task) {
	for i := range t.Subtasks {
		t.Subtasks[i].OrderIndex = i
	}
}

// NoteDetail is a note with its weak references resolved.
type NoteDetail struct {
	*models.Note
	Skill   *models.Skill   `json:"skill,omitempty"`
	Project *models.Project `json:"project,omitempty"`
	Event   *models.Event   `json:"event,omitempty"`
	Task    *models.Task    `json:"task,omitempty"`
}

// NoteDetail loads a note and the records it points at. References to records
// that no longer exist resolve to nil.
func (s *Service) NoteDetail(ctx context.Context, userID, noteID string) (*NoteDetail, error) {
	n, err := s.Versions.GetNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	d := &NoteDetail{Note: n}
	if d.Skill, err = resolve(ctx, s.Skills, userID, n.SkillID); err != nil {
		return nil, err
	}
	if d.Project, err = resolve(ctx, s.Projects, userID, n.ProjectID); err != nil {
		return nil, err
	}
	if d.Event, err = resolve(ctx, s.Events, userID, n.EventID); err != nil {
		return nil, err
	}
	if d.Task, err = resolve(ctx, s.Tasks, userID, n.TaskID); err != nil {
		return nil, err
	}
	return d, nil
}

// TaskDetail is a task with its weak references resolved.
type TaskDetail struct {
	*models.Task
	Skill   *models.Skill   `json:"skill,omitempty"`
	Project *models.Project `json:"project,omitempty"`
	Event   *models.Event   `json:"event,omitempty"`
}

func (s *Service) TaskDetail(ctx context.Context, userID, taskID string) (*TaskDetail, error) {
	t, err := s.Tasks.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	d := &TaskDetail{Task: t}
	if d.Skill, err = resolve(ctx, s.Skills, userID, t.SkillID); err != nil {
		return nil, err
	}
	if d.Project, err = resolve(ctx, s.Projects, userID, t.ProjectID); err != nil {
		return nil, err
	}
	if d.Event, err = resolve(ctx, s.Events, userID, t.EventID); err != nil {
		return nil, err
	}
	return d, nil
}

func resolve[T models.Record](ctx context.Context, c *Collection[T], userID, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, nil
	}
	rec, err := c.Get(ctx, userID, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return zero, nil
	}
	if err != nil {
		return zero, err
	}
	return rec, nil
}
