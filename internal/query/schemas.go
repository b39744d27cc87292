package query

import (
	"time"

	"github.com/starford/almanac/internal/dates"
	"github.com/starford/almanac/internal/models"
)

func byUpdated(m *models.Meta) time.Time { return m.UpdatedAt }

// People is the field mapping for contacts.
var People = &Schema[*models.Person]{
	Entity: "people",
	Fields: []Field[*models.Person]{
		{Name: "name", Kind: KindText, Searchable: true, Get: func(p *models.Person) string { return p.Name }},
		{Name: "profession", Kind: KindText, Searchable: true, Get: func(p *models.Person) string { return p.Profession }},
		{Name: "email", Kind: KindText, Searchable: true, Get: func(p *models.Person) string { return p.Email }},
		{Name: "skills", Kind: KindText, Searchable: true, List: func(p *models.Person) []string { return p.Skills }},
		{Name: "tags", Kind: KindText, Searchable: true, List: func(p *models.Person) []string { return p.Tags }},
		{Name: "company", Kind: KindEnum, Searchable: true, Get: func(p *models.Person) string { return p.Company }},
		{Name: "relationship", Kind: KindEnum, Get: func(p *models.Person) string { return p.Relationship }},
		{Name: "is_favorite", Kind: KindBool, Flag: func(p *models.Person) bool { return p.IsFavorite }},
		{Name: "last_contacted", Kind: KindDate, Get: func(p *models.Person) string { return p.LastContacted }},
	},
	Timeline:  "last_contacted",
	Pinned:    func(p *models.Person) bool { return p.IsFavorite },
	Timestamp: func(p *models.Person) time.Time { return byUpdated(&p.Meta) },
}

// Skills is the field mapping for tracked skills.
var Skills = &Schema[*models.Skill]{
	Entity: "skills",
	Fields: []Field[*models.Skill]{
		{Name: "name", Kind: KindText, Searchable: true, Get: func(s *models.Skill) string { return s.Name }},
		{Name: "description", Kind: KindText, Searchable: true, Get: func(s *models.Skill) string { return s.Description }},
		{Name: "tags", Kind: KindText, Searchable: true, List: func(s *models.Skill) []string { return s.Tags }},
		{Name: "category", Kind: KindEnum, Searchable: true, Get: func(s *models.Skill) string { return s.Category }},
		{Name: "level", Kind: KindEnum, Get: func(s *models.Skill) string { return s.Level }},
		{Name: "status", Kind: KindEnum, Get: func(s *models.Skill) string { return s.Status }},
		{Name: "target_date", Kind: KindDate, Get: func(s *models.Skill) string { return s.TargetDate }},
	},
	Timeline:  "target_date",
	Timestamp: func(s *models.Skill) time.Time { return byUpdated(&s.Meta) },
}

// Projects is the field mapping for projects.
var Projects = &Schema[*models.Project]{
	Entity: "projects",
	Fields: []Field[*models.Project]{
		{Name: "name", Kind: KindText, Searchable: true, Get: func(p *models.Project) string { return p.Name }},
		{Name: "description", Kind: KindText, Searchable: true, Get: func(p *models.Project) string { return p.Description }},
		{Name: "tags", Kind: KindText, Searchable: true, List: func(p *models.Project) []string { return p.Tags }},
		{Name: "category", Kind: KindEnum, Searchable: true, Get: func(p *models.Project) string { return p.Category }},
		{Name: "status", Kind: KindEnum, Get: func(p *models.Project) string { return p.Status }},
		{Name: "priority", Kind: KindEnum, Get: func(p *models.Project) string { return p.Priority }},
		{Name: "is_featured", Kind: KindBool, Flag: func(p *models.Project) bool { return p.IsFeatured }},
		{Name: "start_date", Kind: KindDate, Get: func(p *models.Project) string { return p.StartDate }},
		{Name: "year", Kind: KindYear, Get: func(p *models.Project) string { return p.StartDate }},
	},
	Timeline:  "start_date",
	Pinned:    func(p *models.Project) bool { return p.IsFeatured },
	Timestamp: func(p *models.Project) time.Time { return byUpdated(&p.Meta) },
}

// Events is the field mapping for conferences, courses and the like.
var Events = &Schema[*models.Event]{
	Entity: "events",
	Fields: []Field[*models.Event]{
		{Name: "title", Kind: KindText, Searchable: true, Get: func(e *models.Event) string { return e.Title }},
		{Name: "description", Kind: KindText, Searchable: true, Get: func(e *models.Event) string { return e.Description }},
		{Name: "location", Kind: KindText, Searchable: true, Get: func(e *models.Event) string { return e.Location }},
		{Name: "tags", Kind: KindText, Searchable: true, List: func(e *models.Event) []string { return e.Tags }},
		{Name: "type", Kind: KindEnum, Searchable: true, Get: func(e *models.Event) string { return e.Type }},
		{Name: "status", Kind: KindEnum, Get: func(e *models.Event) string { return e.Status }},
		{Name: "is_featured", Kind: KindBool, Flag: func(e *models.Event) bool { return e.IsFeatured }},
		{Name: "start_date", Kind: KindDate, Get: func(e *models.Event) string { return e.StartDate }},
		{Name: "year", Kind: KindYear, Get: func(e *models.Event) string { return e.StartDate }},
	},
	Timeline: "start_date",
	Pinned:   func(e *models.Event) bool { return e.IsFeatured },
	Timestamp: func(e *models.Event) time.Time {
		t, _ := dates.Parse(e.StartDate, time.UTC)
		return t
	},
}

// Tasks is the field mapping for tasks. Done tasks are never overdue.
var Tasks = &Schema[*models.Task]{
	Entity: "tasks",
	Fields: []Field[*models.Task]{
		{Name: "title", Kind: KindText, Searchable: true, Get: func(t *models.Task) string { return t.Title }},
		{Name: "description", Kind: KindText, Searchable: true, Get: func(t *models.Task) string { return t.Description }},
		{Name: "tags", Kind: KindText, Searchable: true, List: func(t *models.Task) []string { return t.Tags }},
		{Name: "category", Kind: KindEnum, Searchable: true, Get: func(t *models.Task) string { return t.Category }},
		{Name: "status", Kind: KindEnum, Get: func(t *models.Task) string { return t.Status }},
		{Name: "priority", Kind: KindEnum, Get: func(t *models.Task) string { return t.Priority }},
		{Name: "due_date", Kind: KindDate, Get: func(t *models.Task) string { return t.DueDate }},
	},
	Timeline:  "due_date",
	Done:      func(t *models.Task) bool { return t.Status == models.TaskDone },
	Timestamp: func(t *models.Task) time.Time { return byUpdated(&t.Meta) },
}

// Notes is the field mapping for knowledge base notes.
var Notes = &Schema[*models.Note]{
	Entity: "notes",
	Fields: []Field[*models.Note]{
		{Name: "title", Kind: KindText, Searchable: true, Get: func(n *models.Note) string { return n.Title }},
		{Name: "content", Kind: KindText, Searchable: true, Get: func(n *models.Note) string { return n.Content }},
		{Name: "tags", Kind: KindText, Searchable: true, List: func(n *models.Note) []string { return n.Tags }},
		{Name: "category", Kind: KindEnum, Searchable: true, Get: func(n *models.Note) string { return n.Category }},
		{Name: "note_type", Kind: KindEnum, Get: func(n *models.Note) string { return n.NoteType }},
		{Name: "is_pinned", Kind: KindBool, Flag: func(n *models.Note) bool { return n.IsPinned }},
		{Name: "is_favorite", Kind: KindBool, Flag: func(n *models.Note) bool { return n.IsFavorite }},
		{Name: "updated_at", Kind: KindDate, Get: func(n *models.Note) string {
			return n.UpdatedAt.Format(time.RFC3339Nano)
		}},
	},
	Timeline:  "updated_at",
	Pinned:    func(n *models.Note) bool { return n.IsPinned },
	Timestamp: func(n *models.Note) time.Time { return byUpdated(&n.Meta) },
}
