package store

import "github.com/starford/almanac/internal/models"

var peopleTable = &table[*models.Person]{
	name: "people",
	cols: []string{"name", "email", "phone", "profession", "company", "location",
		"relationship", "skills", "tags", "notes", "linkedin", "is_favorite", "last_contacted"},
	alloc: func() *models.Person { return &models.Person{} },
	values: func(p *models.Person) []any {
		return []any{p.Name, p.Email, p.Phone, p.Profession, p.Company, p.Location,
			p.Relationship, strList(p.Skills), strList(p.Tags), p.Notes, p.LinkedIn, p.IsFavorite, p.LastContacted}
	},
	dest: func(p *models.Person) []any {
		return []any{&p.Name, &p.Email, &p.Phone, &p.Profession, &p.Company, &p.Location,
			&p.Relationship, (*strList)(&p.Skills), (*strList)(&p.Tags), &p.Notes, &p.LinkedIn, &p.IsFavorite, &p.LastContacted}
	},
}

var skillsTable = &table[*models.Skill]{
	name: "skills",
	cols: []string{"name", "category", "level", "status", "progress", "practice_hours",
		"started_at", "target_date", "resources", "tags", "description"},
	alloc: func() *models.Skill { return &models.Skill{} },
	values: func(s *models.Skill) []any {
		return []any{s.Name, s.Category, s.Level, s.Status, s.Progress, s.PracticeHours,
			s.StartedAt, s.TargetDate, strList(s.Resources), strList(s.Tags), s.Description}
	},
	dest: func(s *models.Skill) []any {
		return []any{&s.Name, &s.Category, &s.Level, &s.Status, &s.Progress, &s.PracticeHours,
			&s.StartedAt, &s.TargetDate, (*strList)(&s.Resources), (*strList)(&s.Tags), &s.Description}
	},
}

var projectsTable = &table[*models.Project]{
	name: "projects",
	cols: []string{"name", "description", "category", "status", "priority", "progress",
		"start_date", "end_date", "budget", "repository_url", "tags", "is_featured"},
	alloc: func() *models.Project { return &models.Project{} },
	values: func(p *models.Project) []any {
		return []any{p.Name, p.Description, p.Category, p.Status, p.Priority, p.Progress,
			p.StartDate, p.EndDate, p.Budget, p.RepositoryURL, strList(p.Tags), p.IsFeatured}
	},
	dest: func(p *models.Project) []any {
		return []any{&p.Name, &p.Description, &p.Category, &p.Status, &p.Priority, &p.Progress,
			&p.StartDate, &p.EndDate, &p.Budget, &p.RepositoryURL, (*strList)(&p.Tags), &p.IsFeatured}
	},
}

var eventsTable = &table[*models.Event]{
	name: "events",
	cols: []string{"title", "description", "type", "location", "start_date", "end_date",
		"cost", "status", "rating", "tags", "is_featured"},
	alloc: func() *models.Event { return &models.Event{} },
	values: func(e *models.Event) []any {
		return []any{e.Title, e.Description, e.Type, e.Location, e.StartDate, e.EndDate,
			e.Cost, e.Status, e.Rating, strList(e.Tags), e.IsFeatured}
	},
	dest: func(e *models.Event) []any {
		return []any{&e.Title, &e.Description, &e.Type, &e.Location, &e.StartDate, &e.EndDate,
			&e.Cost, &e.Status, &e.Rating, (*strList)(&e.Tags), &e.IsFeatured}
	},
}

var tasksTable = &table[*models.Task]{
	name: "tasks",
	cols: []string{"title", "description", "status", "priority", "category", "due_date",
		"tags", "skill_id", "project_id", "event_id"},
	alloc: func() *models.Task { return &models.Task{} },
	values: func(t *models.Task) []any {
		return []any{t.Title, t.Description, t.Status, t.Priority, t.Category, t.DueDate,
			strList(t.Tags), t.SkillID, t.ProjectID, t.EventID}
	},
	dest: func(t *models.Task) []any {
		return []any{&t.Title, &t.Description, &t.Status, &t.Priority, &t.Category, &t.DueDate,
			(*strList)(&t.Tags), &t.SkillID, &t.ProjectID, &t.EventID}
	},
}

var notesTable = &table[*models.Note]{
	name: "notes",
	cols: []string{"title", "content", "category", "note_type", "tags", "attachments",
		"skill_id", "project_id", "event_id", "task_id", "is_pinned", "is_favorite", "view_count", "version"},
	alloc: func() *models.Note { return &models.Note{} },
	values: func(n *models.Note) []any {
		return []any{n.Title, n.Content, n.Category, n.NoteType, strList(n.Tags), strList(n.Attachments),
			n.SkillID, n.ProjectID, n.EventID, n.TaskID, n.IsPinned, n.IsFavorite, n.ViewCount, n.Version}
	},
	dest: func(n *models.Note) []any {
		return []any{&n.Title, &n.Content, &n.Category, &n.NoteType, (*strList)(&n.Tags), (*strList)(&n.Attachments),
			&n.SkillID, &n.ProjectID, &n.EventID, &n.TaskID, &n.IsPinned, &n.IsFavorite, &n.ViewCount, &n.Version}
	},
	// view_count only moves through IncrementViews.
	insertOnly: map[string]bool{"view_count": true},
}

// People returns the contact repository.
func (db *DB) People() Repository[*models.Person] {
	return &plainRepo[*models.Person]{db: db, t: peopleTable}
}

// Skills returns the skill repository.
func (db *DB) Skills() Repository[*models.Skill] {
	return &plainRepo[*models.Skill]{db: db, t: skillsTable}
}

// Projects returns the project repository.
func (db *DB) Projects() Repository[*models.Project] {
	return &plainRepo[*models.Project]{db: db, t: projectsTable}
}

// Events returns the event repository.
func (db *DB) Events() Repository[*models.Event] {
	return &plainRepo[*models.Event]{db: db, t: eventsTable}
}
