package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Project statuses.
const (
	ProjectPlanning  = "planning"
	ProjectActive    = "active"
	ProjectOnHold    = "on-hold"
	ProjectCompleted = "completed"
	ProjectCancelled = "cancelled"
)

// Priorities shared by projects and tasks.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Project is a body of work with progress and budget.
type Project struct {
	Meta
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category,omitempty"`
	Status        string   `json:"status,omitempty"`
	Priority      string   `json:"priority,omitempty"`
	Progress      int      `json:"progress"`
	StartDate     string   `json:"start_date,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	Budget        float64  `json:"budget"`
	RepositoryURL string   `json:"repository_url,omitempty"`
	Tags          []string `json:"tags"`
	IsFeatured    bool     `json:"is_featured"`
}

// Validate checks required fields and enum values.
func (p *Project) Validate() error {
	p.Tags = nonNil(p.Tags)
	return validation.ValidateStruct(p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Status, validation.In(ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled)),
		validation.Field(&p.Priority, validation.In(PriorityLow, PriorityMedium, PriorityHigh)),
		validation.Field(&p.Progress, validation.Min(0), validation.Max(100)),
		validation.Field(&p.Budget, validation.Min(0.0)),
		validation.Field(&p.StartDate, dateRule),
		validation.Field(&p.EndDate, dateRule),
		validation.Field(&p.RepositoryURL, is.URL),
	)
}
