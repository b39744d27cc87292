package models

import validation "github.com/go-ozzo/ozzo-validation/v4"

// Task statuses.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in-progress"
	TaskDone       = "done"
)

// Subtask has no lifecycle outside its Task.
type Subtask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
	OrderIndex  int    `json:"order_index"`
}

// Validate checks the subtask title.
func (s Subtask) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Title, validation.Required),
	)
}

// Task is a unit of work, optionally linked to a skill, project or event.
type Task struct {
	Meta
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority,omitempty"`
	Category    string    `json:"category,omitempty"`
	DueDate     string    `json:"due_date,omitempty"`
	Tags        []string  `json:"tags"`
	SkillID     string    `json:"skill_id,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	EventID     string    `json:"event_id,omitempty"`
	Subtasks    []Subtask `json:"subtasks"`
}

// Validate checks required fields and enum values. An empty status defaults to todo.
func (t *Task) Validate() error {
	if t.Status == "" {
		t.Status = TaskTodo
	}
	t.Tags = nonNil(t.Tags)
	t.Subtasks = nonNil(t.Subtasks)
	return validation.ValidateStruct(t,
		validation.Field(&t.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&t.Status, validation.In(TaskTodo, TaskInProgress, TaskDone)),
		validation.Field(&t.Priority, validation.In(PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent)),
		validation.Field(&t.DueDate, dateRule),
		validation.Field(&t.Subtasks),
	)
}

// CompletedSubtasks counts finished subtasks.
func (t *Task) CompletedSubtasks() int {
	n := 0
	for _, s := range t.Subtasks {
		if s.IsCompleted {
			n++
		}
	}
	return n
}
