package models

import validation "github.com/go-ozzo/ozzo-validation/v4"

// Skill levels.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelExpert       = "expert"
)

// Skill statuses.
const (
	SkillLearning   = "learning"
	SkillPracticing = "practicing"
	SkillMastered   = "mastered"
	SkillPaused     = "paused"
)

// Skill tracks learning progress on a topic.
type Skill struct {
	Meta
	Name          string   `json:"name"`
	Category      string   `json:"category,omitempty"`
	Level         string   `json:"level,omitempty"`
	Status        string   `json:"status,omitempty"`
	Progress      int      `json:"progress"`
	PracticeHours float64  `json:"practice_hours"`
	StartedAt     string   `json:"started_at,omitempty"`
	TargetDate    string   `json:"target_date,omitempty"`
	Resources     []string `json:"resources"`
	Tags          []string `json:"tags"`
	Description   string   `json:"description,omitempty"`
}

// Validate checks required fields and ranges.
func (s *Skill) Validate() error {
	s.Resources = nonNil(s.Resources)
	s.Tags = nonNil(s.Tags)
	return validation.ValidateStruct(s,
		validation.Field(&s.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&s.Level, validation.In(LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert)),
		validation.Field(&s.Status, validation.In(SkillLearning, SkillPracticing, SkillMastered, SkillPaused)),
		validation.Field(&s.Progress, validation.Min(0), validation.Max(100)),
		validation.Field(&s.PracticeHours, validation.Min(0.0)),
		validation.Field(&s.StartedAt, dateRule),
		validation.Field(&s.TargetDate, dateRule),
	)
}
