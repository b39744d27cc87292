package query

import (
	"math"
	"time"

	"github.com/starford/almanac/internal/dates"
	"github.com/starford/almanac/internal/models"
)

// PeopleStats summarises a contact list.
type PeopleStats struct {
	Total     int `json:"total"`
	Favorites int `json:"favorites"`
	Companies int `json:"companies"`
	WithEmail int `json:"with_email"`
}

func ComputePeopleStats(people []*models.Person) PeopleStats {
	st := PeopleStats{Total: len(people)}
	companies := make(map[string]struct{})
	for _, p := range people {
		if p.IsFavorite {
			st.Favorites++
		}
		if p.Email != "" {
			st.WithEmail++
		}
		if p.Company != "" {
			companies[p.Company] = struct{}{}
		}
	}
	st.Companies = len(companies)
	return st
}

type SkillStats struct {
	Total              int     `json:"total"`
	Mastered           int     `json:"mastered"`
	Learning           int     `json:"learning"`
	AverageProgress    int     `json:"average_progress"`
	TotalPracticeHours float64 `json:"total_practice_hours"`
}

func ComputeSkillStats(skills []*models.Skill) SkillStats {
	st := SkillStats{Total: len(skills)}
	progress := 0
	for _, s := range skills {
		switch s.Status {
		case models.SkillMastered:
			st.Mastered++
		case models.SkillLearning:
			st.Learning++
		}
		progress += s.Progress
		st.TotalPracticeHours += s.PracticeHours
	}
	st.AverageProgress = average(progress, len(skills))
	return st
}

type ProjectStats struct {
	Total           int     `json:"total"`
	Active          int     `json:"active"`
	Completed       int     `json:"completed"`
	AverageProgress int     `json:"average_progress"`
	TotalBudget     float64 `json:"total_budget"`
}

func ComputeProjectStats(projects []*models.Project) ProjectStats {
	st := ProjectStats{Total: len(projects)}
	progress := 0
	for _, p := range projects {
		switch p.Status {
		case models.ProjectActive:
			st.Active++
		case models.ProjectCompleted:
			st.Completed++
		}
		progress += p.Progress
		st.TotalBudget += p.Budget
	}
	st.AverageProgress = average(progress, len(projects))
	return st
}

// EventStats counts upcoming events by start date relative to now.
type EventStats struct {
	Total     int     `json:"total"`
	Upcoming  int     `json:"upcoming"`
	Attended  int     `json:"attended"`
	Featured  int     `json:"featured"`
	TotalCost float64 `json:"total_cost"`
}

func ComputeEventStats(events []*models.Event, now time.Time) EventStats {
	st := EventStats{Total: len(events)}
	today := dates.StartOfDay(now)
	for _, e := range events {
		if t, ok := dates.Parse(e.StartDate, now.Location()); ok && !t.Before(today) && e.Status != models.EventCancelled {
			st.Upcoming++
		}
		if e.Status == models.EventAttended {
			st.Attended++
		}
		if e.IsFeatured {
			st.Featured++
		}
		st.TotalCost += e.Cost
	}
	return st
}

// TaskStats reports status counts. CompletionRate is a rounded percentage.
type TaskStats struct {
	Total          int `json:"total"`
	Todo           int `json:"todo"`
	InProgress     int `json:"in_progress"`
	Done           int `json:"done"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completion_rate"`
}

func ComputeTaskStats(tasks []*models.Task, now time.Time) TaskStats {
	return taskStats(Tasks, tasks, now)
}

// taskStats counts overdue tasks only when s has a usable timeline field.
func taskStats(s *Schema[*models.Task], tasks []*models.Task, now time.Time) TaskStats {
	st := TaskStats{Total: len(tasks)}
	overdue, err := s.Within(TimelineOverdue, now)
	if err != nil {
		overdue = nil
	}
	for _, t := range tasks {
		switch t.Status {
		case models.TaskTodo:
			st.Todo++
		case models.TaskInProgress:
			st.InProgress++
		case models.TaskDone:
			st.Done++
		}
		if overdue != nil && overdue(t) {
			st.Overdue++
		}
	}
	st.CompletionRate = average(st.Done*100, len(tasks))
	return st
}

type NoteStats struct {
	Total      int            `json:"total"`
	Pinned     int            `json:"pinned"`
	Favorites  int            `json:"favorites"`
	TotalViews int            `json:"total_views"`
	ByType     map[string]int `json:"by_type"`
}

func ComputeNoteStats(notes []*models.Note) NoteStats {
	st := NoteStats{Total: len(notes), ByType: map[string]int{}}
	for _, n := range notes {
		if n.IsPinned {
			st.Pinned++
		}
		if n.IsFavorite {
			st.Favorites++
		}
		st.TotalViews += n.ViewCount
		st.ByType[n.NoteType]++
	}
	return st
}

// average returns round(sum/n), or 0 when n is 0.
func average(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}
