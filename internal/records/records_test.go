package records

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/query"
	"github.com/starford/almanac/internal/sheet"
	"github.com/starford/almanac/internal/testutil"
	"github.com/starford/almanac/internal/versioning"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) PublishRecordEvent(_, entity, kind, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, entity+"."+kind)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	c := &clock{t: time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)}
	return NewService(testutil.TestDB(t), WithPublisher(rec), WithClock(c.now)), rec
}

func TestCollection_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)

	p, err := svc.Projects.Create(ctx, "u1", &models.Project{Name: "Almanac", Status: models.ProjectActive, Progress: 40})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	created := p.CreatedAt

	upd, err := svc.Projects.Update(ctx, "u1", p.ID, &models.Project{Name: "Almanac 2", Status: models.ProjectCompleted, Progress: 100})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if upd.ID != p.ID || !upd.CreatedAt.Equal(created) || !upd.UpdatedAt.After(created) {
		t.Errorf("identity not preserved: %+v", upd.Meta)
	}

	if _, err := svc.Projects.Update(ctx, "u1", p.ID, &models.Project{Name: ""}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank name err = %v, want ErrValidation", err)
	}
	if _, err := svc.Projects.Update(ctx, "u2", p.ID, &models.Project{Name: "x"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign update err = %v, want ErrNotFound", err)
	}

	if err := svc.Projects.Delete(ctx, "u1", p.ID); err != nil {
		t.Fatal(err)
	}
	want := []string{"projects.created", "projects.updated", "projects.deleted"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, rec.events[i], want[i])
		}
	}
}

func TestCollection_ListFiltersButStatsCoverAll(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	for _, s := range []*models.Skill{
		{Name: "Go", Status: models.SkillMastered, Progress: 100, PracticeHours: 10},
		{Name: "Rust", Status: models.SkillLearning, Progress: 20, PracticeHours: 2},
		{Name: "Zig", Status: models.SkillLearning, Progress: 0},
	} {
		if _, err := svc.Skills.Create(ctx, "u1", s); err != nil {
			t.Fatal(err)
		}
	}

	view, err := svc.Skills.List(ctx, "u1", query.Params{Equals: map[string]string{"status": models.SkillLearning}})
	if err != nil {
		t.Fatal(err)
	}
	if view.Total != 2 || len(view.Items) != 2 {
		t.Errorf("total = %d, want 2", view.Total)
	}
	// Newest first.
	if view.Items[0].Name != "Zig" {
		t.Errorf("first = %s, want Zig", view.Items[0].Name)
	}
	st := view.Stats.(query.SkillStats)
	if st.Total != 3 || st.AverageProgress != 40 || st.TotalPracticeHours != 12 {
		t.Errorf("stats = %+v", st)
	}
	if got := view.Options["status"]; len(got) != 2 {
		t.Errorf("status options = %v", got)
	}

	if _, err := svc.Skills.List(ctx, "u1", query.Params{Equals: map[string]string{"shoe": "9"}}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("unknown field err = %v, want ErrValidation", err)
	}
}

func TestTasks_SubtaskOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	task, err := svc.Tasks.Create(ctx, "u1", &models.Task{Title: "release", Subtasks: []models.Subtask{
		{Title: "tag", OrderIndex: 9},
		{Title: "publish", OrderIndex: 3},
	}})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := svc.Tasks.Get(ctx, "u1", task.ID)
	if got.Status != models.TaskTodo {
		t.Errorf("status = %q, want todo", got.Status)
	}
	if len(got.Subtasks) != 2 || got.Subtasks[0].Title != "tag" || got.Subtasks[1].OrderIndex != 1 {
		t.Errorf("subtasks = %+v", got.Subtasks)
	}
}

func TestNoteDetail_DanglingReferences(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)

	skill, _ := svc.Skills.Create(ctx, "u1", &models.Skill{Name: "SQL"})
	task, _ := svc.Tasks.Create(ctx, "u1", &models.Task{Title: "index"})
	n, err := svc.CreateNote(ctx, "u1", &models.Note{Title: "joins", Content: "...", SkillID: skill.ID, TaskID: task.ID, ProjectID: "gone"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Tasks.Delete(ctx, "u1", task.ID); err != nil {
		t.Fatal(err)
	}

	d, err := svc.NoteDetail(ctx, "u1", n.ID)
	if err != nil {
		t.Fatalf("NoteDetail: %v", err)
	}
	if d.Skill == nil || d.Skill.Name != "SQL" {
		t.Errorf("skill = %+v", d.Skill)
	}
	if d.Task != nil || d.Project != nil {
		t.Errorf("dangling refs resolved: task = %v, project = %v", d.Task, d.Project)
	}
	if d.TaskID != task.ID {
		t.Error("weak reference id was cleared")
	}
	if rec.events[len(rec.events)-2] != "notes.created" {
		t.Errorf("events = %v", rec.events)
	}
}

func TestNotes_PublishThroughService(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)
	n, _ := svc.CreateNote(ctx, "u1", &models.Note{Title: "A", Content: "1"})
	content := "2"
	if _, err := svc.UpdateNote(ctx, "u1", n.ID, versioning.NoteChanges{Content: &content}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.TogglePin(ctx, "u1", n.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteNote(ctx, "u1", n.ID); err != nil {
		t.Fatal(err)
	}
	want := []string{"notes.created", "notes.updated", "notes.updated", "notes.deleted"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
}

func TestImportPeople_Duplicates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	if _, err := svc.People.Create(ctx, "u1", &models.Person{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatal(err)
	}

	rows := []sheet.Row{
		{Line: 2, Person: &models.Person{Name: "Ada L.", Email: " ADA@example.com "}},
		{Line: 3, Person: &models.Person{Name: "Bo"}},
		{Line: 4, Person: &models.Person{Name: "bo "}},
		{Line: 5, Person: &models.Person{Name: "Cy", Email: "not-an-email"}},
		{Line: 6, Person: &models.Person{Name: "Di", Email: "di@example.com"}},
	}
	rep, err := svc.ImportPeople(ctx, "u1", rows)
	if err != nil {
		t.Fatalf("ImportPeople: %v", err)
	}
	if rep.Imported != 2 {
		t.Errorf("imported = %d, want 2", rep.Imported)
	}
	if len(rep.Duplicates) != 2 || rep.Duplicates[0].Line != 2 || rep.Duplicates[1].Line != 4 {
		t.Errorf("duplicates = %+v", rep.Duplicates)
	}
	if len(rep.Invalid) != 1 || rep.Invalid[0].Line != 5 {
		t.Errorf("invalid = %+v", rep.Invalid)
	}
	all, _ := svc.People.All(ctx, "u1")
	if len(all) != 3 {
		t.Errorf("people = %d, want 3", len(all))
	}
}
