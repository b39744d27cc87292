package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
)

// TaskRepo stores tasks together with their subtasks.
type TaskRepo struct {
	db *DB
}

// Tasks returns the task repository.
func (db *DB) Tasks() *TaskRepo { return &TaskRepo{db: db} }

var _ Repository[*models.Task] = (*TaskRepo)(nil)

// Insert writes the task row and its subtasks in one transaction.
func (r *TaskRepo) Insert(ctx context.Context, t *models.Task) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Store("tasks.begin", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := tasksTable.insert(ctx, tx, t); err != nil {
		return err
	}
	if err := insertSubtasks(ctx, tx, t); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Store("tasks.commit", err)
	}
	return nil
}

// Update overwrites the task and replaces its subtask set wholesale.
func (r *TaskRepo) Update(ctx context.Context, t *models.Task) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Store("tasks.begin", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := tasksTable.update(ctx, tx, t); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM subtasks WHERE task_id = ?`, t.ID); err != nil {
		return apperr.Store("subtasks.delete", err)
	}
	if err := insertSubtasks(ctx, tx, t); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Store("tasks.commit", err)
	}
	return nil
}

// Get returns a task with its subtasks ordered by order_index.
func (r *TaskRepo) Get(ctx context.Context, userID, id string) (*models.Task, error) {
	t, err := tasksTable.get(ctx, r.db.conn, userID, id)
	if err != nil {
		return nil, err
	}
	subs, err := r.subtasks(ctx, []string{t.ID})
	if err != nil {
		return nil, err
	}
	t.Subtasks = nonNil(subs[t.ID])
	return t, nil
}

// List returns every task owned by userID, subtasks included.
func (r *TaskRepo) List(ctx context.Context, userID string) ([]*models.Task, error) {
	tasks, err := tasksTable.list(ctx, r.db.conn, userID)
	if err != nil || len(tasks) == 0 {
		return tasks, err
	}
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	subs, err := r.subtasks(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		t.Subtasks = nonNil(subs[t.ID])
	}
	return tasks, nil
}

// Delete removes the task. Subtasks go with it via the foreign key.
func (r *TaskRepo) Delete(ctx context.Context, userID, id string) error {
	return tasksTable.delete(ctx, r.db.conn, userID, id)
}

func insertSubtasks(ctx context.Context, q queryer, t *models.Task) error {
	for i := range t.Subtasks {
		s := &t.Subtasks[i]
		// Subtasks have no identity outside their task; ids are reissued on every write.
		s.ID = uuid.NewString()
		_, err := q.ExecContext(ctx,
			`INSERT INTO subtasks (id, task_id, title, is_completed, order_index) VALUES (?, ?, ?, ?, ?)`,
			s.ID, t.ID, s.Title, s.IsCompleted, s.OrderIndex)
		if err != nil {
			return apperr.Store("subtasks.insert", err)
		}
	}
	return nil
}

func (r *TaskRepo) subtasks(ctx context.Context, taskIDs []string) (map[string][]models.Subtask, error) {
	args := make([]any, len(taskIDs))
	for i, id := range taskIDs {
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, task_id, title, is_completed, order_index FROM subtasks
		WHERE task_id IN (%s) ORDER BY order_index, rowid`, placeholders(len(taskIDs)))
	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store("subtasks.list", err)
	}
	defer rows.Close()

	out := make(map[string][]models.Subtask)
	for rows.Next() {
		var s models.Subtask
		var taskID string
		if err := rows.Scan(&s.ID, &taskID, &s.Title, &s.IsCompleted, &s.OrderIndex); err != nil {
			return nil, apperr.Store("subtasks.list", err)
		}
		out[taskID] = append(out[taskID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("subtasks.list", err)
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
