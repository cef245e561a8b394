package store

import (
	"database/sql"
	"fmt"

	"github.com/duet-app/duet/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	err := scanner.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const taskCols = `id, owner_id, title, description, created_at, updated_at`

func (s *TaskStore) Create(ownerID int64, title, description string) (*model.Task, error) {
	result, err := s.db.Exec(
		`INSERT INTO tasks (owner_id, title, description) VALUES (?, ?, ?)`,
		ownerID, title, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) ListByOwner(ownerID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE owner_id = ? ORDER BY created_at ASC, id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Update(id int64, title, description string) (*model.Task, error) {
	_, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ? WHERE id = ?`,
		title, description, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a task. Its completions cascade-delete with it.
func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// --- Completion methods ---

func scanTaskCompletion(scanner interface{ Scan(...any) error }) (*model.TaskCompletion, error) {
	var c model.TaskCompletion
	var photoURL sql.NullString

	err := scanner.Scan(
		&c.ID, &c.TaskID, &c.ProfileID, &c.CompletedOn,
		&c.Caption, &photoURL, &c.TaskTitle, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if photoURL.Valid {
		c.PhotoURL = &photoURL.String
	}
	return &c, nil
}

const taskCompletionCols = `id, task_id, profile_id, completed_on, caption, photo_url, task_title, created_at`

// CreateCompletion records one day's proof. The unique index on
// (task_id, profile_id, completed_on) rejects a second row for the same day.
func (s *TaskStore) CreateCompletion(taskID, profileID int64, completedOn, caption string, photoURL *string, taskTitle string) (*model.TaskCompletion, error) {
	var url sql.NullString
	if photoURL != nil {
		url = sql.NullString{String: *photoURL, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO task_completions (task_id, profile_id, completed_on, caption, photo_url, task_title) VALUES (?, ?, ?, ?, ?, ?)`,
		taskID, profileID, completedOn, caption, url, taskTitle,
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetCompletionByID(id)
}

func (s *TaskStore) GetCompletionByID(id int64) (*model.TaskCompletion, error) {
	row := s.db.QueryRow(`SELECT `+taskCompletionCols+` FROM task_completions WHERE id = ?`, id)
	c, err := scanTaskCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

func (s *TaskStore) GetCompletionForDay(taskID, profileID int64, day string) (*model.TaskCompletion, error) {
	row := s.db.QueryRow(
		`SELECT `+taskCompletionCols+` FROM task_completions WHERE task_id = ? AND profile_id = ? AND completed_on = ?`,
		taskID, profileID, day,
	)
	c, err := scanTaskCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion for day: %w", err)
	}
	return c, nil
}

func (s *TaskStore) DeleteCompletion(id int64) error {
	_, err := s.db.Exec(`DELETE FROM task_completions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

func (s *TaskStore) ListCompletionsByTask(taskID int64) ([]model.TaskCompletion, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCompletionCols+` FROM task_completions WHERE task_id = ? ORDER BY completed_on DESC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.TaskCompletion
	for rows.Next() {
		c, err := scanTaskCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

// ListCompletionsByOwner returns all completions across the owner's tasks,
// for single-pass aggregation.
func (s *TaskStore) ListCompletionsByOwner(profileID int64) ([]model.TaskCompletion, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCompletionCols+` FROM task_completions WHERE profile_id = ? ORDER BY task_id ASC, completed_on DESC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions by owner: %w", err)
	}
	defer rows.Close()

	var completions []model.TaskCompletion
	for rows.Next() {
		c, err := scanTaskCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}
