package store

import (
	"database/sql"
	"fmt"

	"github.com/duet-app/duet/internal/model"
)

type PartnerTaskStore struct {
	db *sql.DB
}

func NewPartnerTaskStore(db *sql.DB) *PartnerTaskStore {
	return &PartnerTaskStore{db: db}
}

func scanPartnerTask(scanner interface{ Scan(...any) error }) (*model.PartnerTask, error) {
	var t model.PartnerTask
	err := scanner.Scan(
		&t.ID, &t.CreatorID, &t.PartnerID, &t.Title, &t.Description,
		&t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const partnerTaskCols = `id, creator_id, partner_id, title, description, status, created_at, updated_at`

func (s *PartnerTaskStore) Create(creatorID, partnerID int64, title, description string) (*model.PartnerTask, error) {
	result, err := s.db.Exec(
		`INSERT INTO partner_tasks (creator_id, partner_id, title, description) VALUES (?, ?, ?, ?)`,
		creatorID, partnerID, title, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert partner task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PartnerTaskStore) GetByID(id int64) (*model.PartnerTask, error) {
	row := s.db.QueryRow(`SELECT `+partnerTaskCols+` FROM partner_tasks WHERE id = ?`, id)
	t, err := scanPartnerTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get partner task: %w", err)
	}
	return t, nil
}

// ListForProfile returns every partner task the profile participates in,
// any status, newest first.
func (s *PartnerTaskStore) ListForProfile(profileID int64) ([]model.PartnerTask, error) {
	rows, err := s.db.Query(
		`SELECT `+partnerTaskCols+` FROM partner_tasks WHERE creator_id = ? OR partner_id = ? ORDER BY created_at DESC, id DESC`,
		profileID, profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list partner tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.PartnerTask
	for rows.Next() {
		t, err := scanPartnerTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan partner task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Resolve moves a pending task to accepted or declined. Only the invitee may
// resolve, and only from pending; it reports whether a row transitioned.
func (s *PartnerTaskStore) Resolve(id, partnerID int64, status string) (bool, error) {
	if status != model.PartnerStatusAccepted && status != model.PartnerStatusDeclined {
		return false, fmt.Errorf("invalid resolution status %q", status)
	}
	result, err := s.db.Exec(
		`UPDATE partner_tasks SET status = ? WHERE id = ? AND partner_id = ? AND status = 'pending'`,
		status, id, partnerID,
	)
	if err != nil {
		return false, fmt.Errorf("resolve partner task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Delete removes a partner task. Completions cascade-delete with it.
func (s *PartnerTaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM partner_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete partner task: %w", err)
	}
	return nil
}

// --- Completion methods ---

func scanPartnerCompletion(scanner interface{ Scan(...any) error }) (*model.PartnerTaskCompletion, error) {
	var c model.PartnerTaskCompletion
	err := scanner.Scan(&c.ID, &c.PartnerTaskID, &c.ProfileID, &c.CompletionDate, &c.PhotoURL, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const partnerCompletionCols = `id, partner_task_id, profile_id, completion_date, photo_url, created_at`

func (s *PartnerTaskStore) CreateCompletion(partnerTaskID, profileID int64, completionDate, photoURL string) (*model.PartnerTaskCompletion, error) {
	result, err := s.db.Exec(
		`INSERT INTO partner_task_completions (partner_task_id, profile_id, completion_date, photo_url) VALUES (?, ?, ?, ?)`,
		partnerTaskID, profileID, completionDate, photoURL,
	)
	if err != nil {
		return nil, fmt.Errorf("insert partner completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+partnerCompletionCols+` FROM partner_task_completions WHERE id = ?`, id)
	return scanPartnerCompletion(row)
}

func (s *PartnerTaskStore) GetCompletionForDay(partnerTaskID, profileID int64, day string) (*model.PartnerTaskCompletion, error) {
	row := s.db.QueryRow(
		`SELECT `+partnerCompletionCols+` FROM partner_task_completions WHERE partner_task_id = ? AND profile_id = ? AND completion_date = ?`,
		partnerTaskID, profileID, day,
	)
	c, err := scanPartnerCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get partner completion for day: %w", err)
	}
	return c, nil
}

func (s *PartnerTaskStore) DeleteCompletion(id int64) error {
	_, err := s.db.Exec(`DELETE FROM partner_task_completions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete partner completion: %w", err)
	}
	return nil
}

// ListCompletions returns both participants' completion rows for a task.
func (s *PartnerTaskStore) ListCompletions(partnerTaskID int64) ([]model.PartnerTaskCompletion, error) {
	rows, err := s.db.Query(
		`SELECT `+partnerCompletionCols+` FROM partner_task_completions WHERE partner_task_id = ? ORDER BY completion_date DESC`,
		partnerTaskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list partner completions: %w", err)
	}
	defer rows.Close()

	var completions []model.PartnerTaskCompletion
	for rows.Next() {
		c, err := scanPartnerCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan partner completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}
