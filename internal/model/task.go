package model

import "time"

type Task struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskCompletion is one day's proof of completion for a personal task.
// CompletedOn is a canonical YYYY-MM-DD day string. TaskTitle snapshots
// the task's title at completion time so feed posts survive renames.
type TaskCompletion struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"task_id"`
	ProfileID   int64     `json:"profile_id"`
	CompletedOn string    `json:"completed_on"`
	Caption     string    `json:"caption"`
	PhotoURL    *string   `json:"photo_url"`
	TaskTitle   string    `json:"task_title"`
	CreatedAt   time.Time `json:"created_at"`
}
