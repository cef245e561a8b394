package model

import "time"

// Post is a read-only projection of a photo-bearing task completion for
// the social feed. Completions without a photo never become posts.
type Post struct {
	CompletionID int64     `json:"completion_id"`
	ProfileID    int64     `json:"profile_id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	TaskTitle    string    `json:"task_title"`
	Caption      string    `json:"caption"`
	PhotoURL     string    `json:"photo_url"`
	CompletedOn  string    `json:"completed_on"`
	CreatedAt    time.Time `json:"created_at"`
}
