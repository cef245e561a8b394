package store

import (
	"database/sql"
	"fmt"

	"github.com/duet-app/duet/internal/model"
)

type PostStore struct {
	db *sql.DB
}

func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// ListFeed returns photo-bearing completions from the profile and its
// confirmed friends, newest first. Completions without a photo never
// appear in the feed.
func (s *PostStore) ListFeed(profileID int64, limit int) ([]model.Post, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.profile_id, p.username, p.display_name, c.task_title, c.caption, c.photo_url, c.completed_on, c.created_at
		 FROM task_completions c
		 JOIN profiles p ON p.id = c.profile_id
		 WHERE c.photo_url IS NOT NULL
		   AND (c.profile_id = ?
		        OR c.profile_id IN (
		            SELECT CASE WHEN requester_id = ? THEN addressee_id ELSE requester_id END
		            FROM friendships
		            WHERE status = 'confirmed' AND (requester_id = ? OR addressee_id = ?)))
		 ORDER BY c.created_at DESC, c.id DESC
		 LIMIT ?`,
		profileID, profileID, profileID, profileID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		var photoURL sql.NullString
		err := rows.Scan(
			&p.CompletionID, &p.ProfileID, &p.Username, &p.DisplayName,
			&p.TaskTitle, &p.Caption, &photoURL, &p.CompletedOn, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.PhotoURL = photoURL.String
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
