package store

import (
	"database/sql"
	"fmt"

	"github.com/duet-app/duet/internal/model"
)

type FriendshipStore struct {
	db *sql.DB
}

func NewFriendshipStore(db *sql.DB) *FriendshipStore {
	return &FriendshipStore{db: db}
}

func scanFriendship(scanner interface{ Scan(...any) error }) (*model.Friendship, error) {
	var f model.Friendship
	err := scanner.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

const friendshipCols = `id, requester_id, addressee_id, status, created_at, updated_at`

func (s *FriendshipStore) Create(requesterID, addresseeID int64) (*model.Friendship, error) {
	result, err := s.db.Exec(
		`INSERT INTO friendships (requester_id, addressee_id) VALUES (?, ?)`,
		requesterID, addresseeID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert friendship: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *FriendshipStore) GetByID(id int64) (*model.Friendship, error) {
	row := s.db.QueryRow(`SELECT `+friendshipCols+` FROM friendships WHERE id = ?`, id)
	f, err := scanFriendship(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friendship: %w", err)
	}
	return f, nil
}

// GetBetween returns the friendship linking two profiles in either direction.
func (s *FriendshipStore) GetBetween(a, b int64) (*model.Friendship, error) {
	row := s.db.QueryRow(
		`SELECT `+friendshipCols+` FROM friendships
		 WHERE (requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)`,
		a, b, b, a,
	)
	f, err := scanFriendship(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friendship between: %w", err)
	}
	return f, nil
}

// Confirm accepts a request. Only the addressee may confirm, and only from
// requested; it reports whether a row transitioned.
func (s *FriendshipStore) Confirm(id, addresseeID int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE friendships SET status = 'confirmed' WHERE id = ? AND addressee_id = ? AND status = 'requested'`,
		id, addresseeID,
	)
	if err != nil {
		return false, fmt.Errorf("confirm friendship: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *FriendshipStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM friendships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

func (s *FriendshipStore) ListForProfile(profileID int64) ([]model.Friendship, error) {
	rows, err := s.db.Query(
		`SELECT `+friendshipCols+` FROM friendships WHERE requester_id = ? OR addressee_id = ? ORDER BY created_at DESC, id DESC`,
		profileID, profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}
	defer rows.Close()

	var friendships []model.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		friendships = append(friendships, *f)
	}
	return friendships, rows.Err()
}

// ListConfirmedFriendIDs returns the ids of every confirmed friend of the profile.
func (s *FriendshipStore) ListConfirmedFriendIDs(profileID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT CASE WHEN requester_id = ? THEN addressee_id ELSE requester_id END
		 FROM friendships
		 WHERE status = 'confirmed' AND (requester_id = ? OR addressee_id = ?)`,
		profileID, profileID, profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list confirmed friends: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan friend id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AreFriends reports whether the two profiles share a confirmed friendship.
func (s *FriendshipStore) AreFriends(a, b int64) (bool, error) {
	f, err := s.GetBetween(a, b)
	if err != nil {
		return false, err
	}
	return f != nil && f.Status == model.FriendshipConfirmed, nil
}
