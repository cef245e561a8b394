package store

import (
	"database/sql"
	"fmt"

	"github.com/duet-app/duet/internal/model"
)

type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func scanProfile(scanner interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	err := scanner.Scan(&p.ID, &p.Email, &p.Username, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const profileCols = `id, email, username, display_name, created_at, updated_at`

func (s *ProfileStore) Create(email, username, displayName, passwordHash string) (*model.Profile, error) {
	result, err := s.db.Exec(
		`INSERT INTO profiles (email, username, display_name, password_hash) VALUES (?, ?, ?, ?)`,
		email, username, displayName, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProfileStore) GetByID(id int64) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) GetByEmail(email string) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE email = ?`, email)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) GetByUsername(username string) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE username = ?`, username)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by username: %w", err)
	}
	return p, nil
}

// PasswordHashByEmail returns the profile id and stored hash for login.
// A missing profile returns (0, "", nil) so callers can fail uniformly.
func (s *ProfileStore) PasswordHashByEmail(email string) (int64, string, error) {
	var id int64
	var hash string
	err := s.db.QueryRow(`SELECT id, password_hash FROM profiles WHERE email = ?`, email).Scan(&id, &hash)
	if err == sql.ErrNoRows {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("get password hash: %w", err)
	}
	return id, hash, nil
}

func (s *ProfileStore) Update(id int64, username, displayName string) (*model.Profile, error) {
	_, err := s.db.Exec(
		`UPDATE profiles SET username = ?, display_name = ? WHERE id = ?`,
		username, displayName, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProfileStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
