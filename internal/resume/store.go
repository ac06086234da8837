// Package resume stores resume documents and turns uploaded files into plain
// text for use as generation context.
package resume

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Resume is a stored resume document.
type Resume struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrNotFound      = errors.New("resume not found")
	ErrDuplicateName = errors.New("resume with this name already exists")
	ErrEmptyFields   = errors.New("resume name and content are required")
)

// Store provides database operations for resumes.
type Store struct {
	db *sql.DB
}

// NewStore creates a resume store on the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new resume. Names are unique across the table.
func (s *Store) Create(ctx context.Context, name, content string) (*Resume, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(content) == "" {
		return nil, ErrEmptyFields
	}
	if err := s.checkDuplicateName(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	r := &Resume{
		ID:        uuid.New(),
		Name:      name,
		Content:   content,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	query := `INSERT INTO resumes (id, name, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.db.ExecContext(ctx, query, r.ID, r.Name, r.Content, r.CreatedAt, r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("inserting resume: %w", err)
	}
	return r, nil
}

// List returns all resumes without their content, newest first.
func (s *Store) List(ctx context.Context) ([]*Resume, error) {
	query := `SELECT id, name, created_at, updated_at FROM resumes ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resumes []*Resume
	for rows.Next() {
		r := &Resume{}
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		resumes = append(resumes, r)
	}
	return resumes, rows.Err()
}

// Get retrieves a resume with its full content.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Resume, error) {
	query := `SELECT id, name, content, created_at, updated_at FROM resumes WHERE id = $1`

	r := &Resume{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.Name, &r.Content, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Update applies a partial update: empty name or content leaves the stored
// value untouched. A renamed resume must not collide with an existing name.
func (s *Store) Update(ctx context.Context, id uuid.UUID, name, content string) (*Resume, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name != "" && name != r.Name {
		if err := s.checkDuplicateName(ctx, name, id); err != nil {
			return nil, err
		}
		r.Name = name
	}
	if content != "" {
		r.Content = content
	}
	r.UpdatedAt = time.Now()

	query := `UPDATE resumes SET name = $2, content = $3, updated_at = $4 WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, r.ID, r.Name, r.Content, r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("updating resume: %w", err)
	}
	return r, nil
}

// Delete removes a resume by ID.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) checkDuplicateName(ctx context.Context, name string, exclude uuid.UUID) error {
	var count int
	query := `SELECT COUNT(*) FROM resumes WHERE name = $1 AND id != $2`
	if err := s.db.QueryRowContext(ctx, query, name, exclude).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateName
	}
	return nil
}
