package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Aman-CERP/siteindex/internal/content"
)

const userColumns = `id, email, first_name, last_name, is_active, is_deleted, created_on, updated_on`

// SaveUser inserts user, or replaces it when user.ID is set.
func (s *Store) SaveUser(ctx context.Context, user *content.User) error {
	stamp(&user.CreatedOn, &user.UpdatedOn)
	return s.write(func() error {
		id, err := upsert(ctx, s.db,
			`INSERT INTO users (email, first_name, last_name, is_active, is_deleted, created_on, updated_on)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			`INSERT OR REPLACE INTO users (`+userColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			user.ID, user.Email, user.FirstName, user.LastName, user.IsActive,
			user.IsDeleted, formatTime(user.CreatedOn), formatTime(user.UpdatedOn))
		if err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		user.ID = id
		return nil
	})
}

// DeleteUser soft-deletes the user with the given ID.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.softDelete(ctx, "users", id)
}

// GetUser returns the user with the given ID, deleted or not.
func (s *Store) GetUser(ctx context.Context, id int64) (*content.User, error) {
	var user *content.User
	err := s.read(func() error {
		row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
		u, err := scanUser(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		user = u
		return err
	})
	return user, err
}

// ListUsers returns every user that is not soft-deleted.
// Users belong to no site, so site is ignored.
func (s *Store) ListUsers(ctx context.Context, _ *content.Site) ([]*content.User, error) {
	var users []*content.User
	err := s.read(func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE is_deleted = 0`)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, u)
		}
		return rows.Err()
	})
	return users, err
}

func scanUser(row scanner) (*content.User, error) {
	var (
		u                content.User
		created, updated string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.IsActive,
		&u.IsDeleted, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedOn, err = parseTime(created); err != nil {
		return nil, err
	}
	if u.UpdatedOn, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}
