package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"kanban-board/domain"
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

// CreateUser inserts a user. A duplicate email yields domain.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (domain.User, error) {
	now := s.now()
	u := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.User{}, fmt.Errorf("email %s: %w", email, domain.ErrConflict)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// UserByID returns the user with the given id.
func (s *Store) UserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// UserByEmail returns the user registered with email.
func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// UpdateUser applies p and returns the updated user.
func (s *Store) UpdateUser(ctx context.Context, id string, p domain.UserPatch) (domain.User, error) {
	var out domain.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		u, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
		if err != nil {
			return err
		}
		if p.Name != nil {
			u.Name = *p.Name
		}
		if p.Email != nil {
			u.Email = *p.Email
		}
		if p.PasswordHash != nil {
			u.PasswordHash = *p.PasswordHash
		}
		u.UpdatedAt = s.now()
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET name = ?, email = ?, password_hash = ?, updated_at = ? WHERE id = ?`,
			u.Name, u.Email, u.PasswordHash, u.UpdatedAt, u.ID,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", u.Email, domain.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		out = u
		return nil
	})
	return out, err
}

// DeleteUser removes a user and, through cascades, everything they own.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res)
}

func scanUser(row scanner) (domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, notFound(err)
	}
	return u, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
