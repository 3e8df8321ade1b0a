package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/amaironohi/shop/internal/domain"
)

const userColumns = `id, username, email, hashed_password, birthdate, address`

// CreateUser inserts u and sets its ID.
// A duplicate username or email is reported as *domain.ConflictError.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	err := s.queryRow(ctx,
		`INSERT INTO users (username, email, hashed_password, birthdate, address)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		u.Username, u.Email, u.PasswordHash, u.Birthdate, u.Address,
	).Scan(&u.ID)
	if err != nil {
		return userWriteError(err)
	}
	return nil
}

// UpdateUser overwrites every column of the stored user with u
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	res, err := s.exec(ctx,
		`UPDATE users SET username = ?, email = ?, hashed_password = ?, birthdate = ?, address = ?
		 WHERE id = ?`,
		u.Username, u.Email, u.PasswordHash, u.Birthdate, u.Address, u.ID,
	)
	if err != nil {
		return userWriteError(err)
	}
	return requireAffected(res, "user", strconv.FormatInt(u.ID, 10))
}

// GetUser returns the user with id
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "user", strconv.FormatInt(id, 10))
	}
	return u, nil
}

// GetUserByUsername returns the user with username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		return nil, notFound(err, "user", username)
	}
	return u, nil
}

// GetUserByEmail returns the user with email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return u, nil
}

// UserExists reports whether a user with id exists
func (s *Store) UserExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := s.queryRow(ctx, `SELECT 1 FROM users WHERE id = ?`, id).Scan(&one)
	if err != nil {
		if errors.Is(ConvertDBError(err), ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return true, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Birthdate, &u.Address); err != nil {
		return nil, err
	}
	return &u, nil
}

func userWriteError(err error) error {
	err = ConvertDBError(err)
	if IsUniqueViolation(err) {
		return &domain.ConflictError{Field: uniqueField(err, "username", "email")}
	}
	return fmt.Errorf("failed to write user: %w", err)
}

// notFound maps a missing row to *domain.NotFoundError and wraps anything else
func notFound(err error, resource, id string) error {
	err = ConvertDBError(err)
	if errors.Is(err, ErrNotFound) {
		return &domain.NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("failed to read %s: %w", resource, err)
}

func requireAffected(res interface{ RowsAffected() (int64, error) }, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Resource: resource, ID: id}
	}
	return nil
}
