package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/amaironohi/shop/internal/domain"
)

const customerColumns = `id, username, birthdate, email, address`

// CreateCustomer inserts c and sets its ID
func (s *Store) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	err := s.queryRow(ctx,
		`INSERT INTO customers (username, birthdate, email, address) VALUES (?, ?, ?, ?) RETURNING id`,
		c.Username, c.Birthdate, nullIfEmpty(c.Email), c.Address,
	).Scan(&c.ID)
	if err != nil {
		return customerWriteError(err)
	}
	return nil
}

// GetCustomer returns the customer with id
func (s *Store) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var (
		c     domain.Customer
		email *string
	)
	err := s.queryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id).
		Scan(&c.ID, &c.Username, &c.Birthdate, &email, &c.Address)
	if err != nil {
		return nil, notFound(err, "customer", strconv.FormatInt(id, 10))
	}
	if email != nil {
		c.Email = *email
	}
	return &c, nil
}

// UpdateCustomer overwrites the stored customer with c
func (s *Store) UpdateCustomer(ctx context.Context, c *domain.Customer) error {
	res, err := s.exec(ctx,
		`UPDATE customers SET username = ?, birthdate = ?, email = ?, address = ? WHERE id = ?`,
		c.Username, c.Birthdate, nullIfEmpty(c.Email), c.Address, c.ID,
	)
	if err != nil {
		return customerWriteError(err)
	}
	return requireAffected(res, "customer", strconv.FormatInt(c.ID, 10))
}

func customerWriteError(err error) error {
	err = ConvertDBError(err)
	if IsUniqueViolation(err) {
		return &domain.ConflictError{Field: "email"}
	}
	return fmt.Errorf("failed to write customer: %w", err)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
