package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/amaironohi/shop/internal/domain"
)

const orderColumns = `id, user_id, items, total_price, payment_method, address, created_at`

// CreateOrder inserts o and sets its ID
func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	items, err := encodeLines(o.Lines)
	if err != nil {
		return err
	}

	err = s.queryRow(ctx,
		`INSERT INTO orders (user_id, items, total_price, payment_method, address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		o.UserID, items, o.TotalPrice, o.PaymentMethod, o.Address, o.CreatedAt.UTC(),
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", ConvertDBError(err))
	}
	return nil
}

// GetOrder returns the order with id
func (s *Store) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(s.queryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "order", strconv.FormatInt(id, 10))
	}
	return o, nil
}

// ListOrders returns userID's orders, newest first
func (s *Store) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	rows, err := s.query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o     domain.Order
		items string
	)
	err := row.Scan(&o.ID, &o.UserID, &items, &o.TotalPrice, &o.PaymentMethod, &o.Address, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	lines, err := decodeLines(items)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}
