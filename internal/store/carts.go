package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/amaironohi/shop/internal/domain"
)

// GetCart returns the cart owned by userID. Inside a postgres transaction the
// row stays locked until the transaction ends.
func (s *Store) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	var (
		c     domain.Cart
		items string
	)
	err := s.queryRow(ctx, s.lockingRead(ctx, `SELECT id, user_id, items, created_at FROM carts WHERE user_id = ?`), userID).
		Scan(&c.ID, &c.UserID, &items, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err, "cart", strconv.FormatInt(userID, 10))
	}

	lines, err := decodeLines(items)
	if err != nil {
		return nil, err
	}
	c.Lines = lines
	return &c, nil
}

// CreateCartIfAbsent creates an empty cart for userID unless one exists and
// returns the user's cart either way
func (s *Store) CreateCartIfAbsent(ctx context.Context, userID int64) (*domain.Cart, error) {
	_, err := s.exec(ctx,
		`INSERT INTO carts (user_id, items, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, "[]", time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", ConvertDBError(err))
	}
	return s.GetCart(ctx, userID)
}

// SaveCartLines replaces the lines of userID's cart
func (s *Store) SaveCartLines(ctx context.Context, userID int64, lines []domain.CartLine) error {
	items, err := encodeLines(lines)
	if err != nil {
		return err
	}

	res, err := s.exec(ctx, `UPDATE carts SET items = ? WHERE user_id = ?`, items, userID)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", ConvertDBError(err))
	}
	return requireAffected(res, "cart", strconv.FormatInt(userID, 10))
}

// lockingRead adds FOR UPDATE to query when ctx carries a postgres
// transaction. SQLite locks the whole database at BEGIN instead.
func (s *Store) lockingRead(ctx context.Context, query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	if _, ok := TxFromContext(ctx); !ok {
		return query
	}
	return query + " FOR UPDATE"
}
