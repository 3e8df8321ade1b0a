package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amaironohi/shop/internal/domain"
)

const productColumns = `id, name, category, description, price, image, tags`

// InsertProductIfAbsent inserts p unless a product with the same id exists.
// It reports whether a row was inserted.
func (s *Store) InsertProductIfAbsent(ctx context.Context, p *domain.Product) (bool, error) {
	tags, err := encodeList(p.Tags)
	if err != nil {
		return false, err
	}

	res, err := s.exec(ctx,
		`INSERT INTO products (id, name, category, description, price, image, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Name, p.Category, p.Description, p.Price, p.Image, tags,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert product %q: %w", p.ID, ConvertDBError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// ProductExists reports whether a product with id exists
func (s *Store) ProductExists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM products WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check product: %w", err)
	}
	return n > 0, nil
}

// GetProduct returns the product with id
func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(s.queryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return p, nil
}

// ListProducts returns every product in registration order
func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p    domain.Product
		tags sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Price, &p.Image, &tags); err != nil {
		return nil, err
	}
	list, err := decodeList(tags)
	if err != nil {
		return nil, err
	}
	p.Tags = list
	return &p, nil
}
