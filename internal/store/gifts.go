package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amaironohi/shop/internal/domain"
)

const giftColumns = `id, name, description, price, material, size, notes, tags, product_url, image_url`

// CreateGift inserts g. A duplicate id is reported as *domain.ConflictError.
func (s *Store) CreateGift(ctx context.Context, g *domain.Gift) error {
	args := []interface{}{g.ID, g.Name, g.Description, g.Price}
	for _, list := range [][]string{g.Material, g.Size, g.Notes, g.Tags} {
		v, err := encodeList(list)
		if err != nil {
			return err
		}
		args = append(args, v)
	}
	args = append(args, g.ProductURL, g.ImageURL)

	_, err := s.exec(ctx,
		`INSERT INTO gifts (`+giftColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		err = ConvertDBError(err)
		if IsUniqueViolation(err) {
			return &domain.ConflictError{Field: "id"}
		}
		return fmt.Errorf("failed to insert gift: %w", err)
	}
	return nil
}

// GetGift returns the gift with id
func (s *Store) GetGift(ctx context.Context, id string) (*domain.Gift, error) {
	g, err := scanGift(s.queryRow(ctx, `SELECT `+giftColumns+` FROM gifts WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "gift", id)
	}
	return g, nil
}

// DeleteGift removes the gift with id
func (s *Store) DeleteGift(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM gifts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete gift: %w", ConvertDBError(err))
	}
	return requireAffected(res, "gift", id)
}

// ListGifts returns every gift in creation order
func (s *Store) ListGifts(ctx context.Context) ([]domain.Gift, error) {
	rows, err := s.query(ctx, `SELECT `+giftColumns+` FROM gifts ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list gifts: %w", err)
	}
	defer rows.Close()

	gifts := []domain.Gift{}
	for rows.Next() {
		g, err := scanGift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gift: %w", err)
		}
		gifts = append(gifts, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list gifts: %w", err)
	}
	return gifts, nil
}

func scanGift(row rowScanner) (*domain.Gift, error) {
	var (
		g                           domain.Gift
		material, size, notes, tags sql.NullString
	)
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.Price,
		&material, &size, &notes, &tags, &g.ProductURL, &g.ImageURL)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		col sql.NullString
		dst *[]string
	}{
		{material, &g.Material},
		{size, &g.Size},
		{notes, &g.Notes},
		{tags, &g.Tags},
	} {
		list, err := decodeList(f.col)
		if err != nil {
			return nil, err
		}
		*f.dst = list
	}
	return &g, nil
}
