package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/amaironohi/shop/internal/domain"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// encodeList stores a string list as a JSON array; nil stays NULL
func encodeList(list []string) (interface{}, error) {
	if list == nil {
		return nil, nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(col sql.NullString) ([]string, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(col.String), &list); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	return list, nil
}

// encodeLines stores cart lines as a JSON array; an empty cart is "[]"
func encodeLines(lines []domain.CartLine) (string, error) {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("failed to encode cart lines: %w", err)
	}
	return string(b), nil
}

func decodeLines(col string) ([]domain.CartLine, error) {
	lines := []domain.CartLine{}
	if col == "" {
		return lines, nil
	}
	if err := json.Unmarshal([]byte(col), &lines); err != nil {
		return nil, fmt.Errorf("failed to decode cart lines: %w", err)
	}
	return lines, nil
}
