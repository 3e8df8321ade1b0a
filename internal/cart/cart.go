// Package cart maintains each user's single shopping cart.
package cart

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/amaironohi/shop/internal/domain"
)

// Repository is the persistence the cart engine needs
type Repository interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	CreateCartIfAbsent(ctx context.Context, userID int64) (*domain.Cart, error)
	SaveCartLines(ctx context.Context, userID int64, lines []domain.CartLine) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	WithinUserTx(ctx context.Context, userID int64, fn func(ctx context.Context) error) error
}

// Engine applies cart operations under the owner's lock
type Engine struct {
	repo   Repository
	logger *zap.Logger
}

// NewEngine creates a cart engine
func NewEngine(repo Repository, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{repo: repo, logger: logger}
}

// GetOrCreate returns userID's cart, creating an empty one on first use
func (e *Engine) GetOrCreate(ctx context.Context, userID int64) (*domain.Cart, error) {
	var c *domain.Cart
	err := e.repo.WithinUserTx(ctx, userID, func(ctx context.Context) error {
		var err error
		c, err = e.repo.CreateCartIfAbsent(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem adds quantity of productID. A product already in the cart keeps its
// first price and accumulates quantity.
func (e *Engine) AddItem(ctx context.Context, userID int64, productID string, quantity int) (*domain.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, &domain.ValidationError{Field: "product_id", Message: "must not be empty"}
	}
	if quantity <= 0 {
		return nil, &domain.ValidationError{Field: "quantity", Message: "must be greater than zero"}
	}

	var c *domain.Cart
	err := e.repo.WithinUserTx(ctx, userID, func(ctx context.Context) error {
		product, err := e.repo.GetProduct(ctx, productID)
		if err != nil {
			return err
		}

		c, err = e.repo.CreateCartIfAbsent(ctx, userID)
		if err != nil {
			return err
		}

		lines := cloneLines(c.Lines)
		if i := c.Line(productID); i >= 0 {
			lines[i].Quantity += quantity
		} else {
			lines = append(lines, domain.CartLine{
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  quantity,
			})
		}

		if err := e.repo.SaveCartLines(ctx, userID, lines); err != nil {
			return err
		}
		c.Lines = lines
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("cart item added",
		zap.Int64("user_id", userID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
	)
	return c, nil
}

// RemoveItem drops the line for productID. Removing a product that is not in
// the cart changes nothing; a user without a cart gets a not-found error.
func (e *Engine) RemoveItem(ctx context.Context, userID int64, productID string) (*domain.Cart, error) {
	productID = strings.TrimSpace(productID)
	var c *domain.Cart
	err := e.repo.WithinUserTx(ctx, userID, func(ctx context.Context) error {
		var err error
		c, err = e.repo.GetCart(ctx, userID)
		if err != nil {
			return err
		}

		i := c.Line(productID)
		if i < 0 {
			return nil
		}
		lines := append(cloneLines(c.Lines[:i]), c.Lines[i+1:]...)
		if err := e.repo.SaveCartLines(ctx, userID, lines); err != nil {
			return err
		}
		c.Lines = lines
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Clear empties userID's cart. A user without a cart is left without one.
func (e *Engine) Clear(ctx context.Context, userID int64) error {
	return e.repo.WithinUserTx(ctx, userID, func(ctx context.Context) error {
		err := e.repo.SaveCartLines(ctx, userID, []domain.CartLine{})
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	})
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}
