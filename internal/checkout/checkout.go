// Package checkout turns a user's cart into an order.
package checkout

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/amaironohi/shop/internal/domain"
)

// ShippingFee is added to every order total, in yen
const ShippingFee int64 = 185

// Repository is the persistence checkout needs
type Repository interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]domain.Order, error)
	WithinUserTx(ctx context.Context, userID int64, fn func(ctx context.Context) error) error
}

// CartClearer empties a user's cart. Called with the checkout transaction's
// context, so the clear commits or rolls back with the order.
type CartClearer interface {
	Clear(ctx context.Context, userID int64) error
}

// Notifier tells a buyer their order went through
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, email, username string) error
}

// PurchaseRequest is the input to Purchase
type PurchaseRequest struct {
	PaymentMethod string `json:"payment_method"`
	Address       string `json:"address"`
}

// Engine runs checkout
type Engine struct {
	repo     Repository
	carts    CartClearer
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine creates a checkout engine. notifier may be nil.
func NewEngine(repo Repository, carts CartClearer, notifier Notifier, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		repo:     repo,
		carts:    carts,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Total returns the order total for lines including shipping
func Total(lines []domain.CartLine) int64 {
	total := ShippingFee
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

// Purchase records an order for everything in userID's cart and empties the
// cart in the same transaction. An absent or empty cart fails with
// domain.ErrEmptyCart before the request fields are looked at. The
// confirmation email is sent after commit and its failure never fails the
// purchase.
func (e *Engine) Purchase(ctx context.Context, userID int64, req PurchaseRequest) (*domain.Order, error) {
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	req.Address = strings.TrimSpace(req.Address)

	var (
		order *domain.Order
		buyer *domain.User
	)
	err := e.repo.WithinUserTx(ctx, userID, func(ctx context.Context) error {
		var err error
		buyer, err = e.repo.GetUser(ctx, userID)
		if err != nil {
			return err
		}

		cart, err := e.repo.GetCart(ctx, userID)
		if domain.IsNotFoundResource(err, "cart") {
			return domain.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return domain.ErrEmptyCart
		}
		if err := req.validate(); err != nil {
			return err
		}

		lines := make([]domain.CartLine, len(cart.Lines))
		copy(lines, cart.Lines)

		order = &domain.Order{
			UserID:        userID,
			Lines:         lines,
			TotalPrice:    Total(lines),
			PaymentMethod: req.PaymentMethod,
			Address:       req.Address,
			CreatedAt:     e.now().UTC(),
		}
		if err := e.repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		return e.carts.Clear(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Int64("total_price", order.TotalPrice),
		zap.Int("lines", len(order.Lines)),
	)
	e.notify(ctx, buyer)
	return order, nil
}

func (r PurchaseRequest) validate() error {
	if r.PaymentMethod == "" {
		return &domain.ValidationError{Field: "payment_method", Message: "must not be empty"}
	}
	if r.Address == "" {
		return &domain.ValidationError{Field: "address", Message: "must not be empty"}
	}
	return nil
}

// Orders returns userID's orders, newest first
func (e *Engine) Orders(ctx context.Context, userID int64) ([]domain.Order, error) {
	return e.repo.ListOrders(ctx, userID)
}

// Order returns one of userID's orders. Orders of other users are reported
// as not found.
func (e *Engine) Order(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	o, err := e.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, &domain.NotFoundError{Resource: "order", ID: strconv.FormatInt(orderID, 10)}
	}
	return o, nil
}

func (e *Engine) notify(ctx context.Context, buyer *domain.User) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.SendOrderConfirmation(ctx, buyer.Email, buyer.Username); err != nil {
		e.logger.Warn("order confirmation not sent",
			zap.Int64("user_id", buyer.ID),
			zap.Error(err),
		)
	}
}
