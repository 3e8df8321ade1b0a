package account

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/amaironohi/shop/internal/domain"
)

// CustomerInput is the input to CreateCustomer
type CustomerInput struct {
	Username  string      `json:"username"`
	Birthdate domain.Date `json:"birthdate"`
	Email     string      `json:"email"`
	Address   string      `json:"address"`
}

// CreateCustomer stores a contact record. Email is optional but unique when set.
func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	c := &domain.Customer{
		Username:  strings.TrimSpace(in.Username),
		Birthdate: in.Birthdate,
		Email:     strings.TrimSpace(in.Email),
		Address:   in.Address,
	}
	if err := validateCustomer(c); err != nil {
		return nil, err
	}
	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("customer created", zap.Int64("customer_id", c.ID))
	return c, nil
}

// GetCustomer returns the customer with id
func (s *Service) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// UpdateCustomer applies the non-nil fields of patch
func (s *Service) UpdateCustomer(ctx context.Context, id int64, patch domain.CustomerPatch) (*domain.Customer, error) {
	c, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Username != nil {
		c.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.Birthdate != nil {
		c.Birthdate = *patch.Birthdate
	}
	if patch.Email != nil {
		c.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Address != nil {
		c.Address = *patch.Address
	}
	if err := validateCustomer(c); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCustomer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func validateCustomer(c *domain.Customer) error {
	if c.Username == "" {
		return &domain.ValidationError{Field: "username", Message: "must not be empty"}
	}
	if c.Email != "" {
		return validateEmail(c.Email)
	}
	return nil
}
