// Package account registers users, checks their credentials and maintains
// profile and customer records.
package account

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/amaironohi/shop/internal/domain"
	"github.com/amaironohi/shop/internal/web/auth"
)

// Repository is the persistence the account service needs
type Repository interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	WithinUserTx(ctx context.Context, userID int64, fn func(ctx context.Context) error) error

	CreateCustomer(ctx context.Context, c *domain.Customer) error
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, c *domain.Customer) error
}

// Registration is the input to Register
type Registration struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Birthdate domain.Date `json:"birthdate"`
	Address   string      `json:"address"`
}

// Service is the credential store
type Service struct {
	repo     Repository
	logger   *zap.Logger
	hashCost int
}

// Option configures a Service
type Option func(*Service)

// WithHashCost sets the bcrypt cost used for new passwords
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

// NewService creates an account service
func NewService(repo Repository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:     repo,
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user. Username is checked for a conflict before email,
// and both before the password is validated.
func (s *Service) Register(ctx context.Context, reg Registration) (*domain.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Username == "" {
		return nil, &domain.ValidationError{Field: "username", Message: "must not be empty"}
	}
	if err := validateEmail(reg.Email); err != nil {
		return nil, err
	}

	if taken, err := s.usernameTaken(ctx, reg.Username, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, &domain.ConflictError{Field: "username"}
	}
	if taken, err := s.emailTaken(ctx, reg.Email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, &domain.ConflictError{Field: "email"}
	}

	if err := validatePassword(reg.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPasswordCost(reg.Password, s.hashCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
		Birthdate:    reg.Birthdate,
		Address:      reg.Address,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Authenticate returns the user with email when password matches its hash.
// An unknown email and a wrong password fail identically.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.AuthError{Reason: domain.ReasonInvalidCredentials}
		}
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		s.logger.Debug("password mismatch", zap.Int64("user_id", u.ID))
		return nil, &domain.AuthError{Reason: domain.ReasonInvalidCredentials}
	}
	return u, nil
}

// Get returns the user with userID
func (s *Service) Get(ctx context.Context, userID int64) (*domain.User, error) {
	return s.repo.GetUser(ctx, userID)
}

// Update applies the non-nil fields of patch to the user's profile
func (s *Service) Update(ctx context.Context, userID int64, patch domain.UserPatch) (*domain.User, error) {
	var updated *domain.User
	err := s.repo.WithinUserTx(ctx, userID, func(ctx context.Context) error {
		u, err := s.repo.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if patch.Empty() {
			updated = u
			return nil
		}

		if patch.Username != nil {
			name := strings.TrimSpace(*patch.Username)
			if name == "" {
				return &domain.ValidationError{Field: "username", Message: "must not be empty"}
			}
			if name != u.Username {
				taken, err := s.usernameTaken(ctx, name, u.ID)
				if err != nil {
					return err
				}
				if taken {
					return &domain.ConflictError{Field: "username"}
				}
			}
			u.Username = name
		}
		if patch.Email != nil {
			email := strings.TrimSpace(*patch.Email)
			if err := validateEmail(email); err != nil {
				return err
			}
			if email != u.Email {
				taken, err := s.emailTaken(ctx, email, u.ID)
				if err != nil {
					return err
				}
				if taken {
					return &domain.ConflictError{Field: "email"}
				}
			}
			u.Email = email
		}
		if patch.Birthdate != nil {
			u.Birthdate = *patch.Birthdate
		}
		if patch.Address != nil {
			u.Address = *patch.Address
		}

		if err := s.repo.UpdateUser(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) usernameTaken(ctx context.Context, username string, self int64) (bool, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	return taken(u, err, self)
}

func (s *Service) emailTaken(ctx context.Context, email string, self int64) (bool, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	return taken(u, err, self)
}

func taken(u *domain.User, err error, self int64) (bool, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.ID != self, nil
}

func validatePassword(password string) error {
	if password == "" {
		return &domain.ValidationError{Field: "password", Message: "must not be empty"}
	}
	if len(password) > auth.MaxPasswordBytes {
		return &domain.ValidationError{Field: "password", Message: "must be at most 72 bytes"}
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return &domain.ValidationError{Field: "email", Message: "must not be empty"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &domain.ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return nil
}
