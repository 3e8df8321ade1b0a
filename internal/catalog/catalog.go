// Package catalog owns products and gifts. List reads are cached and
// invalidated on every write.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/amaironohi/shop/internal/domain"
	"github.com/amaironohi/shop/internal/web/cache"
)

const (
	productsKey = "catalog:products"
	giftsKey    = "catalog:gifts"
)

// Repository is the persistence the catalog needs
type Repository interface {
	InsertProductIfAbsent(ctx context.Context, p *domain.Product) (bool, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)

	CreateGift(ctx context.Context, g *domain.Gift) error
	GetGift(ctx context.Context, id string) (*domain.Gift, error)
	DeleteGift(ctx context.Context, id string) error
	ListGifts(ctx context.Context) ([]domain.Gift, error)
}

// ProductInput is one entry of a bulk registration
type ProductInput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Price       int64    `json:"price"`
	Image       string   `json:"image"`
	Tags        []string `json:"tags,omitempty"`
}

// BulkResult reports which products a bulk registration inserted
type BulkResult struct {
	RegisteredCount int      `json:"registered_count"`
	RegisteredIDs   []string `json:"registered_ids"`
}

// GiftInput is the input to CreateGift
type GiftInput struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Material    []string        `json:"material"`
	Size        []string        `json:"size"`
	Notes       []string        `json:"notes"`
	Tags        []string        `json:"tags"`
	ProductURL  string          `json:"product_url"`
	ImageURL    string          `json:"image_url"`
}

// Service is the product and gift catalog
type Service struct {
	repo   Repository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a catalog. A nil cache disables caching.
func NewService(repo Repository, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// BulkRegisterProducts inserts products in input order. Ids already in the
// catalog are skipped; an entry that fails validation or insertion is logged
// and skipped without failing the call.
func (s *Service) BulkRegisterProducts(ctx context.Context, inputs []ProductInput) (BulkResult, error) {
	result := BulkResult{RegisteredIDs: []string{}}

	for i, in := range inputs {
		p, err := in.product()
		if err != nil {
			s.logger.Warn("skipping invalid product", zap.Int("index", i), zap.String("product_id", in.ID), zap.Error(err))
			continue
		}

		inserted, err := s.repo.InsertProductIfAbsent(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.Error("failed to register product", zap.String("product_id", p.ID), zap.Error(err))
			continue
		}
		if !inserted {
			s.logger.Debug("product already registered", zap.String("product_id", p.ID))
			continue
		}
		result.RegisteredIDs = append(result.RegisteredIDs, p.ID)
	}
	result.RegisteredCount = len(result.RegisteredIDs)

	if result.RegisteredCount > 0 {
		s.invalidate(ctx, productsKey)
	}
	s.logger.Info("bulk product registration finished",
		zap.Int("submitted", len(inputs)),
		zap.Int("registered", result.RegisteredCount),
	)
	return result, nil
}

// GetProduct returns the product with id
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts returns every product in registration order
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return cached(ctx, s, productsKey, s.repo.ListProducts)
}

// CreateGift adds a gift. A duplicate id is a *domain.ConflictError.
func (s *Service) CreateGift(ctx context.Context, in GiftInput) (*domain.Gift, error) {
	g, err := in.gift()
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateGift(ctx, g); err != nil {
		return nil, err
	}

	s.invalidate(ctx, giftsKey)
	s.logger.Info("gift created", zap.String("gift_id", g.ID))
	return g, nil
}

// GetGift returns the gift with id
func (s *Service) GetGift(ctx context.Context, id string) (*domain.Gift, error) {
	return s.repo.GetGift(ctx, id)
}

// DeleteGift removes the gift with id
func (s *Service) DeleteGift(ctx context.Context, id string) error {
	if err := s.repo.DeleteGift(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, giftsKey)
	s.logger.Info("gift deleted", zap.String("gift_id", id))
	return nil
}

// ListGifts returns every gift in catalog order
func (s *Service) ListGifts(ctx context.Context) ([]domain.Gift, error) {
	return cached(ctx, s, giftsKey, s.repo.ListGifts)
}

// cached serves key from the cache, loading and storing it on a miss.
// Cache failures are logged and fall through to the repository.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache == nil {
		return load(ctx)
	}

	if items, found, err := cache.GetJSON[[]T](ctx, s.cache, key); err != nil {
		s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	} else if found {
		return items, nil
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, items, s.ttl); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
	return items, nil
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (in ProductInput) product() (*domain.Product, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, &domain.ValidationError{Field: "id", Message: "must not be empty"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "must not be empty"}
	}
	if in.Price < 0 {
		return nil, &domain.ValidationError{Field: "price", Message: "must not be negative"}
	}
	return &domain.Product{
		ID:          id,
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
		Tags:        in.Tags,
	}, nil
}

func (in GiftInput) gift() (*domain.Gift, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, &domain.ValidationError{Field: "id", Message: "must not be empty"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "must not be empty"}
	}
	if in.Price.IsNegative() {
		return nil, &domain.ValidationError{Field: "price", Message: "must not be negative"}
	}
	return &domain.Gift{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Material:    in.Material,
		Size:        in.Size,
		Notes:       in.Notes,
		Tags:        in.Tags,
		ProductURL:  in.ProductURL,
		ImageURL:    in.ImageURL,
	}, nil
}
