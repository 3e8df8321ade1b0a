// Package api exposes the shop engines over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/amaironohi/shop/internal/account"
	"github.com/amaironohi/shop/internal/catalog"
	"github.com/amaironohi/shop/internal/checkout"
	"github.com/amaironohi/shop/internal/domain"
	"github.com/amaironohi/shop/internal/web/middleware"
	"github.com/amaironohi/shop/internal/web/ratelimit"
	"github.com/amaironohi/shop/internal/web/response"
)

// Accounts is the credential store and customer registry
type Accounts interface {
	Register(ctx context.Context, reg account.Registration) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	Get(ctx context.Context, userID int64) (*domain.User, error)
	Update(ctx context.Context, userID int64, patch domain.UserPatch) (*domain.User, error)
	CreateCustomer(ctx context.Context, in account.CustomerInput) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, patch domain.CustomerPatch) (*domain.Customer, error)
}

// Sessions issues and resolves bearer tokens
type Sessions interface {
	Issue(userID int64) (string, error)
	Resolve(ctx context.Context, token string) (int64, error)
	TTL() time.Duration
}

// Catalog holds products and gifts
type Catalog interface {
	BulkRegisterProducts(ctx context.Context, inputs []catalog.ProductInput) (catalog.BulkResult, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateGift(ctx context.Context, in catalog.GiftInput) (*domain.Gift, error)
	GetGift(ctx context.Context, id string) (*domain.Gift, error)
	DeleteGift(ctx context.Context, id string) error
	ListGifts(ctx context.Context) ([]domain.Gift, error)
}

// Carts manages the per-user cart
type Carts interface {
	GetOrCreate(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, userID int64, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID int64, productID string) (*domain.Cart, error)
}

// Recommender ranks gifts for a tag query
type Recommender interface {
	Recommend(ctx context.Context, queryTags []string) ([]domain.Gift, error)
}

// Checkout turns carts into orders
type Checkout interface {
	Purchase(ctx context.Context, userID int64, req checkout.PurchaseRequest) (*domain.Order, error)
	Orders(ctx context.Context, userID int64) ([]domain.Order, error)
	Order(ctx context.Context, userID, orderID int64) (*domain.Order, error)
}

// Deps are the collaborators the router dispatches to
type Deps struct {
	Accounts    Accounts
	Sessions    Sessions
	Catalog     Catalog
	Carts       Carts
	Recommender Recommender
	Checkout    Checkout
	Logger      *zap.Logger

	// AuthLimiter throttles signup and login per client IP. Nil disables it.
	AuthLimiter ratelimit.Limiter
	// AllowedOrigins feeds the CORS allow-list
	AllowedOrigins []string
	// Health reports whether the backing store is reachable. Nil means always healthy.
	Health func(ctx context.Context) error
}

// NewRouter builds the HTTP handler for the whole API
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	h := &handlers{Deps: d}

	base := middleware.NewChain(
		middleware.RequestID(),
		middleware.Logging(d.Logger, "/healthz"),
		middleware.Recovery(d.Logger),
		middleware.CORS(middleware.DefaultCORSConfig(d.AllowedOrigins...)),
	)
	authenticated := middleware.NewChain(middleware.Authenticate(d.Sessions))
	throttled := middleware.NewChain()
	if d.AuthLimiter != nil {
		throttled.Use(middleware.RateLimit(d.AuthLimiter, middleware.PathIPKeyFunc, d.Logger))
	}

	r := chi.NewRouter()
	r.Use(base.Then)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.RenderNotFound(w, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.RenderMethodNotAllowed(w)
	})

	r.Get("/healthz", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.With(throttled.Then).Post("/signup", h.signup)
		r.With(throttled.Then).Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(authenticated.Then)
			r.Get("/me", h.me)
			r.Put("/me", h.updateMe)
			r.Post("/customers", h.createCustomer)
			r.Get("/customers/{customerID}", h.getCustomer)
			r.Put("/customers/{customerID}", h.updateCustomer)
		})
	})

	r.Route("/purchase", func(r chi.Router) {
		r.Use(authenticated.Then)
		r.Get("/cart", h.getCart)
		r.Post("/cart", h.addToCart)
		r.Delete("/cart/{itemID}", h.removeFromCart)
		r.Post("/purchase", h.purchase)
		r.Get("/orders", h.orders)
		r.Get("/orders/{orderID}", h.order)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/{productID}", h.getProduct)
		r.With(authenticated.Then).Post("/register_bulk", h.registerProducts)
	})

	r.Route("/gift", func(r chi.Router) {
		r.Post("/recommend", h.recommend)
		r.Get("/gifts", h.listGifts)
		r.Get("/gifts/{giftID}", h.getGift)
		r.With(authenticated.Then).Post("/create", h.createGift)
		r.With(authenticated.Then).Delete("/gift/{giftID}", h.deleteGift)
	})

	return r
}

type handlers struct {
	Deps
}

// fail renders err and logs it when it is not an expected domain outcome
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if response.StatusOf(err) == http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	response.RenderDomainError(w, err)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Health(ctx); err != nil {
			h.Logger.Warn("health check failed", zap.Error(err))
			response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	response.OK(w, map[string]string{"status": "ok"})
}

// message is the acknowledgement body used by mutating endpoints
type message struct {
	Message string `json:"message"`
}
