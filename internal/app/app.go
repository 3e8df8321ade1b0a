// Package app assembles the shop from configuration: store, cache, rate
// limiter, mail dispatcher, engines and the HTTP handler.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/amaironohi/shop/internal/account"
	"github.com/amaironohi/shop/internal/api"
	"github.com/amaironohi/shop/internal/cart"
	"github.com/amaironohi/shop/internal/catalog"
	"github.com/amaironohi/shop/internal/checkout"
	"github.com/amaironohi/shop/internal/config"
	"github.com/amaironohi/shop/internal/notify"
	"github.com/amaironohi/shop/internal/recommend"
	"github.com/amaironohi/shop/internal/store"
	"github.com/amaironohi/shop/internal/web/auth"
	"github.com/amaironohi/shop/internal/web/cache"
	"github.com/amaironohi/shop/internal/web/ratelimit"
	"github.com/amaironohi/shop/internal/web/server"
)

// App holds every long-lived component
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Store      *store.Store
	Cache      cache.Cache
	Limiter    ratelimit.Limiter
	Dispatcher *notify.Dispatcher

	Sessions    *auth.SessionIssuer
	Accounts    *account.Service
	Catalog     *catalog.Service
	Carts       *cart.Engine
	Recommender *recommend.Engine
	Checkout    *checkout.Engine

	closers []closer
}

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

// New opens the store and builds the components. On error everything
// opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.Store, err = store.Open(ctx, store.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	a.onClose("database", func(context.Context) error { return a.Store.Close() })

	if err := a.buildCacheAndLimiter(ctx); err != nil {
		return nil, err
	}

	sender, err := NewSender(cfg.Mail, logger)
	if err != nil {
		return nil, err
	}
	a.Dispatcher = notify.NewDispatcher(sender,
		notify.NewComposer(cfg.Mail.FromAddress, cfg.Mail.FromName),
		notify.Config{
			Workers:     cfg.Mail.Workers,
			QueueSize:   cfg.Mail.QueueSize,
			MaxAttempts: cfg.Mail.MaxAttempts,
			Backoff:     cfg.Mail.Backoff,
		},
		logger.Named("notify"),
	)

	a.Sessions = auth.NewSessionIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL, a.Store)
	a.Accounts = account.NewService(a.Store, logger.Named("account"), account.WithHashCost(cfg.Auth.HashCost))
	a.Catalog = catalog.NewService(a.Store, a.Cache, cfg.Cache.TTL, logger.Named("catalog"))
	a.Carts = cart.NewEngine(a.Store, logger.Named("cart"))
	a.Recommender = recommend.NewEngine(a.Catalog, logger.Named("recommend"))
	a.Checkout = checkout.NewEngine(a.Store, a.Carts, a.Dispatcher, logger.Named("checkout"))
	return a, nil
}

func (a *App) buildCacheAndLimiter(ctx context.Context) error {
	cacheCfg := cache.Config{DefaultTTL: a.Config.Cache.TTL, Prefix: a.Config.Cache.Prefix}
	rl := a.Config.RateLimit

	if !a.Config.Redis.Enabled() {
		mem := cache.NewMemoryCache(cacheCfg)
		a.Cache = mem
		a.onClose("cache", func(context.Context) error { return mem.Close() })

		bucket := ratelimit.NewTokenBucket(rl.AuthLimit, rl.Window)
		a.Limiter = bucket
		a.onClose("ratelimit", func(context.Context) error { return bucket.Close() })
		return nil
	}

	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     a.Config.Redis.Addr,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	if err != nil {
		return err
	}
	redisCache := cache.NewRedisCache(client, cacheCfg)
	a.Cache = redisCache
	a.onClose("redis", func(context.Context) error { return redisCache.Close() })

	limiter, err := ratelimit.NewRedisLimiter(client, rl.AuthLimit, rl.Window, a.Config.Cache.Prefix+"ratelimit:")
	if err != nil {
		return err
	}
	a.Limiter = limiter
	return nil
}

// NewSender returns the mail sender selected by cfg.Provider
func NewSender(cfg config.MailConfig, logger *zap.Logger) (notify.Sender, error) {
	switch cfg.Provider {
	case config.MailProviderLog, "":
		return notify.NewLogSender(logger.Named("mail")), nil
	case config.MailProviderSMTP:
		sender, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		})
		if err != nil {
			return nil, err
		}
		return sender, nil
	case config.MailProviderSendGrid:
		return notify.NewSendGridSender(cfg.SendGrid.APIKey, cfg.SendGrid.Host), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// Handler builds the HTTP API
func (a *App) Handler() http.Handler {
	return api.NewRouter(api.Deps{
		Accounts:       a.Accounts,
		Sessions:       a.Sessions,
		Catalog:        a.Catalog,
		Carts:          a.Carts,
		Recommender:    a.Recommender,
		Checkout:       a.Checkout,
		Logger:         a.Logger.Named("http"),
		AuthLimiter:    a.Limiter,
		AllowedOrigins: a.Config.CORS.AllowedOrigins,
		Health:         a.Store.DB().PingContext,
	})
}

// Start launches the mail workers
func (a *App) Start(ctx context.Context) {
	a.Dispatcher.Start(ctx)
}

// RegisterShutdown hands the app's teardown to gs, after the server drains:
// pending mail is flushed before the store and cache close
func (a *App) RegisterShutdown(gs *server.GracefulShutdown) {
	gs.RegisterHook("notify", a.Dispatcher.Stop)
	gs.RegisterHook("resources", a.Close)
}

// Close releases resources in reverse order of acquisition
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(name string, fn func(ctx context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}
