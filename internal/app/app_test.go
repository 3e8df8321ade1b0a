package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amaironohi/shop/internal/config"
	"github.com/amaironohi/shop/internal/notify"
	"github.com/amaironohi/shop/internal/web/cache"
	"github.com/amaironohi/shop/internal/web/ratelimit"
)

func testConfig() *config.Config {
	return &config.Config{
		Database:  config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"},
		Auth:      config.AuthConfig{Secret: "secret", TokenTTL: 30 * time.Minute, HashCost: 4},
		Cache:     config.CacheConfig{Prefix: "test:", TTL: time.Minute},
		RateLimit: config.RateLimitConfig{AuthLimit: 5, Window: time.Minute},
		Mail:      config.MailConfig{Provider: config.MailProviderLog, FromAddress: "shop@example.com", Workers: 1, QueueSize: 4},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"https://itoyuki-snow.github.io"}},
	}
}

func TestNew_InProcessBackends(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, a.Store.Migrate(ctx))

	assert.IsType(t, &cache.MemoryCache{}, a.Cache)
	assert.IsType(t, &ratelimit.TokenBucket{}, a.Limiter)

	a.Start(ctx)
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, a.Dispatcher.Stop(ctx))
	require.NoError(t, a.Close(ctx))

	// closed pool fails the health check
	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNew_RedisBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis = config.RedisConfig{Addr: mr.Addr()}

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.IsType(t, &cache.RedisCache{}, a.Cache)
	assert.IsType(t, &ratelimit.RedisLimiter{}, a.Limiter)
}

func TestNew_FailuresReleaseResources(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Driver = "mysql"
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Redis = config.RedisConfig{Addr: "127.0.0.1:1"}
	_, err = New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Mail.Provider = "pigeon"
	_, err = New(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "pigeon")
}

func TestNewSender(t *testing.T) {
	tests := []struct {
		provider string
		want     notify.Sender
	}{
		{provider: "", want: &notify.LogSender{}},
		{provider: config.MailProviderLog, want: &notify.LogSender{}},
		{provider: config.MailProviderSMTP, want: &notify.SMTPSender{}},
		{provider: config.MailProviderSendGrid, want: &notify.SendGridSender{}},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := config.MailConfig{Provider: tt.provider}
			cfg.SMTP.Host = "smtp.example.com"
			cfg.SMTP.Port = 587
			s, err := NewSender(cfg, zap.NewNop())
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
		})
	}

	_, err := NewSender(config.MailConfig{Provider: config.MailProviderSMTP}, zap.NewNop())
	assert.Error(t, err)
}
