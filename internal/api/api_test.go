package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/amaironohi/shop/internal/account"
	"github.com/amaironohi/shop/internal/cart"
	"github.com/amaironohi/shop/internal/catalog"
	"github.com/amaironohi/shop/internal/checkout"
	"github.com/amaironohi/shop/internal/domain"
	"github.com/amaironohi/shop/internal/recommend"
	"github.com/amaironohi/shop/internal/store/storetest"
	"github.com/amaironohi/shop/internal/web/auth"
	"github.com/amaironohi/shop/internal/web/cache"
	"github.com/amaironohi/shop/internal/web/ratelimit"
)

type sentMail struct {
	email, username string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (n *recordingNotifier) SendOrderConfirmation(_ context.Context, email, username string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{email, username})
	return nil
}

type testAPI struct {
	t        *testing.T
	handler  http.Handler
	sessions *auth.SessionIssuer
	notifier *recordingNotifier
}

func newTestAPI(t *testing.T, opts ...func(*Deps)) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	s := storetest.New(t)

	memCache := cache.NewMemoryCache(cache.DefaultConfig())
	t.Cleanup(func() { memCache.Close() })

	catalogSvc := catalog.NewService(s, memCache, time.Minute, logger)
	sessions := auth.NewSessionIssuer("test-secret", auth.DefaultTokenTTL, s)
	notifier := &recordingNotifier{}
	carts := cart.NewEngine(s, logger)

	deps := Deps{
		Accounts:       account.NewService(s, logger, account.WithHashCost(bcrypt.MinCost)),
		Sessions:       sessions,
		Catalog:        catalogSvc,
		Carts:          carts,
		Recommender:    recommend.NewEngine(catalogSvc, logger),
		Checkout:       checkout.NewEngine(s, carts, notifier, logger),
		Logger:         logger,
		AllowedOrigins: []string{"https://itoyuki-snow.github.io"},
		Health:         s.DB().PingContext,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testAPI{t: t, handler: NewRouter(deps), sessions: sessions, notifier: notifier}
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}

func (a *testAPI) signupAndLogin(username, email string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"username":  username,
		"email":     email,
		"password":  "s3cret-pass",
		"birthdate": "1998-02-14",
		"address":   "Tokyo",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "s3cret-pass"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var resp loginResponse
	decode(a.t, w, &resp)
	require.NotEmpty(a.t, resp.Token)
	return resp.Token
}

func (a *testAPI) seedProducts() {
	a.t.Helper()
	token := a.signupAndLogin("admin", "admin@example.com")
	w := a.do(http.MethodPost, "/products/register_bulk", token, []catalog.ProductInput{
		{ID: "product1", Name: "ハート", Category: "水色 / ピアス", Price: 3300, Image: "/images/product1.jpg"},
		{ID: "product2", Name: "しずく", Category: "水色 / イヤリング", Price: 2500, Image: "/images/product2.jpg"},
	})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(dst))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code  string `json:"code"`
		Field string `json:"field"`
	}
	decode(t, w, &body)
	if body.Field != "" {
		return body.Code + ":" + body.Field
	}
	return body.Code
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down := newTestAPI(t, func(d *Deps) {
		d.Health = func(context.Context) error { return errors.New("db down") }
	})
	w = down.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSignupAndLogin(t *testing.T) {
	a := newTestAPI(t)
	token := a.signupAndLogin("yuki", "yuki@example.com")

	w := a.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]interface{}
	decode(t, w, &me)
	assert.Equal(t, "yuki", me["username"])
	assert.Equal(t, "1998-02-14", me["birthdate"])
	assert.NotContains(t, me, "password_hash")
	assert.NotContains(t, me, "PasswordHash")

	t.Run("duplicate username", func(t *testing.T) {
		w := a.do(http.MethodPost, "/auth/signup", "", map[string]string{
			"username": "yuki", "email": "other@example.com", "password": "x",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "conflict:username", errorCode(t, w))
	})

	t.Run("duplicate email", func(t *testing.T) {
		w := a.do(http.MethodPost, "/auth/signup", "", map[string]string{
			"username": "other", "email": "yuki@example.com", "password": "x",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "conflict:email", errorCode(t, w))
	})

	t.Run("wrong password", func(t *testing.T) {
		w := a.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "yuki@example.com", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_credentials", errorCode(t, w))
	})

	t.Run("unknown email", func(t *testing.T) {
		w := a.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_credentials", errorCode(t, w))
	})

	t.Run("malformed body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		a.handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request:body", errorCode(t, w))
	})
}

func TestSessionRejections(t *testing.T) {
	a := newTestAPI(t)
	a.signupAndLogin("yuki", "yuki@example.com")

	expired, err := auth.NewSessionIssuer("test-secret", time.Minute, nil).
		WithClock(func() time.Time { return time.Now().Add(-time.Hour) }).
		Issue(1)
	require.NoError(t, err)
	forged, err := auth.NewSessionIssuer("other-secret", time.Minute, nil).Issue(1)
	require.NoError(t, err)
	unknownUser, err := a.sessions.Issue(999)
	require.NoError(t, err)

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantCode   string
	}{
		{name: "no token", wantStatus: http.StatusUnauthorized, wantCode: "missing_token"},
		{name: "expired", token: expired, wantStatus: http.StatusUnauthorized, wantCode: "token_expired"},
		{name: "forged", token: forged, wantStatus: http.StatusForbidden, wantCode: "token_invalid"},
		{name: "garbage", token: "not.a.jwt", wantStatus: http.StatusForbidden, wantCode: "token_invalid"},
		{name: "deleted user", token: unknownUser, wantStatus: http.StatusNotFound, wantCode: "user_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(http.MethodGet, "/purchase/cart", tt.token, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestUpdateMe(t *testing.T) {
	a := newTestAPI(t)
	token := a.signupAndLogin("yuki", "yuki@example.com")
	a.signupAndLogin("hana", "hana@example.com")

	w := a.do(http.MethodPut, "/auth/me", token, map[string]string{"address": "Osaka"})
	require.Equal(t, http.StatusOK, w.Code)
	var u domain.User
	decode(t, w, &u)
	assert.Equal(t, "Osaka", u.Address)
	assert.Equal(t, "yuki@example.com", u.Email)

	w = a.do(http.MethodPut, "/auth/me", token, map[string]string{"email": "hana@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCartAndPurchaseFlow(t *testing.T) {
	a := newTestAPI(t)
	a.seedProducts()
	token := a.signupAndLogin("yuki", "yuki@example.com")

	w := a.do(http.MethodGet, "/purchase/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())

	w = a.do(http.MethodPost, "/purchase/purchase", token, map[string]string{"payment_method": "card", "address": "Tokyo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty_cart", errorCode(t, w))

	w = a.do(http.MethodPost, "/purchase/purchase", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty_cart", errorCode(t, w))

	for _, add := range []addToCartRequest{
		{ItemID: "product1", Quantity: 1},
		{ItemID: "product2", Quantity: 1},
		{ItemID: "product2", Quantity: 1},
	} {
		w = a.do(http.MethodPost, "/purchase/cart", token, add)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = a.do(http.MethodPost, "/purchase/cart", token, addToCartRequest{ItemID: "missing", Quantity: 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "product_not_found", errorCode(t, w))

	w = a.do(http.MethodPost, "/purchase/cart", token, addToCartRequest{ItemID: "product1", Quantity: 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodDelete, "/purchase/cart/not-in-cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var c cartResponse
	decode(t, w, &c)
	require.Len(t, c.Items, 2)
	assert.Equal(t, domain.CartLine{ProductID: "product2", Name: "しずく", Price: 2500, Quantity: 2}, c.Items[1])

	w = a.do(http.MethodPost, "/purchase/purchase", token, map[string]string{"payment_method": "card", "address": "Tokyo"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p purchaseResponse
	decode(t, w, &p)
	assert.Equal(t, int64(8485), p.Order.TotalPrice)
	assert.Len(t, p.Order.Lines, 2)

	w = a.do(http.MethodGet, "/purchase/cart", token, nil)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())

	w = a.do(http.MethodGet, "/purchase/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []domain.Order
	decode(t, w, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, p.Order.ID, orders[0].ID)

	w = a.do(http.MethodGet, fmt.Sprintf("/purchase/orders/%d", p.Order.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var one domain.Order
	decode(t, w, &one)
	assert.Equal(t, p.Order.TotalPrice, one.TotalPrice)

	other := a.signupAndLogin("mika", "mika@example.com")
	w = a.do(http.MethodGet, fmt.Sprintf("/purchase/orders/%d", p.Order.ID), other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "order_not_found", errorCode(t, w))

	w = a.do(http.MethodGet, "/purchase/orders/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, []sentMail{{"yuki@example.com", "yuki"}}, a.notifier.sent)
}

func TestProducts(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPost, "/products/register_bulk", "", []catalog.ProductInput{{ID: "p"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	a.seedProducts()
	token := a.signupAndLogin("yuki", "yuki@example.com")

	w = a.do(http.MethodPost, "/products/register_bulk", token, []catalog.ProductInput{
		{ID: "product1", Name: "dup", Price: 1},
		{ID: "product3", Name: "ツリー", Category: "緑 / ピアス", Price: 2200, Image: "/images/product3.jpg"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var bulk bulkResponse
	decode(t, w, &bulk)
	assert.Equal(t, 1, bulk.RegisteredCount)
	assert.Equal(t, []string{"product3"}, bulk.RegisteredIDs)
	assert.Equal(t, "1 件の商品を登録しました", bulk.Message)

	w = a.do(http.MethodGet, "/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var products []domain.Product
	decode(t, w, &products)
	require.Len(t, products, 3)
	assert.Equal(t, "ハート", products[0].Name)

	w = a.do(http.MethodGet, "/products/product3", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/products/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGifts(t *testing.T) {
	a := newTestAPI(t)
	token := a.signupAndLogin("yuki", "yuki@example.com")

	for i, tags := range [][]string{
		{"水色", "ピアス"},
		{"水色", "リング", "シルバー"},
		{"赤", "ネックレス"},
		nil,
	} {
		w := a.do(http.MethodPost, "/gift/create", token, map[string]interface{}{
			"id":    fmt.Sprintf("gift%d", i+1),
			"name":  fmt.Sprintf("gift %d", i+1),
			"price": 2200.5,
			"tags":  tags,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := a.do(http.MethodPost, "/gift/create", token, map[string]interface{}{"id": "gift1", "name": "dup", "price": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/gift/recommend", "", recommendRequest{Tags: []string{"水色", "リング"}})
	require.Equal(t, http.StatusOK, w.Code)
	var picks []domain.Gift
	decode(t, w, &picks)
	require.Len(t, picks, 2)
	assert.Equal(t, "gift2", picks[0].ID)
	assert.Equal(t, "gift1", picks[1].ID)

	w = a.do(http.MethodPost, "/gift/recommend", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/gift/gifts", "", nil)
	var gifts []domain.Gift
	decode(t, w, &gifts)
	assert.Len(t, gifts, 4)

	w = a.do(http.MethodGet, "/gift/gifts/gift2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var g domain.Gift
	decode(t, w, &g)
	assert.Equal(t, []string{"水色", "リング", "シルバー"}, g.Tags)

	w = a.do(http.MethodDelete, "/gift/gift/gift3", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodGet, "/gift/gifts/gift3", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "gift_not_found", errorCode(t, w))
	w = a.do(http.MethodDelete, "/gift/gift/gift3", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/gift/gifts", "", nil)
	gifts = nil
	decode(t, w, &gifts)
	assert.Len(t, gifts, 3)
}

func TestCustomers(t *testing.T) {
	a := newTestAPI(t)
	token := a.signupAndLogin("yuki", "yuki@example.com")

	w := a.do(http.MethodPost, "/auth/customers", token, map[string]string{
		"username": "hana", "email": "hana@example.com", "birthdate": "2000-01-02", "address": "Kyoto",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var c domain.Customer
	decode(t, w, &c)

	path := fmt.Sprintf("/auth/customers/%d", c.ID)
	w = a.do(http.MethodPut, path, token, map[string]string{"address": "Nara"})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &c)
	assert.Equal(t, "Nara", c.Address)
	assert.Equal(t, "hana", c.Username)

	w = a.do(http.MethodGet, "/auth/customers/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = a.do(http.MethodGet, "/auth/customers/999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRateLimit(t *testing.T) {
	limiter := ratelimit.NewTokenBucket(2, time.Hour)
	t.Cleanup(func() { limiter.Close() })
	a := newTestAPI(t, func(d *Deps) { d.AuthLimiter = limiter })

	body := map[string]string{"email": "nobody@example.com", "password": "x"}
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/auth/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/auth/login", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, a.do(http.MethodPost, "/auth/login", "", body).Code)

	// signup has its own budget
	w := a.do(http.MethodPost, "/auth/signup", "", map[string]string{"username": "", "email": "a@b.c", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPatch, "/gift/gifts", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	a := newTestAPI(t)
	r := httptest.NewRequest(http.MethodOptions, "/auth/signup", nil)
	r.Header.Set("Origin", "https://itoyuki-snow.github.io")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://itoyuki-snow.github.io", w.Header().Get("Access-Control-Allow-Origin"))
}
