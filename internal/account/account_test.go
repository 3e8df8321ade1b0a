package account

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/amaironohi/shop/internal/domain"
	"github.com/amaironohi/shop/internal/store"
	"github.com/amaironohi/shop/internal/store/storetest"
)

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s := storetest.New(t)
	return NewService(s, zap.NewNop(), WithHashCost(bcrypt.MinCost)), s
}

func registration(username, email string) Registration {
	return Registration{
		Username:  username,
		Email:     email,
		Password:  "secret-pass",
		Birthdate: domain.NewDate(1990, time.July, 7),
		Address:   "Tokyo",
	}
}

func TestRegister(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, registration("yuki", "yuki@example.com"))
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "secret-pass", u.PasswordHash)

	stored, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret-pass")))
}

func TestRegister_ConflictsLeaveStoreUnchanged(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, registration("yuki", "yuki@example.com"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		reg       Registration
		wantField string
	}{
		{"same username", registration("yuki", "other@example.com"), "username"},
		{"same email", registration("hana", "yuki@example.com"), "email"},
		{"both taken reports username", registration("yuki", "yuki@example.com"), "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.reg)
			var conflict *domain.ConflictError
			require.True(t, errors.As(err, &conflict), "got %v", err)
			assert.Equal(t, tt.wantField, conflict.Field)
		})
	}

	_, err = s.GetUserByUsername(ctx, "hana")
	assert.True(t, domain.IsNotFoundResource(err, "user"))
	_, err = s.GetUserByEmail(ctx, "other@example.com")
	assert.True(t, domain.IsNotFoundResource(err, "user"))

	stored, err := s.GetUser(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "yuki@example.com", stored.Email)
}

func TestRegister_ConflictCheckedBeforePassword(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, registration("yuki", "yuki@example.com"))
	require.NoError(t, err)

	reg := registration("yuki", "new@example.com")
	reg.Password = ""
	_, err = svc.Register(ctx, reg)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Registration)
		wantField string
	}{
		{"empty username", func(r *Registration) { r.Username = "  " }, "username"},
		{"empty email", func(r *Registration) { r.Email = "" }, "email"},
		{"malformed email", func(r *Registration) { r.Email = "not-an-email" }, "email"},
		{"display name email", func(r *Registration) { r.Email = "Yuki <yuki@example.com>" }, "email"},
		{"empty password", func(r *Registration) { r.Password = "" }, "password"},
		{"password over 72 bytes", func(r *Registration) { r.Password = strings.Repeat("パ", 25) }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			reg := registration("yuki", "yuki@example.com")
			tt.mutate(&reg)

			_, err := svc.Register(context.Background(), reg)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestRegister_NeverLogsPassword(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	svc := NewService(storetest.New(t), zap.New(core), WithHashCost(bcrypt.MinCost))
	ctx := context.Background()

	_, err := svc.Register(ctx, registration("yuki", "yuki@example.com"))
	require.NoError(t, err)
	_, _ = svc.Authenticate(ctx, "yuki@example.com", "wrong-pass")

	require.NotZero(t, logs.Len())
	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, "secret-pass")
		for _, field := range entry.Context {
			assert.NotContains(t, field.String, "secret-pass")
			assert.NotContains(t, field.String, "wrong-pass")
		}
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	registered, err := svc.Register(ctx, registration("yuki", "yuki@example.com"))
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "yuki@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)

	for _, tc := range []struct{ email, password string }{
		{"yuki@example.com", "wrong"},
		{"nobody@example.com", "secret-pass"},
	} {
		_, err := svc.Authenticate(ctx, tc.email, tc.password)
		reason, ok := domain.AuthReasonOf(err)
		require.True(t, ok, "got %v", err)
		assert.Equal(t, domain.ReasonInvalidCredentials, reason)
	}
}

func TestUpdate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	yuki, err := svc.Register(ctx, registration("yuki", "yuki@example.com"))
	require.NoError(t, err)
	_, err = svc.Register(ctx, registration("hana", "hana@example.com"))
	require.NoError(t, err)

	address := "Osaka"
	u, err := svc.Update(ctx, yuki.ID, domain.UserPatch{Address: &address})
	require.NoError(t, err)
	assert.Equal(t, "Osaka", u.Address)
	assert.Equal(t, "yuki", u.Username)
	assert.Equal(t, "1990-07-07", u.Birthdate.String())

	sameName := "yuki"
	_, err = svc.Update(ctx, yuki.ID, domain.UserPatch{Username: &sameName})
	assert.NoError(t, err)

	takenName := "hana"
	_, err = svc.Update(ctx, yuki.ID, domain.UserPatch{Username: &takenName})
	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "username", conflict.Field)

	takenEmail := "hana@example.com"
	_, err = svc.Update(ctx, yuki.ID, domain.UserPatch{Email: &takenEmail})
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "email", conflict.Field)

	got, err := svc.Get(ctx, yuki.ID)
	require.NoError(t, err)
	assert.Equal(t, "yuki", got.Username)
	assert.Equal(t, "yuki@example.com", got.Email)

	_, err = svc.Update(ctx, 999, domain.UserPatch{Address: &address})
	assert.True(t, domain.IsNotFoundResource(err, "user"))
}

func TestCustomers(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, CustomerInput{Username: "hana", Email: "hana@example.com", Address: "Kyoto"})
	require.NoError(t, err)

	_, err = svc.CreateCustomer(ctx, CustomerInput{Username: "hana2", Email: "hana@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.CreateCustomer(ctx, CustomerInput{Username: ""})
	assert.ErrorIs(t, err, domain.ErrValidation)

	address := "Nara"
	updated, err := svc.UpdateCustomer(ctx, c.ID, domain.CustomerPatch{Address: &address})
	require.NoError(t, err)
	assert.Equal(t, "Nara", updated.Address)
	assert.Equal(t, "hana@example.com", updated.Email)

	got, err := svc.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nara", got.Address)

	_, err = svc.UpdateCustomer(ctx, c.ID+10, domain.CustomerPatch{Address: &address})
	assert.True(t, domain.IsNotFoundResource(err, "customer"))
}
