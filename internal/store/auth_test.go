package store

import (
	"context"
	"testing"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/service/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingAuth counts calls that reach the service and can fail refresh and logout.
type countingAuth struct {
	service.AuthService
	logins      int
	failRefresh bool
	failLogout  bool
}

func (c *countingAuth) Login(ctx context.Context, in models.Credentials) service.Result[models.Session] {
	c.logins++
	return c.AuthService.Login(ctx, in)
}

func (c *countingAuth) Refresh(ctx context.Context, token string) service.Result[models.Session] {
	if c.failRefresh {
		return service.Err[models.Session](service.ErrInvalidToken)
	}
	return c.AuthService.Refresh(ctx, token)
}

func (c *countingAuth) Logout(ctx context.Context, token string) service.Result[struct{}] {
	if c.failLogout {
		return service.Err[struct{}](service.ErrUnavailable)
	}
	return c.AuthService.Logout(ctx, token)
}

func demoLogin(t *testing.T, r *Root) {
	t.Helper()
	_, err := r.Auth.Login(context.Background(), models.Credentials{Email: mock.DemoEmail, Password: mock.DemoPassword})
	require.NoError(t, err)
}

func TestAuth_Login(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	demoLogin(t, r)

	s := r.GetState().Auth
	assert.True(t, s.IsAuthenticated)
	require.NotNil(t, s.User)
	assert.Equal(t, mock.DemoEmail, s.User.Email)
	assert.NotEmpty(t, s.RefreshToken)
	assert.True(t, s.ExpiresAt.After(now))
}

func TestAuth_InvalidEmailNeverReachesService(t *testing.T) {
	_, svc := seeded(t)
	counting := &countingAuth{AuthService: svc.Auth}
	svc.Auth = counting
	r := newRoot(svc)

	_, err := r.Auth.Login(context.Background(), models.Credentials{Email: "not-an-email", Password: "whatever1"})
	require.Error(t, err)
	assert.Zero(t, counting.logins)
	s := r.GetState().Auth
	assert.False(t, s.IsAuthenticated)
	assert.False(t, s.Loading)
	assert.Contains(t, s.Error, "email")
}

func TestAuth_WrongPassword(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)

	_, err := r.Auth.Login(context.Background(), models.Credentials{Email: mock.DemoEmail, Password: "wrong1234"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.False(t, r.GetState().Auth.IsAuthenticated)
}

func TestAuth_RefreshRotatesTokens(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	demoLogin(t, r)
	old := r.GetState().Auth.RefreshToken

	require.NoError(t, r.Auth.Refresh(context.Background()))
	s := r.GetState().Auth
	assert.True(t, s.IsAuthenticated)
	assert.NotEqual(t, old, s.RefreshToken)
}

func TestAuth_RefreshFailureClearsSession(t *testing.T) {
	_, svc := seeded(t)
	counting := &countingAuth{AuthService: svc.Auth, failRefresh: true}
	svc.Auth = counting
	r := newRoot(svc)
	demoLogin(t, r)

	err := r.Auth.Refresh(context.Background())
	assert.ErrorIs(t, err, service.ErrInvalidToken)
	s := r.GetState().Auth
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.Empty(t, s.AccessToken)
	assert.NotEmpty(t, s.Error)

	// without a refresh token nothing is sent
	assert.ErrorIs(t, r.Auth.Refresh(context.Background()), service.ErrInvalidToken)
}

func TestAuth_LogoutClearsStateWhenRemoteFails(t *testing.T) {
	_, svc := seeded(t)
	counting := &countingAuth{AuthService: svc.Auth, failLogout: true}
	svc.Auth = counting
	r := newRoot(svc)
	demoLogin(t, r)

	require.NoError(t, r.Auth.Logout(context.Background()))
	s := r.GetState().Auth
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.Empty(t, s.Error)
}

func TestAuth_ProfileRoundTrip(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	ctx := context.Background()

	_, err := r.Auth.LoadProfile(ctx)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	demoLogin(t, r)
	u, err := r.Auth.UpdateProfile(ctx, models.ProfileUpdate{Currency: ptr("EUR")})
	require.NoError(t, err)
	assert.Equal(t, "EUR", u.Currency)

	u, err = r.Auth.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", u.Currency)
	assert.Equal(t, "EUR", r.GetState().Auth.User.Currency)
}

func TestAuth_Register(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)

	u, err := r.Auth.Register(context.Background(), models.Registration{
		Email: "new@example.com", Password: "secret123", ConfirmPassword: "secret123",
		FirstName: "New", LastName: "User",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.True(t, r.GetState().Auth.IsAuthenticated)
}
