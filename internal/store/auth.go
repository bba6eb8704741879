package store

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/validation"
)

// AuthStore owns the session.
type AuthStore struct {
	root *Root
	svc  service.AuthService
}

func recomputeAuth(a *AuthState) {
	a.IsAuthenticated = a.User != nil && a.AccessToken != ""
}

func setSession(a *AuthState, sess models.Session) {
	user := sess.User
	a.User = &user
	a.AccessToken = sess.AccessToken
	a.RefreshToken = sess.RefreshToken
	a.ExpiresAt = sess.ExpiresAt
}

func clearSession(a *AuthState) {
	a.User = nil
	a.AccessToken = ""
	a.RefreshToken = ""
	a.ExpiresAt = time.Time{}
}

// Login validates the credentials and opens a session. Invalid input never
// reaches the service.
func (a *AuthStore) Login(ctx context.Context, in models.Credentials) (models.User, error) {
	const name = "login"
	if err := validation.Credentials(in).Err(); err != nil {
		return models.User{}, a.root.reject(SliceAuth, name, service.Invalid(err), nil)
	}
	return a.open(ctx, name, func(ctx context.Context) service.Result[models.Session] {
		return a.svc.Login(ctx, in)
	})
}

// Register validates the sign-up payload and opens a session for the new user.
func (a *AuthStore) Register(ctx context.Context, in models.Registration) (models.User, error) {
	const name = "register"
	if err := validation.Registration(in).Err(); err != nil {
		return models.User{}, a.root.reject(SliceAuth, name, service.Invalid(err), nil)
	}
	return a.open(ctx, name, func(ctx context.Context) service.Result[models.Session] {
		return a.svc.Register(ctx, in)
	})
}

func (a *AuthStore) open(ctx context.Context, name string, call func(context.Context) service.Result[models.Session]) (models.User, error) {
	sess, err := run(ctx, a.root, operation[models.Session]{
		slice: SliceAuth,
		name:  name,
		call:  call,
		fulfilled: func(s *State, sess models.Session) {
			setSession(&s.Auth, sess)
		},
	})
	return sess.User, err
}

// Logout clears the session locally, then revokes it remotely. The local state
// is cleared whatever the remote outcome; a remote failure is only logged.
func (a *AuthStore) Logout(ctx context.Context) error {
	token := a.root.GetState().Auth.AccessToken
	a.root.reset(SliceAuth)
	if token == "" {
		return nil
	}

	a.root.observer.OperationStarted(SliceAuth, "logout")
	started := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, a.root.timeout)
	defer cancel()
	err := a.svc.Logout(callCtx, token).Err()
	elapsed := time.Since(started)
	if err != nil {
		a.root.observer.OperationFinished(SliceAuth, "logout", OutcomeRejected, elapsed)
		a.root.log.Warn().Err(err).Msg("remote logout failed, session cleared locally")
		return nil
	}
	a.root.observer.OperationFinished(SliceAuth, "logout", OutcomeFulfilled, elapsed)
	a.root.log.Debug().Dur("elapsed", elapsed).Msg("logged out")
	return nil
}

// Refresh exchanges the refresh token for a new session. Any failure clears
// the session.
func (a *AuthStore) Refresh(ctx context.Context) error {
	const name = "refresh"
	token := a.root.GetState().Auth.RefreshToken
	if token == "" {
		return a.root.reject(SliceAuth, name,
			fmt.Errorf("%w: no refresh token", service.ErrInvalidToken),
			func(s *State) { clearSession(&s.Auth) })
	}
	_, err := run(ctx, a.root, operation[models.Session]{
		slice: SliceAuth,
		name:  name,
		call: func(ctx context.Context) service.Result[models.Session] {
			return a.svc.Refresh(ctx, token)
		},
		fulfilled: func(s *State, sess models.Session) {
			setSession(&s.Auth, sess)
		},
		rejected: func(s *State, _ error) {
			clearSession(&s.Auth)
		},
	})
	return err
}

// LoadProfile reloads the user of the current session.
func (a *AuthStore) LoadProfile(ctx context.Context) (models.User, error) {
	const name = "load profile"
	token := a.root.GetState().Auth.AccessToken
	if token == "" {
		return models.User{}, a.root.reject(SliceAuth, name, fmt.Errorf("%w: not logged in", service.ErrInvalidToken), nil)
	}
	return run(ctx, a.root, operation[models.User]{
		slice: SliceAuth,
		name:  name,
		call: func(ctx context.Context) service.Result[models.User] {
			return a.svc.Profile(ctx, token)
		},
		fulfilled: a.putUser,
	})
}

// UpdateProfile validates p and applies it to the current user.
func (a *AuthStore) UpdateProfile(ctx context.Context, p models.ProfileUpdate) (models.User, error) {
	const name = "update profile"
	if err := validation.ProfileUpdate(p).Err(); err != nil {
		return models.User{}, a.root.reject(SliceAuth, name, service.Invalid(err), nil)
	}
	token := a.root.GetState().Auth.AccessToken
	if token == "" {
		return models.User{}, a.root.reject(SliceAuth, name, fmt.Errorf("%w: not logged in", service.ErrInvalidToken), nil)
	}
	return run(ctx, a.root, operation[models.User]{
		slice: SliceAuth,
		name:  name,
		call: func(ctx context.Context) service.Result[models.User] {
			return a.svc.UpdateProfile(ctx, token, p)
		},
		fulfilled: a.putUser,
	})
}

func (a *AuthStore) putUser(s *State, u models.User) {
	s.Auth.User = &u
}
