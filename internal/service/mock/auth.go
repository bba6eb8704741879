package mock

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/validation"

	"github.com/google/uuid"
)

type authService struct{ b *Backend }

func (s *authService) Login(ctx context.Context, in models.Credentials) service.Result[models.Session] {
	return service.Guard(func() service.Result[models.Session] {
		if err := validation.Credentials(in).Err(); err != nil {
			return service.Err[models.Session](service.Invalid(err))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.Session](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		id, ok := s.b.emails[normalizeEmail(in.Email)]
		if !ok || !auth.CheckPassword(s.b.users[id].passwordHash, in.Password) {
			return service.Err[models.Session](service.ErrInvalidCredentials)
		}
		return s.openSession(s.b.users[id].user)
	})
}

func (s *authService) Register(ctx context.Context, in models.Registration) service.Result[models.Session] {
	return service.Guard(func() service.Result[models.Session] {
		if err := validation.Registration(in).Err(); err != nil {
			return service.Err[models.Session](service.Invalid(err))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.Session](err)
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return service.Err[models.Session](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		email := normalizeEmail(in.Email)
		if _, exists := s.b.emails[email]; exists {
			return service.Err[models.Session](fmt.Errorf("email %s %w", email, service.ErrConflict))
		}
		currency := in.Currency
		if currency == "" {
			currency = "USD"
		}
		user := models.User{
			ID:        uuid.NewString(),
			Email:     email,
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
			Currency:  currency,
			CreatedAt: s.b.now(),
		}
		s.b.users[user.ID] = userRecord{user: user, passwordHash: hash}
		s.b.emails[email] = user.ID
		return s.openSession(user)
	})
}

func (s *authService) Logout(ctx context.Context, accessToken string) service.Result[struct{}] {
	return service.Guard(func() service.Result[struct{}] {
		if accessToken == "" {
			return service.Err[struct{}](fmt.Errorf("%w: access token is required", service.ErrInvalidInput))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[struct{}](err)
		}
		if _, err := s.b.issuer.Parse(accessToken, auth.KindAccess); err != nil {
			return service.Err[struct{}](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		s.b.revoked[auth.HashToken(accessToken)] = true
		return service.Ok(struct{}{})
	})
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) service.Result[models.Session] {
	return service.Guard(func() service.Result[models.Session] {
		if refreshToken == "" {
			return service.Err[models.Session](fmt.Errorf("%w: refresh token is required", service.ErrInvalidInput))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.Session](err)
		}
		id, err := s.b.issuer.Parse(refreshToken, auth.KindRefresh)
		if err != nil {
			return service.Err[models.Session](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		key := auth.HashToken(refreshToken)
		if s.b.sessions[key] != id {
			return service.Err[models.Session](fmt.Errorf("%w: session revoked", service.ErrInvalidToken))
		}
		delete(s.b.sessions, key)
		rec, ok := s.b.users[id]
		if !ok {
			return service.Err[models.Session](service.NotFound("user", id))
		}
		return s.openSession(rec.user)
	})
}

func (s *authService) Profile(ctx context.Context, accessToken string) service.Result[models.User] {
	return service.Guard(func() service.Result[models.User] {
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.User](err)
		}
		s.b.mu.RLock()
		defer s.b.mu.RUnlock()
		rec, err := s.authorize(accessToken)
		if err != nil {
			return service.Err[models.User](err)
		}
		return service.Ok(rec.user)
	})
}

func (s *authService) UpdateProfile(ctx context.Context, accessToken string, p models.ProfileUpdate) service.Result[models.User] {
	return service.Guard(func() service.Result[models.User] {
		if err := validation.ProfileUpdate(p).Err(); err != nil {
			return service.Err[models.User](service.Invalid(err))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.User](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		rec, err := s.authorize(accessToken)
		if err != nil {
			return service.Err[models.User](err)
		}
		rec.user = p.Apply(rec.user)
		s.b.users[rec.user.ID] = rec
		return service.Ok(rec.user)
	})
}

// authorize resolves the user of an access token. Callers hold b.mu.
func (s *authService) authorize(accessToken string) (userRecord, error) {
	id, err := s.b.issuer.Parse(accessToken, auth.KindAccess)
	if err != nil {
		return userRecord{}, err
	}
	if s.b.revoked[auth.HashToken(accessToken)] {
		return userRecord{}, fmt.Errorf("%w: token revoked", service.ErrInvalidToken)
	}
	rec, ok := s.b.users[id]
	if !ok {
		return userRecord{}, service.NotFound("user", id)
	}
	return rec, nil
}

// openSession issues tokens and records the refresh token. Callers hold b.mu.
func (s *authService) openSession(user models.User) service.Result[models.Session] {
	session, err := s.b.issuer.Issue(user)
	if err != nil {
		return service.Err[models.Session](err)
	}
	s.b.sessions[auth.HashToken(session.RefreshToken)] = user.ID
	return service.Ok(session)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
