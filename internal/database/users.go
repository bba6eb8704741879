package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/validation"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Session document kinds. Both expire through the TTL index on expiresAt.
const (
	sessionRefresh = "refresh"
	sessionRevoked = "revoked"
)

type userDoc struct {
	models.User  `bson:",inline"`
	PasswordHash string `bson:"passwordHash"`
}

type sessionDoc struct {
	Hash      string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	UserID    string    `bson:"userId"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

type authService struct{ db *DB }

func (s *authService) users() *mongo.Collection    { return s.db.coll(collUsers) }
func (s *authService) sessions() *mongo.Collection { return s.db.coll(collSessions) }

func (s *authService) Login(ctx context.Context, in models.Credentials) service.Result[models.Session] {
	return service.Guard(func() service.Result[models.Session] {
		if err := validation.Credentials(in).Err(); err != nil {
			return service.Err[models.Session](service.Invalid(err))
		}
		var doc userDoc
		err := s.users().FindOne(ctx, bson.M{"email": normalizeEmail(in.Email)}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return service.Err[models.Session](service.ErrInvalidCredentials)
		}
		if err != nil {
			return service.Err[models.Session](fmt.Errorf("failed to find user: %w", err))
		}
		if !auth.CheckPassword(doc.PasswordHash, in.Password) {
			return service.Err[models.Session](service.ErrInvalidCredentials)
		}
		return s.openSession(ctx, doc.User)
	})
}

func (s *authService) Register(ctx context.Context, in models.Registration) service.Result[models.Session] {
	return service.Guard(func() service.Result[models.Session] {
		if err := validation.Registration(in).Err(); err != nil {
			return service.Err[models.Session](service.Invalid(err))
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return service.Err[models.Session](err)
		}
		currency := in.Currency
		if currency == "" {
			currency = "USD"
		}
		doc := userDoc{
			User: models.User{
				ID:        uuid.NewString(),
				Email:     normalizeEmail(in.Email),
				FirstName: strings.TrimSpace(in.FirstName),
				LastName:  strings.TrimSpace(in.LastName),
				Currency:  currency,
				CreatedAt: s.db.now(),
			},
			PasswordHash: hash,
		}
		if _, err := s.users().InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return service.Err[models.Session](fmt.Errorf("email %s %w", doc.Email, service.ErrConflict))
			}
			return service.Err[models.Session](fmt.Errorf("failed to insert user: %w", err))
		}
		return s.openSession(ctx, doc.User)
	})
}

// Logout revokes the access token until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, accessToken string) service.Result[struct{}] {
	return service.Guard(func() service.Result[struct{}] {
		id, err := s.db.issuer.Parse(accessToken, auth.KindAccess)
		if err != nil {
			return service.Err[struct{}](err)
		}
		doc := sessionDoc{
			Hash:      auth.HashToken(accessToken),
			Kind:      sessionRevoked,
			UserID:    id,
			ExpiresAt: s.db.now().Add(auth.DefaultAccessTTL),
		}
		if _, err := s.sessions().InsertOne(ctx, doc); err != nil && !mongo.IsDuplicateKeyError(err) {
			return service.Err[struct{}](fmt.Errorf("failed to revoke token: %w", err))
		}
		return service.Ok(struct{}{})
	})
}

// Refresh consumes the refresh token and opens a new session.
func (s *authService) Refresh(ctx context.Context, refreshToken string) service.Result[models.Session] {
	return service.Guard(func() service.Result[models.Session] {
		id, err := s.db.issuer.Parse(refreshToken, auth.KindRefresh)
		if err != nil {
			return service.Err[models.Session](err)
		}
		filter := bson.M{"_id": auth.HashToken(refreshToken), "kind": sessionRefresh, "userId": id}
		err = s.sessions().FindOneAndDelete(ctx, filter).Err()
		if errors.Is(err, mongo.ErrNoDocuments) {
			return service.Err[models.Session](fmt.Errorf("%w: session revoked", service.ErrInvalidToken))
		}
		if err != nil {
			return service.Err[models.Session](fmt.Errorf("failed to consume refresh token: %w", err))
		}
		user, err := findByID[userDoc](ctx, s.users(), "user", id)
		if err != nil {
			return service.Err[models.Session](fmt.Errorf("failed to find user: %w", err))
		}
		return s.openSession(ctx, user.User)
	})
}

func (s *authService) Profile(ctx context.Context, accessToken string) service.Result[models.User] {
	return service.Guard(func() service.Result[models.User] {
		doc, err := s.authorize(ctx, accessToken)
		if err != nil {
			return service.Err[models.User](err)
		}
		return service.Ok(doc.User)
	})
}

func (s *authService) UpdateProfile(ctx context.Context, accessToken string, p models.ProfileUpdate) service.Result[models.User] {
	return service.Guard(func() service.Result[models.User] {
		if err := validation.ProfileUpdate(p).Err(); err != nil {
			return service.Err[models.User](service.Invalid(err))
		}
		doc, err := s.authorize(ctx, accessToken)
		if err != nil {
			return service.Err[models.User](err)
		}
		user := p.Apply(doc.User)
		set := bson.M{"firstName": user.FirstName, "lastName": user.LastName, "currency": user.Currency}
		if _, err := s.users().UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set}); err != nil {
			return service.Err[models.User](fmt.Errorf("failed to update profile: %w", err))
		}
		return service.Ok(user)
	})
}

// authorize resolves the user of a valid, unrevoked access token.
func (s *authService) authorize(ctx context.Context, accessToken string) (userDoc, error) {
	id, err := s.db.issuer.Parse(accessToken, auth.KindAccess)
	if err != nil {
		return userDoc{}, err
	}
	revoked, err := s.sessions().CountDocuments(ctx, bson.M{"_id": auth.HashToken(accessToken), "kind": sessionRevoked})
	if err != nil {
		return userDoc{}, fmt.Errorf("failed to check token: %w", err)
	}
	if revoked > 0 {
		return userDoc{}, fmt.Errorf("%w: token revoked", service.ErrInvalidToken)
	}
	doc, err := findByID[userDoc](ctx, s.users(), "user", id)
	if err != nil {
		return userDoc{}, fmt.Errorf("failed to find user: %w", err)
	}
	return doc, nil
}

// openSession issues tokens and records the refresh token hash.
func (s *authService) openSession(ctx context.Context, user models.User) service.Result[models.Session] {
	session, err := s.db.issuer.Issue(user)
	if err != nil {
		return service.Err[models.Session](err)
	}
	doc := sessionDoc{
		Hash:      auth.HashToken(session.RefreshToken),
		Kind:      sessionRefresh,
		UserID:    user.ID,
		ExpiresAt: s.db.now().Add(auth.DefaultRefreshTTL),
	}
	if _, err := s.sessions().InsertOne(ctx, doc); err != nil {
		return service.Err[models.Session](fmt.Errorf("failed to store session: %w", err))
	}
	return service.Ok(session)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
