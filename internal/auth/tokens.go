// Package auth issues session tokens and hashes passwords for the service backends.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Token kinds.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims are the JWT claims of a session token.
type Claims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer creates an issuer signing with secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		now:        time.Now,
	}
}

// WithClock returns a copy of the issuer reading time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	c := *i
	c.now = now
	return &c
}

// Issue creates a fresh access/refresh token pair for user.
func (i *Issuer) Issue(user models.User) (models.Session, error) {
	now := i.now()
	access, err := i.sign(user.ID, KindAccess, now, i.accessTTL)
	if err != nil {
		return models.Session{}, err
	}
	refresh, err := i.sign(user.ID, KindRefresh, now, i.refreshTTL)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(i.accessTTL),
	}, nil
}

func (i *Issuer) sign(subject, kind string, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "fintrack",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return token, nil
}

// Parse verifies token and returns the user id it was issued to.
func (i *Issuer) Parse(token, kind string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", service.ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Kind != kind || claims.Subject == "" {
		return "", fmt.Errorf("%w: not a valid %s token", service.ErrInvalidToken, kind)
	}
	return claims.Subject, nil
}

// HashToken returns the storage key of a token.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
