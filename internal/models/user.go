package models

import "time"

// User is the authenticated profile.
type User struct {
	ID        string    `bson:"_id" json:"id"`
	Email     string    `bson:"email" json:"email"`
	FirstName string    `bson:"firstName" json:"firstName"`
	LastName  string    `bson:"lastName" json:"lastName"`
	Currency  string    `bson:"currency,omitempty" json:"currency,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Session is the result of a successful login, registration or refresh.
type Session struct {
	User         User      `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string
	Password string
}

// Registration is the sign-up payload.
type Registration struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	Currency        string
}

// ProfileUpdate is a partial profile update.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Currency  *string
}

// Apply returns a copy of u with the update applied.
func (p ProfileUpdate) Apply(u User) User {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Currency != nil {
		u.Currency = *p.Currency
	}
	return u
}
