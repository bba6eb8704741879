package auth

import (
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret")
	session, err := issuer.Issue(models.User{ID: "user-1", Email: "jo@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.User.ID)
	assert.NotEqual(t, session.AccessToken, session.RefreshToken)

	id, err := issuer.Parse(session.AccessToken, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	id, err = issuer.Parse(session.RefreshToken, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestIssuer_Rejects(t *testing.T) {
	issuer := NewIssuer("test-secret")
	session, err := issuer.Issue(models.User{ID: "user-1"})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		issuer *Issuer
		token  string
		kind   string
	}{
		{"wrong kind", issuer, session.AccessToken, KindRefresh},
		{"wrong secret", NewIssuer("other"), session.AccessToken, KindAccess},
		{"garbage", issuer, "not-a-token", KindAccess},
		{
			"expired",
			issuer.WithClock(func() time.Time { return time.Now().Add(DefaultAccessTTL + time.Minute) }),
			session.AccessToken,
			KindAccess,
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.issuer.Parse(tc.token, tc.kind)
			assert.ErrorIs(t, err, service.ErrInvalidToken)
		})
	}
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
