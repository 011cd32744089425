package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTer_IssueParse(t *testing.T) {
	j := New("s3cret", "acquisitions", time.Hour)

	tok, err := j.Issue("u-1", "admin")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.UID)
	assert.Equal(t, "admin", c.Role)
	assert.Equal(t, "acquisitions", c.Issuer)
}

func TestJWTer_Rejects(t *testing.T) {
	j := New("s3cret", "acquisitions", time.Hour)
	good, err := j.Issue("u-1", "user")
	require.NoError(t, err)

	otherSecret, _ := New("other", "acquisitions", time.Hour).Issue("u-1", "user")
	otherIssuer, _ := New("s3cret", "someone-else", time.Hour).Issue("u-1", "user")
	expired, _ := New("s3cret", "acquisitions", -2*time.Minute).Issue("u-1", "user")
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UID: "u-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"garbage":      "not.a.token",
		"wrong secret": otherSecret,
		"wrong issuer": otherIssuer,
		"expired":      expired,
		"alg none":     none,
		"tampered":     good + "x",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := j.Parse(tok)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}
