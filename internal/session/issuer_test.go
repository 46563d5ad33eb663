package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("secret", 24*time.Hour, 7*24*time.Hour)

	token, expiresAt, err := issuer.Issue(42, true, false)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "42", claims.Subject)
}

func TestRememberExtendsExpiry(t *testing.T) {
	issuer := NewIssuer("secret", 24*time.Hour, 7*24*time.Hour)

	_, expiresAt, err := issuer.Issue(1, false, true)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, time.Minute)
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := issuer.Issue(1, false, false)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewIssuer("other-secret", time.Hour, time.Hour)
	foreign, _, err := other.Issue(1, true, false)
	require.NoError(t, err)
	_, err = issuer.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "missing", header: "", wantErr: ErrMissingToken},
		{name: "no scheme", header: "abc.def", wantErr: ErrMalformedToken},
		{name: "wrong scheme", header: "Basic abc", wantErr: ErrMalformedToken},
		{name: "empty token", header: "Bearer ", wantErr: ErrMalformedToken},
		{name: "ok", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer xyz", want: "xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAuthorization(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
