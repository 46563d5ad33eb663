package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken   = errors.New("authorization token missing")
	ErrMalformedToken = errors.New("authorization header must be 'Bearer <token>'")
	ErrInvalidToken   = errors.New("invalid or expired token")
)

// Claims is the session payload: who the caller is and whether they are an admin.
type Claims struct {
	UserID  uint `json:"id"`
	IsAdmin bool `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies HS256 session tokens.
type Issuer struct {
	secret         []byte
	expiry         time.Duration
	rememberExpiry time.Duration
	now            func() time.Time
}

func NewIssuer(secret string, expiry, rememberExpiry time.Duration) *Issuer {
	return &Issuer{
		secret:         []byte(secret),
		expiry:         expiry,
		rememberExpiry: rememberExpiry,
		now:            time.Now,
	}
}

// Issue signs a token for userID. remember selects the long-lived expiry.
func (i *Issuer) Issue(userID uint, isAdmin, remember bool) (string, time.Time, error) {
	ttl := i.expiry
	if remember {
		ttl = i.rememberExpiry
	}
	now := i.now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Keyfunc pins verification to HMAC with this issuer's secret.
func (i *Issuer) Keyfunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return i.secret, nil
}

// Verify checks signature and expiry and returns the claims.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, i.Keyfunc, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseAuthorization extracts the token from an Authorization header value.
func ParseAuthorization(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMalformedToken
	}
	return strings.TrimSpace(token), nil
}
