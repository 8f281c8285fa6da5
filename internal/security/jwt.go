package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for every verification failure: bad signature,
// expired, wrong type, wrong audience. Callers never learn which.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	TokenType string `json:"token_type"`
	DeviceID  string `json:"device_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies access and refresh tokens. The two kinds use
// distinct secrets so a leaked access secret cannot mint refresh tokens.
type TokenCodec struct {
	issuer        string
	audience      string
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

func NewTokenCodec(issuer, audience, accessSecret, refreshSecret string) *TokenCodec {
	return &TokenCodec{
		issuer:        issuer,
		audience:      audience,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
}

// WithTimeFunc overrides the codec's clock. Tests use it to move tokens
// across their expiry without sleeping.
func (c *TokenCodec) WithTimeFunc(now func() time.Time) *TokenCodec {
	c.now = now
	return c
}

// SignAccessToken mints an access token for the user. Access tokens carry no
// device id: they are not individually revocable.
func (c *TokenCodec) SignAccessToken(userID string, ttl time.Duration) (string, error) {
	now := c.now()
	claims := Claims{
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			Audience:  []string{c.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
}

// SignRefreshToken mints a refresh token bound to one session (device) id.
func (c *TokenCodec) SignRefreshToken(userID, deviceID string, ttl time.Duration) (string, error) {
	now := c.now()
	claims := Claims{
		TokenType: "refresh",
		DeviceID:  deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			Audience:  []string{c.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
}

func (c *TokenCodec) ParseAccessToken(raw string) (*Claims, error) {
	return c.parse(raw, c.accessSecret, "access")
}

func (c *TokenCodec) ParseRefreshToken(raw string) (*Claims, error) {
	return c.parse(raw, c.refreshSecret, "refresh")
}

func (c *TokenCodec) parse(raw string, secret []byte, tokenType string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithIssuer(c.issuer), jwt.WithAudience(c.audience), jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
