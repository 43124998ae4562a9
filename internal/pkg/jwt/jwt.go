// Package jwt implements the stateless access-token codec. Tokens are
// HS256-signed and carry {subject, role, iat, exp} plus optional issuer and
// audience claims. Verification pins the algorithm; a token signed with
// anything but HS256 is rejected regardless of its claims.
package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpired      = errors.New("token expired")
	ErrBadSignature = errors.New("token signature invalid")
	ErrMalformed    = errors.New("token malformed")
)

// Claims is the JWT payload. Subject holds the user ID.
type Claims struct {
	Role string `json:"role"`
	jwtlib.RegisteredClaims
}

// Codec signs and verifies access tokens with a single shared secret.
type Codec struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string
}

// NewCodec builds a codec. Issuer and audience are optional; when set they
// are embedded on sign and enforced on parse.
func NewCodec(secret string, ttl time.Duration, issuer, audience string) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, issuer: issuer, audience: audience}
}

// TTL returns the configured access-token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Sign creates a signed access token for the given user and role.
func (c *Codec) Sign(userID, role string, now time.Time) (string, error) {
	claims := Claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.ttl)),
		},
	}
	if c.issuer != "" {
		claims.Issuer = c.issuer
	}
	if c.audience != "" {
		claims.Audience = jwtlib.ClaimStrings{c.audience}
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Parse validates a token string and returns the claims.
func (c *Codec) Parse(tokenStr string) (*Claims, error) {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(c.issuer))
	}
	if c.audience != "" {
		opts = append(opts, jwtlib.WithAudience(c.audience))
	}

	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, ErrBadSignature
		}
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, translateError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}

func translateError(err error) error {
	switch {
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid),
		errors.Is(err, jwtlib.ErrTokenUnverifiable),
		errors.Is(err, jwtlib.ErrTokenInvalidIssuer),
		errors.Is(err, jwtlib.ErrTokenInvalidAudience),
		errors.Is(err, jwtlib.ErrTokenRequiredClaimMissing):
		return ErrBadSignature
	default:
		return ErrMalformed
	}
}
