package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
)

// Token kinds. Access tokens are verified purely in-memory; refresh tokens
// additionally require a live ledger entry. Password reset tokens are opaque
// ledger-only values and never go through the codec.
const (
	KindAccess        = "access"
	KindRefresh       = "refresh"
	KindPasswordReset = "password_reset"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrWrongTokenKind = errors.New("unexpected token type")
	ErrBadSignature   = errors.New("token signature is invalid")
)

// Claims represents the payload transmitted via a signed bearer token.
type Claims struct {
	Kind string `json:"type"`
	Role string `json:"role,omitempty"` // access tokens only
	jwt.RegisteredClaims
}

// Codec signs and verifies compact self-describing bearer tokens. Each kind
// is signed with its own secret, so a leaked access-signing key cannot be
// used to forge refresh tokens.
type Codec struct {
	conf    core.AuthConfig
	appName string
}

func NewCodec(conf *core.Config) *Codec {
	return &Codec{conf: conf.Auth, appName: conf.AppName}
}

func (c *Codec) secret(kind string) []byte {
	if kind == KindRefresh {
		return c.conf.RefreshSecret
	}
	return c.conf.AccessSecret
}

// Issue produces a signed token of the given kind for the subject. The role
// snapshot is only embedded in access tokens.
func (c *Codec) Issue(kind, subject, role string, ttl time.Duration) (string, error) {
	now := nowFunc().UTC()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.appName,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if kind == KindAccess {
		claims.Role = role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(c.secret(kind))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Verify checks the token's structure, signature and expiry and that its
// type discriminant matches the expected kind. It has no side effects.
func (c *Codec) Verify(token, kind string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(
		token,
		&Claims{},
		func(t *jwt.Token) (interface{}, error) { return c.secret(kind), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return nowFunc().UTC() }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		default:
			return nil, ErrTokenMalformed
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Kind != kind {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}
