package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
)

var (
	ErrMissingToken = core.NewAuthError(errors.New("missing or malformed jwt"), false)
	ErrInvalidToken = core.NewAuthError(errors.New("invalid or expired jwt"), false)

	errInvalidClaims = errors.New("invalid claims")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Role       core.Role `json:"role"`
	CoachingID string    `json:"coaching_id,omitempty"`
}

func (c Claims) Valid() error {
	if err := c.RegisteredClaims.Valid(); err != nil {
		return err
	}
	if c.Subject == "" || !c.Role.Valid() {
		return errInvalidClaims
	}
	return nil
}

func (c Claims) Identity() core.Identity {
	return core.Identity{ID: c.Subject, Role: c.Role, CoachingID: c.CoachingID}
}

// TokenIssuer signs and parses HS256 identity tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	expiry time.Duration
}

func NewTokenIssuer(conf *core.Config) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(conf.SecretKey),
		issuer: conf.AppName,
		expiry: conf.Server.JWTExpirationDelta,
	}
}

func (ti *TokenIssuer) claims(id core.Identity) Claims {
	now := core.NowFunc()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.expiry)),
		},
		Role:       id.Role,
		CoachingID: id.CoachingID,
	}
}

// Issue generates a signed JWT token string representing the identity.
func (ti *TokenIssuer) Issue(id core.Identity) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ti.claims(id))
	ss, err := token.SignedString(ti.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Parse verifies the token's signature, expiry and claims, and returns the identity it carries.
func (ti *TokenIssuer) Parse(tokenStr string) (core.Identity, error) {
	if tokenStr == "" {
		return core.Identity{}, ErrMissingToken
	}
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		return core.Identity{}, ErrInvalidToken
	}
	return claims.Identity(), nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
