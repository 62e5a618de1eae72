package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/km-arc/armature/framework/dispatch"
	"github.com/km-arc/armature/framework/logging"
)

// Claims is the token payload the auth middleware verifies.
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for subject, valid for ttl.
func IssueToken(secret []byte, subject string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// auth authenticates the bearer token and attaches the principal. When
// roles are given the principal must hold at least one of them.
func (b *Builder) auth(roles []string) dispatch.Middleware {
	return func(c *dispatch.Context, next dispatch.Next) error {
		raw := c.Request().BearerToken()
		if raw == "" {
			return dispatch.ErrUnauthorized("missing bearer token")
		}

		claims, err := b.verify(raw)
		if err != nil {
			// The log gets the real reason, the response stays generic.
			b.log.WithFields(logging.Fields{
				"request_id": c.RequestID,
				"path":       c.Path(),
			}).WithError(err).Warn("token rejected")
			return dispatch.ErrUnauthorized("invalid or expired token")
		}

		p := &dispatch.Principal{
			Subject: claims.Subject,
			Name:    claims.Name,
			Roles:   claims.Roles,
		}
		if len(roles) > 0 && !holdsAny(p, roles) {
			return dispatch.ErrForbidden("")
		}

		c.SetPrincipal(p)
		return next()
	}
}

func (b *Builder) verify(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return b.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func holdsAny(p *dispatch.Principal, roles []string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}
