package auth

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type contextKey string

const (
	// UserKey holds the *SessionUser on the request context.
	UserKey contextKey = "session_user"
	// EchoUserKey holds the *SessionUser on the echo context.
	EchoUserKey = "user"
)

// SessionUser is the user embedded in a session token.
type SessionUser struct {
	ID    int64  `json:"id"`
	Phone string `json:"phone"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type Claims struct {
	User SessionUser `json:"user"`
	jwt.RegisteredClaims
}

type JWTConfig struct {
	SigningKey []byte
	// Sources overrides DefaultTokenSources.
	Sources []TokenSource
	Skipper echomw.Skipper
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
}

// JWTMiddleware verifies an HS256 session token and stores its user on the
// echo and request contexts. Missing or invalid tokens get a 401.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		return cfg.SigningKey, nil
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			tokenStr := ExtractToken(c, cfg.Sources...)
			if tokenStr == "" {
				return unauthorized(c)
			}

			claims := &Claims{}
			token, err := parser.ParseWithClaims(tokenStr, claims, keyFunc)
			if err != nil || !token.Valid {
				return unauthorized(c)
			}

			setUser(c, &claims.User)
			return next(c)
		}
	}
}

// DevAuthMiddleware is a permissive middleware for development. Requests
// without a token run as an anonymous admin with no phone, so no phone
// filter applies. Requests with a token are still verified when a signing
// key is configured.
func DevAuthMiddleware(signingKey []byte, skipper echomw.Skipper) echo.MiddlewareFunc {
	verify := JWTMiddleware(JWTConfig{SigningKey: signingKey})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		verified := verify(next)
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}
			if len(signingKey) > 0 && ExtractToken(c) != "" {
				return verified(c)
			}
			setUser(c, &SessionUser{Name: "dev-user", Role: "admin"})
			return next(c)
		}
	}
}

func setUser(c echo.Context, u *SessionUser) {
	c.Set(EchoUserKey, u)
	ctx := context.WithValue(c.Request().Context(), UserKey, u)
	c.SetRequest(c.Request().WithContext(ctx))
}

// UserFromContext returns the session user, or nil when the request was not
// authenticated.
func UserFromContext(ctx context.Context) *SessionUser {
	u, _ := ctx.Value(UserKey).(*SessionUser)
	return u
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *SessionUser) context.Context {
	return context.WithValue(ctx, UserKey, u)
}
