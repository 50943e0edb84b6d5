package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Claims struct {
	jwt.RegisteredClaims
	ClinicID string `json:"clinic_id"`
	Role     string `json:"role"`
}

type JWTConfig struct {
	SigningKey []byte
	Issuer     string
	Audience   string
}

// IssueToken signs an HS256 token for s. Used by the login collaborator and
// by tests.
func IssueToken(cfg JWTConfig, s Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ClinicID: s.ClinicID.String(),
		Role:     string(s.Role),
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.SigningKey)
}

func sessionFromClaims(claims *Claims) (Session, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Session{}, fmt.Errorf("invalid subject")
	}
	clinicID, err := uuid.Parse(claims.ClinicID)
	if err != nil {
		return Session{}, fmt.Errorf("invalid clinic_id")
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: userID, ClinicID: clinicID, Role: role}, nil
}

func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	keyFunc := func(*jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, keyFunc, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sess, err := sessionFromClaims(claims)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}

			c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), sess)))
			return next(c)
		}
	}
}

// DevAuthMiddleware trusts X-User-ID, X-Clinic-ID and X-Role headers. Only
// mounted when ENV=development.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header
			claims := &Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: h.Get("X-User-ID")},
				ClinicID:         h.Get("X-Clinic-ID"),
				Role:             h.Get("X-Role"),
			}
			if claims.Role == "" {
				claims.Role = string(RoleOwner)
			}
			sess, err := sessionFromClaims(claims)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "dev auth: "+err.Error())
			}
			c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), sess)))
			return next(c)
		}
	}
}

// SessionOf returns the session attached by one of the auth middlewares.
func SessionOf(c echo.Context) (Session, error) {
	s, ok := SessionFromContext(c.Request().Context())
	if !ok || !s.Valid() {
		return Session{}, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return s, nil
}
