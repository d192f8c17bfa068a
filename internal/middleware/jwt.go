package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the caller's model.Principal, built from the sub and role claims,
// in the request context.  Requests without a valid token get 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			p, err := ParsePrincipal(strings.TrimPrefix(auth, "Bearer "), secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			SetPrincipal(c, p)
			return next(c)
		}
	}
}

// OptionalJWT behaves like JWTAuth when an Authorization header is sent and
// lets the request through as anonymous when it is not.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	required := JWTAuth(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withToken := required(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				SetPrincipal(c, model.Anonymous)
				return next(c)
			}
			return withToken(c)
		}
	}
}

// ParsePrincipal verifies an HS256 token signed with secret and returns
// the principal it names.  sub may be a JSON number or a numeric string;
// role must be one of guest, hotelier, admin.
func ParsePrincipal(raw, secret string) (model.Principal, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return model.Principal{}, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return model.Principal{}, errors.New("invalid claims")
	}

	id, err := subject(claims["sub"])
	if err != nil {
		return model.Principal{}, err
	}
	roleClaim, _ := claims["role"].(string)
	role := model.Role(strings.ToLower(roleClaim))
	switch role {
	case model.RoleGuest, model.RoleHotelier, model.RoleAdmin:
	default:
		return model.Principal{}, fmt.Errorf("unknown role %q", roleClaim)
	}
	return model.Principal{UserID: id, Role: role}, nil
}

func subject(v any) (uint64, error) {
	switch s := v.(type) {
	case float64:
		if s <= 0 || s != float64(uint64(s)) {
			return 0, fmt.Errorf("invalid sub %v", s)
		}
		return uint64(s), nil
	case string:
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			return 0, fmt.Errorf("invalid sub %q", s)
		}
		return id, nil
	}
	return 0, errors.New("missing sub")
}
