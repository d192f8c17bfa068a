package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// principalKey is the echo context key the JWT middleware stores the
// caller's model.Principal under.
const principalKey = "principal"

// PrincipalFrom returns the authenticated caller, or model.Anonymous when
// no token was presented.
func PrincipalFrom(c echo.Context) model.Principal {
	if p, ok := c.Get(principalKey).(model.Principal); ok {
		return p
	}
	return model.Anonymous
}

// SetPrincipal stores p on c.  Tests use it to bypass token parsing.
func SetPrincipal(c echo.Context, p model.Principal) { c.Set(principalKey, p) }

// userID returns the caller's id as a string, "anon" when anonymous.
func userID(c echo.Context) string {
	p := PrincipalFrom(c)
	if p.IsAnonymous() {
		return "anon"
	}
	return strconv.FormatUint(p.UserID, 10)
}
