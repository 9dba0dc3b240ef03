package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studentsadda/studentsadda/internal/respond"
)

// RequireRole returns the third stage of the access-control gate.  It
// assumes Authenticate already attached an AuthContext.  An inactive user
// is rejected with 403 before the role set is consulted; a role outside
// the allowed set is likewise 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ac, err := AuthFrom(c)
			if err != nil {
				return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
			}
			if !ac.IsActive {
				return respond.Fail(c, http.StatusForbidden, "Forbidden", "account pending verification")
			}
			if !allowed[ac.User.Role] {
				return respond.Fail(c, http.StatusForbidden, "Forbidden", "insufficient role")
			}
			return next(c)
		}
	}
}
