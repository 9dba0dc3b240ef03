package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentsadda/studentsadda/internal/model"
)

func TestRequireRole(t *testing.T) {
	invoke := func(t *testing.T, ac *AuthContext, roles ...string) *httptest.ResponseRecorder {
		t.Helper()
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if ac != nil {
			SetAuth(c, ac)
		}
		handler := RequireRole(roles...)(func(c echo.Context) error {
			return c.String(http.StatusOK, "ok")
		})
		require.NoError(t, handler(c))
		return rec
	}

	member := &AuthContext{
		Subject:  "sub-1",
		User:     &model.User{ID: 1, Role: model.RoleMember},
		IsActive: true,
	}
	unverifiedAdmin := &AuthContext{
		Subject:  "sub-2",
		User:     &model.User{ID: 2, Role: model.RoleAdmin, IsVerified: false},
		IsActive: false,
	}
	verifiedAdmin := &AuthContext{
		Subject:  "sub-3",
		User:     &model.User{ID: 3, Role: model.RoleAdmin, IsVerified: true},
		IsActive: true,
	}

	t.Run("no auth context yields 401", func(t *testing.T) {
		rec := invoke(t, nil, model.RoleMember)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("inactive admin yields 403 before role check", func(t *testing.T) {
		rec := invoke(t, unverifiedAdmin, model.RoleAdmin)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "pending verification")
	})

	t.Run("role outside the set yields 403", func(t *testing.T) {
		rec := invoke(t, member, model.RoleAdmin, model.RoleSuperAdmin)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "insufficient role")
	})

	t.Run("allowed role passes", func(t *testing.T) {
		rec := invoke(t, verifiedAdmin, model.RoleAdmin, model.RoleSuperAdmin)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("member allowed on member routes", func(t *testing.T) {
		rec := invoke(t, member, model.RoleMember, model.RoleAdmin, model.RoleSuperAdmin)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
