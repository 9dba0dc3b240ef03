package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/studentsadda/studentsadda/internal/middleware"
	"github.com/studentsadda/studentsadda/internal/model"
	"github.com/studentsadda/studentsadda/internal/repository"
	"github.com/studentsadda/studentsadda/internal/respond"
)

// UserHandler bundles dependencies for user endpoints.  Sync carries its
// own token verification because it runs before a user row exists, which
// is exactly the case the Authenticate middleware rejects with 404.
type UserHandler struct {
	Users    *repository.UserRepo
	Verifier middleware.TokenVerifier
	Log      *logrus.Logger
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *repository.UserRepo, verifier middleware.TokenVerifier, log *logrus.Logger) *UserHandler {
	if users == nil || verifier == nil {
		panic("nil dependency passed to NewUserHandler")
	}
	return &UserHandler{Users: users, Verifier: verifier, Log: log}
}

type syncReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Sync handles POST /v1/users/sync.  Called by the gateway after login, it
// upserts the user keyed by the token's subject id.  The body may override
// the token's profile claims (some providers omit name/email).
func (h *UserHandler) Sync(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	claims, err := h.Verifier.Verify(ctx, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "invalid token")
	}

	var req syncReq
	_ = c.Bind(&req) // body is optional
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = claims.Name
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		email = strings.ToLower(claims.Email)
	}
	if name == "" || email == "" {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "name and email are required")
	}

	u, err := h.Users.UpsertBySubject(ctx, claims.Subject, name, email)
	if err != nil {
		h.Log.WithError(err).Error("user sync failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "profile sync failed")
	}
	return respond.OK(c, http.StatusOK, u)
}

// Me handles GET /v1/users/me.
func (h *UserHandler) Me(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	return respond.OK(c, http.StatusOK, ac.User)
}

type updateMeReq struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatarUrl"`
}

// UpdateMe handles PATCH /v1/users/me with a partial field set.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	var req updateMeReq
	if err := c.Bind(&req); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "name cannot be empty")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, ac.User.ID, req.Name, req.Phone, req.AvatarURL); err != nil {
		h.Log.WithError(err).Error("profile update failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "profile update failed")
	}
	u, err := h.Users.GetByID(ctx, ac.User.ID)
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "profile reload failed")
	}
	return respond.OKMsg(c, http.StatusOK, u, "profile updated")
}

// List handles GET /v1/superadmin/users.  The role query parameter
// filters the listing.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	role := strings.ToUpper(strings.TrimSpace(c.QueryParam("role")))
	switch role {
	case "", model.RoleMember, model.RoleAdmin, model.RoleSuperAdmin:
	default:
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "unknown role filter")
	}
	users, err := h.Users.List(ctx, role)
	if err != nil {
		h.Log.WithError(err).Error("user list failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "user list failed")
	}
	return respond.OK(c, http.StatusOK, users)
}

// Verify handles PATCH /v1/superadmin/users/:id/verify.  Verification
// activates admin accounts.
func (h *UserHandler) Verify(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetVerified(ctx, id, true); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "user not found")
		}
		h.Log.WithError(err).Error("user verify failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "verification failed")
	}
	return respond.OKMsg(c, http.StatusOK, nil, "user verified")
}
