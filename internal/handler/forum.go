package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/studentsadda/studentsadda/internal/middleware"
	"github.com/studentsadda/studentsadda/internal/model"
	"github.com/studentsadda/studentsadda/internal/repository"
	"github.com/studentsadda/studentsadda/internal/respond"
)

// ForumHandler manages community posts, comments and likes.
type ForumHandler struct {
	Forum *repository.ForumRepo
	Log   *logrus.Logger
}

// NewForumHandler constructs a ForumHandler.
func NewForumHandler(forum *repository.ForumRepo, log *logrus.Logger) *ForumHandler {
	if forum == nil {
		panic("nil repository passed to NewForumHandler")
	}
	return &ForumHandler{Forum: forum, Log: log}
}

type postReq struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (r *postReq) validate() string {
	r.Title = strings.TrimSpace(r.Title)
	r.Body = strings.TrimSpace(r.Body)
	if r.Title == "" {
		return "title is required"
	}
	if r.Body == "" {
		return "body is required"
	}
	return ""
}

// CreatePost handles POST /v1/forum/posts.
func (h *ForumHandler) CreatePost(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	var req postReq
	if err := c.Bind(&req); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", msg)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Forum.CreatePost(ctx, ac.User.ID, req.Title, req.Body)
	if err != nil {
		h.Log.WithError(err).Error("post create failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "post create failed")
	}
	post, err := h.Forum.GetPost(ctx, id)
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "post reload failed")
	}
	return respond.OKMsg(c, http.StatusCreated, post, "post created")
}

// ListPosts handles GET /v1/forum/posts?limit=.
func (h *ForumHandler) ListPosts(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid limit")
		}
		limit = n
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	posts, err := h.Forum.ListPosts(ctx, limit)
	if err != nil {
		h.Log.WithError(err).Error("post list failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "post list failed")
	}
	if posts == nil {
		posts = []model.ForumPost{}
	}
	return respond.OK(c, http.StatusOK, posts)
}

// GetPost handles GET /v1/forum/posts/:id, returning the post together
// with its comments.
func (h *ForumHandler) GetPost(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	post, err := h.Forum.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "post not found")
		}
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "post lookup failed")
	}
	comments, err := h.Forum.ListComments(ctx, id)
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "comment list failed")
	}
	if comments == nil {
		comments = []model.ForumComment{}
	}
	return respond.OK(c, http.StatusOK, echo.Map{"post": post, "comments": comments})
}

// UpdatePost handles PUT /v1/forum/posts/:id; only the author may edit.
func (h *ForumHandler) UpdatePost(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	var req postReq
	if err := c.Bind(&req); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", msg)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Forum.UpdatePost(ctx, id, ac.User.ID, req.Title, req.Body); err != nil {
		switch {
		case errors.Is(err, repository.ErrPostNotFound):
			return respond.Fail(c, http.StatusNotFound, "Not Found", "post not found")
		case errors.Is(err, repository.ErrForbidden):
			return respond.Fail(c, http.StatusForbidden, "Forbidden", "not your post")
		}
		h.Log.WithError(err).Error("post update failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "post update failed")
	}
	post, err := h.Forum.GetPost(ctx, id)
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "post reload failed")
	}
	return respond.OKMsg(c, http.StatusOK, post, "post updated")
}

// DeletePost handles DELETE /v1/forum/posts/:id.  Authors delete their own
// posts; super-admins may delete any post.
func (h *ForumHandler) DeletePost(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	force := ac.User.Role == model.RoleSuperAdmin
	if err := h.Forum.DeletePost(ctx, id, ac.User.ID, force); err != nil {
		switch {
		case errors.Is(err, repository.ErrPostNotFound):
			return respond.Fail(c, http.StatusNotFound, "Not Found", "post not found")
		case errors.Is(err, repository.ErrForbidden):
			return respond.Fail(c, http.StatusForbidden, "Forbidden", "not your post")
		}
		h.Log.WithError(err).Error("post delete failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "post delete failed")
	}
	return respond.OKMsg(c, http.StatusOK, nil, "post deleted")
}

// ToggleLike handles POST /v1/forum/posts/:id/like.
func (h *ForumHandler) ToggleLike(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Forum.GetPost(ctx, id); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "post not found")
		}
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "post lookup failed")
	}
	liked, err := h.Forum.ToggleLike(ctx, id, ac.User.ID)
	if err != nil {
		h.Log.WithError(err).Error("like toggle failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "like toggle failed")
	}
	msg := "like removed"
	if liked {
		msg = "post liked"
	}
	return respond.OKMsg(c, http.StatusOK, echo.Map{"liked": liked}, msg)
}

type commentReq struct {
	Body string `json:"body"`
}

// CreateComment handles POST /v1/forum/posts/:id/comments.
func (h *ForumHandler) CreateComment(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "body is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Forum.GetPost(ctx, id); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "post not found")
		}
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "post lookup failed")
	}
	commentID, err := h.Forum.CreateComment(ctx, id, ac.User.ID, req.Body)
	if err != nil {
		h.Log.WithError(err).Error("comment create failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "comment create failed")
	}
	comment, err := h.Forum.GetComment(ctx, commentID)
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "comment reload failed")
	}
	return respond.OKMsg(c, http.StatusCreated, comment, "comment added")
}

// DeleteComment handles DELETE /v1/forum/comments/:id.
func (h *ForumHandler) DeleteComment(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	force := ac.User.Role == model.RoleSuperAdmin
	if err := h.Forum.DeleteComment(ctx, id, ac.User.ID, force); err != nil {
		switch {
		case errors.Is(err, repository.ErrCommentNotFound):
			return respond.Fail(c, http.StatusNotFound, "Not Found", "comment not found")
		case errors.Is(err, repository.ErrForbidden):
			return respond.Fail(c, http.StatusForbidden, "Forbidden", "not your comment")
		}
		h.Log.WithError(err).Error("comment delete failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "comment delete failed")
	}
	return respond.OKMsg(c, http.StatusOK, nil, "comment deleted")
}
