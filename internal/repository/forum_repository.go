package repository // repository defines data access for the discussion forum

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studentsadda/studentsadda/internal/model"
)

// ForumRepo provides methods to work with forum posts, comments and
// likes.  Author names are joined in for listings so the UI never needs a
// second round trip.
type ForumRepo struct {
	db *sql.DB
}

// NewForumRepo constructs a ForumRepo with the given DB handle.
func NewForumRepo(db *sql.DB) *ForumRepo {
	return &ForumRepo{db: db}
}

const postQuery = `SELECT p.id, p.author_id, u.name, p.title, p.body,
	(SELECT COUNT(*) FROM forum_likes fl WHERE fl.post_id = p.id),
	(SELECT COUNT(*) FROM forum_comments fc WHERE fc.post_id = p.id),
	p.created_at, p.updated_at
	FROM forum_posts p
	JOIN users u ON u.id = p.author_id`

func scanPost(row interface{ Scan(...any) error }) (*model.ForumPost, error) {
	var p model.ForumPost
	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Body,
		&p.Likes, &p.Comments, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePost inserts a post and populates the generated ID.
func (r *ForumRepo) CreatePost(ctx context.Context, authorID uint64, title, body string) (uint64, error) {
	const q = `INSERT INTO forum_posts (author_id, title, body) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, authorID, title, body)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// GetPost retrieves a post with its aggregate counts.
func (r *ForumRepo) GetPost(ctx context.Context, id uint64) (*model.ForumPost, error) {
	q := postQuery + ` WHERE p.id = ?`
	p, err := scanPost(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	return p, err
}

// ListPosts returns posts newest first.
func (r *ForumRepo) ListPosts(ctx context.Context, limit int) ([]model.ForumPost, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := postQuery + ` ORDER BY p.created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ForumPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// UpdatePost updates title and body while enforcing authorship.
func (r *ForumRepo) UpdatePost(ctx context.Context, id, authorID uint64, title, body string) error {
	const q = `UPDATE forum_posts SET title = ?, body = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND author_id = ?`
	res, err := r.db.ExecContext(ctx, q, title, body, id, authorID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetPost(ctx, id); err != nil {
			return err
		}
		return ErrForbidden
	}
	return nil
}

// DeletePost removes a post and, via cascades, its comments and likes.
// Authorship is enforced unless force is set (moderation by super-admin).
func (r *ForumRepo) DeletePost(ctx context.Context, id, authorID uint64, force bool) error {
	q := `DELETE FROM forum_posts WHERE id = ?`
	args := []any{id}
	if !force {
		q += ` AND author_id = ?`
		args = append(args, authorID)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetPost(ctx, id); err != nil {
			return err
		}
		return ErrForbidden
	}
	return nil
}

// ToggleLike flips the caller's like on a post and returns the new liked
// state.  Implemented as delete-then-insert so repeated calls alternate.
func (r *ForumRepo) ToggleLike(ctx context.Context, postID, userID uint64) (bool, error) {
	const del = `DELETE FROM forum_likes WHERE post_id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, del, postID, userID)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil // like removed
	}
	const ins = `INSERT INTO forum_likes (post_id, user_id) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, ins, postID, userID); err != nil {
		return false, err
	}
	return true, nil
}

const commentQuery = `SELECT c.id, c.post_id, c.author_id, u.name, c.body, c.created_at, c.updated_at
	FROM forum_comments c
	JOIN users u ON u.id = c.author_id`

// CreateComment inserts a comment and populates the generated ID.
func (r *ForumRepo) CreateComment(ctx context.Context, postID, authorID uint64, body string) (uint64, error) {
	const q = `INSERT INTO forum_comments (post_id, author_id, body) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, postID, authorID, body)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// GetComment retrieves a single comment.
func (r *ForumRepo) GetComment(ctx context.Context, id uint64) (*model.ForumComment, error) {
	q := commentQuery + ` WHERE c.id = ?`
	var cm model.ForumComment
	err := r.db.QueryRowContext(ctx, q, id).Scan(&cm.ID, &cm.PostID, &cm.AuthorID,
		&cm.AuthorName, &cm.Body, &cm.CreatedAt, &cm.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

// ListComments returns a post's comments oldest first.
func (r *ForumRepo) ListComments(ctx context.Context, postID uint64) ([]model.ForumComment, error) {
	q := commentQuery + ` WHERE c.post_id = ? ORDER BY c.created_at`
	rows, err := r.db.QueryContext(ctx, q, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ForumComment
	for rows.Next() {
		var cm model.ForumComment
		if err := rows.Scan(&cm.ID, &cm.PostID, &cm.AuthorID, &cm.AuthorName,
			&cm.Body, &cm.CreatedAt, &cm.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, cm)
	}
	return result, rows.Err()
}

// DeleteComment removes a comment while enforcing authorship unless force
// is set.
func (r *ForumRepo) DeleteComment(ctx context.Context, id, authorID uint64, force bool) error {
	q := `DELETE FROM forum_comments WHERE id = ?`
	args := []any{id}
	if !force {
		q += ` AND author_id = ?`
		args = append(args, authorID)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetComment(ctx, id); err != nil {
			return err
		}
		return ErrForbidden
	}
	return nil
}
