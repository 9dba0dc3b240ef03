package model

import "time"

// ForumPost is a discussion thread opened by a user.
//
// Fields:
//
//	ID         – primary key identifier.
//	AuthorID   – user who created the post.
//	AuthorName – denormalized author display name for listings.
//	Title      – post title.
//	Body       – post body.
//	Likes      – number of likes (aggregated at query time).
//	Comments   – number of comments (aggregated at query time).
//	CreatedAt  – creation timestamp.
//	UpdatedAt  – last update timestamp.
type ForumPost struct {
	ID         uint64    `json:"id"`         // forum_posts.id
	AuthorID   uint64    `json:"authorId"`   // forum_posts.author_id
	AuthorName string    `json:"authorName"` // users.name (joined)
	Title      string    `json:"title"`      // forum_posts.title
	Body       string    `json:"body"`       // forum_posts.body
	Likes      uint32    `json:"likes"`      // COUNT(forum_likes)
	Comments   uint32    `json:"comments"`   // COUNT(forum_comments)
	CreatedAt  time.Time `json:"createdAt"`  // forum_posts.created_at
	UpdatedAt  time.Time `json:"updatedAt"`  // forum_posts.updated_at
}

// ForumComment is a reply attached to a post.
type ForumComment struct {
	ID         uint64    `json:"id"`         // forum_comments.id
	PostID     uint64    `json:"postId"`     // forum_comments.post_id
	AuthorID   uint64    `json:"authorId"`   // forum_comments.author_id
	AuthorName string    `json:"authorName"` // users.name (joined)
	Body       string    `json:"body"`       // forum_comments.body
	CreatedAt  time.Time `json:"createdAt"`  // forum_comments.created_at
	UpdatedAt  time.Time `json:"updatedAt"`  // forum_comments.updated_at
}
