package model

import "time"

// Article represents a published long-form post.
//
// Content is stored as the markup the editor produced (HTML fragments from
// the rich-text editor). We never interpret it server-side — it is opaque
// text between the editor and the renderer.
//
// Category is an open string domain: "technology", "programming", whatever
// the author typed. No lookup table — the original data model keeps it
// denormalized and so do we.
type Article struct {
	ID            string    `json:"id"            db:"id"`
	Title         string    `json:"title"         db:"title"`
	Content       string    `json:"content"       db:"content"`
	Category      string    `json:"category"      db:"category"`
	FeaturedImage string    `json:"featuredImage" db:"featured_image"` // object-store URL, may be empty
	AuthorID      string    `json:"authorId"      db:"author_id"`      // references users.id
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}

// ArticleWithAuthor is the read projection for list and detail views:
// the article row joined with its author summary and the engagement counts
// aggregated from the comments and likes collections.
//
// The counts are maintained by the comment/like subsystems — this core only
// ever reads them.
type ArticleWithAuthor struct {
	Article
	Author       AuthorSummary `json:"author"`
	CommentCount int           `json:"commentCount"`
	LikeCount    int           `json:"likeCount"`
}

// ArticleSummary is the shape returned from a successful create: the newly
// persisted fields plus the derived slug. The slug is computed from the
// title at this moment and is NOT stored — see internal/slug.
type ArticleSummary struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Category      string        `json:"category"`
	FeaturedImage string        `json:"featuredImage"`
	Author        AuthorSummary `json:"author"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// ArticleInput carries the caller-supplied fields for create and edit.
// Edit applies the fields verbatim (full replacement, no deep merge).
type ArticleInput struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Category      string `json:"category"`
	FeaturedImage string `json:"featuredImage"`
}
