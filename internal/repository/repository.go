package repository

import (
	"context"

	"github.com/sakif/pressroom/internal/model"
)

// ArticleRepository is the persistence contract for articles.
//
// List returns the full result set newest-first — the article index renders
// every post, so there is no paging cursor here. Read methods return the
// joined projection (author summary + engagement counts); writes operate on
// the bare Article row.
type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article) error
	GetByID(ctx context.Context, id string) (*model.ArticleWithAuthor, error)
	List(ctx context.Context) ([]model.ArticleWithAuthor, error)
	// Update applies the supplied fields verbatim and refreshes updated_at.
	// Returns the joined projection of the stored row.
	Update(ctx context.Context, article *model.Article) (*model.ArticleWithAuthor, error)
	// Delete removes the row permanently and returns the deleted snapshot.
	Delete(ctx context.Context, id string) (*model.Article, error)
}

// UserRepository is the persistence contract for local user records.
//
// Create must surface a UNIQUE(external_id) violation as apperror.Conflict —
// the identity reconciler relies on that to recover the concurrent
// first-login race (see internal/identity).
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}
