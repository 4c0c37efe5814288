package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/pressroom/internal/apperror"
	"github.com/sakif/pressroom/internal/identity"
	"github.com/sakif/pressroom/internal/model"
	"github.com/sakif/pressroom/internal/repository"
	"github.com/sakif/pressroom/internal/slug"
	"github.com/sakif/pressroom/internal/view"
)

// UserResolver is the slice of the identity reconciler this service needs.
// *identity.Reconciler satisfies it; tests substitute an in-memory fake.
type UserResolver interface {
	EnsureUser(ctx context.Context, externalID string, claims identity.Claims) (*model.User, error)
}

// ArticleService is the article lifecycle facade.
//
// Every public method follows the same shape:
//  1. validate caller input — a validation fault short-circuits before any
//     store access
//  2. (create only) resolve the acting user through the identity reconciler;
//     a request without a verified principal fails with an auth fault
//  3. delegate to the repository
//  4. on a successful mutation, mark the affected view stale — exactly once,
//     never for reads, never for failures
//  5. wrap the outcome in an Envelope; no error ever escapes as a return
//
// CONCURRENCY NOTE:
// Two concurrent edits to the same article are serialized by the store and
// the second write silently wins (no version token). That lost-update is a
// known, accepted property — see TestEditArticleByID_LastWriteWins.
type ArticleService struct {
	articles    repository.ArticleRepository
	users       UserResolver
	invalidator view.Invalidator
	logger      *slog.Logger
}

func NewArticleService(
	articles repository.ArticleRepository,
	users UserResolver,
	invalidator view.Invalidator,
	logger *slog.Logger,
) *ArticleService {
	return &ArticleService{
		articles:    articles,
		users:       users,
		invalidator: invalidator,
		logger:      logger,
	}
}

// validateInput checks the three required fields. FeaturedImage is optional.
// Returns the first violation — the form highlights one field at a time.
func validateInput(input model.ArticleInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return apperror.ValidationFailed("content", "content is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return apperror.ValidationFailed("category", "category is required")
	}
	return nil
}

// CreateArticle persists a new article for the authenticated principal and
// returns its summary, including the derived slug.
//
// The slug is computed here, on the create result only — it is never stored
// and list/detail reads do not recompute it. Deleting this one call site
// would remove slugs from the system entirely.
func (s *ArticleService) CreateArticle(ctx context.Context, p identity.Principal, input model.ArticleInput) Envelope[model.ArticleSummary] {
	if err := validateInput(input); err != nil {
		return Fail[model.ArticleSummary](faultFor(err))
	}

	if p.SubjectID == "" {
		return Fail[model.ArticleSummary](faultFor(
			apperror.Unauthorized("you must be signed in to create an article")))
	}

	// Lazily provision the author. This is the one place in the article
	// lifecycle that touches the user relation.
	author, err := s.users.EnsureUser(ctx, p.SubjectID, p.Claims)
	if err != nil {
		s.logger.Error("failed to resolve author",
			slog.String("op", "createArticle"),
			slog.String("subject", p.SubjectID),
			slog.String("error", err.Error()),
		)
		return Fail[model.ArticleSummary](faultFor(err))
	}

	article := &model.Article{
		Title:         input.Title,
		Content:       input.Content,
		Category:      input.Category,
		FeaturedImage: input.FeaturedImage,
		AuthorID:      author.ID,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		s.logger.Error("failed to create article",
			slog.String("op", "createArticle"),
			slog.String("authorId", author.ID),
			slog.String("error", err.Error()),
		)
		return Fail[model.ArticleSummary](faultFor(err))
	}

	// The public index now misses the new article — mark it stale before
	// reporting success.
	s.invalidator.MarkStale(ctx, view.KeyArticles)

	s.logger.Info("article created",
		slog.String("id", article.ID),
		slog.String("authorId", author.ID),
	)

	return Ok(model.ArticleSummary{
		ID:            article.ID,
		Title:         article.Title,
		Slug:          slug.Make(article.Title),
		Category:      article.Category,
		FeaturedImage: article.FeaturedImage,
		Author: model.AuthorSummary{
			Name:     author.Name,
			ImageURL: author.AvatarURL,
		},
		CreatedAt: article.CreatedAt,
	})
}

// GetArticles returns every article, newest first, with author projections
// and engagement counts. Reads never invalidate views.
func (s *ArticleService) GetArticles(ctx context.Context) Envelope[[]model.ArticleWithAuthor] {
	articles, err := s.articles.List(ctx)
	if err != nil {
		s.logger.Error("failed to list articles",
			slog.String("op", "getArticles"),
			slog.String("error", err.Error()),
		)
		return Fail[[]model.ArticleWithAuthor](faultFor(err))
	}

	return Ok(articles)
}

// GetArticleByID returns a single article with author and counts.
//
// A missing id is a SUCCESSFUL lookup with nil data — the caller renders a
// not-found page, not an error banner. Only genuine storage failures
// produce a failed envelope here.
func (s *ArticleService) GetArticleByID(ctx context.Context, id string) Envelope[*model.ArticleWithAuthor] {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return Ok[*model.ArticleWithAuthor](nil)
		}
		s.logger.Error("failed to get article",
			slog.String("op", "getArticleById"),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return Fail[*model.ArticleWithAuthor](faultFor(err))
	}

	return Ok(article)
}

// EditArticleByID replaces the article's fields verbatim and returns the
// stored row joined with its author.
//
// The input is applied as-is: no deep merge, no re-validation of fields the
// caller left untouched (the input carries all of them). Editing a missing
// id is a not-found FAILURE — unlike the detail read, a dashboard edit of a
// vanished article must tell the author it is gone.
func (s *ArticleService) EditArticleByID(ctx context.Context, id string, input model.ArticleInput) Envelope[*model.ArticleWithAuthor] {
	if err := validateInput(input); err != nil {
		return Fail[*model.ArticleWithAuthor](faultFor(err))
	}

	article := &model.Article{
		ID:            id,
		Title:         input.Title,
		Content:       input.Content,
		Category:      input.Category,
		FeaturedImage: input.FeaturedImage,
	}
	updated, err := s.articles.Update(ctx, article)
	if err != nil {
		// Not-found is the caller's mistake, not a system failure — log the
		// rest at error level only.
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to update article",
				slog.String("op", "editArticleById"),
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
		}
		return Fail[*model.ArticleWithAuthor](faultFor(err))
	}

	s.invalidator.MarkStale(ctx, view.KeyDashboardArticles)

	s.logger.Info("article updated", slog.String("id", id))

	return Ok(updated)
}

// DeleteArticleByID removes an article permanently and returns the deleted
// snapshot. Deleting a missing id is a not-found failure.
func (s *ArticleService) DeleteArticleByID(ctx context.Context, id string) Envelope[*model.Article] {
	deleted, err := s.articles.Delete(ctx, id)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to delete article",
				slog.String("op", "deleteArticleById"),
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
		}
		return Fail[*model.Article](faultFor(err))
	}

	s.invalidator.MarkStale(ctx, view.KeyDashboardArticles)

	s.logger.Info("article deleted", slog.String("id", id))

	return Ok(deleted)
}
