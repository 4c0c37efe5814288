package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/pressroom/internal/apperror"
	"github.com/sakif/pressroom/internal/model"
	"github.com/sakif/pressroom/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X.
// If *Y doesn't implement X, the compiler errors immediately instead of at
// the first call site that needs the interface.
var _ repository.ArticleRepository = (*DB)(nil)

// articleProjection is the SELECT shared by GetByID and List: the article
// row joined with its author's summary, plus the engagement counts as
// correlated subqueries.
//
// WHY SUBQUERIES AND NOT GROUP BY?
// Two LEFT JOINs against comments and likes would multiply rows (an article
// with 3 comments and 2 likes yields 6 joined rows) and force a GROUP BY
// over every selected column. Correlated COUNT subqueries stay one row per
// article and read naturally.
const articleProjection = `
	SELECT a.id, a.title, a.content, a.category, a.featured_image,
	       a.author_id, a.created_at, a.updated_at,
	       u.name, u.avatar_url,
	       (SELECT COUNT(*) FROM comments c WHERE c.article_id = a.id),
	       (SELECT COUNT(*) FROM likes l WHERE l.article_id = a.id)
	FROM articles a
	JOIN users u ON u.id = a.author_id`

// scanArticleWithAuthor reads one projection row. Column order must match
// articleProjection exactly.
func scanArticleWithAuthor(scan func(...any) error) (*model.ArticleWithAuthor, error) {
	var a model.ArticleWithAuthor
	err := scan(
		&a.ID, &a.Title, &a.Content, &a.Category, &a.FeaturedImage,
		&a.AuthorID, &a.CreatedAt, &a.UpdatedAt,
		&a.Author.Name, &a.Author.ImageURL,
		&a.CommentCount, &a.LikeCount,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new article.
//
// The pointer receiver argument is modified in place: after Create() the
// caller's article carries the generated xid and both timestamps set to the
// operation time. The author_id must reference an existing user — the
// foreign key enforces what the service layer already guaranteed by
// resolving the author first.
func (db *DB) Create(ctx context.Context, article *model.Article) error {
	article.ID = xid.New().String()

	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO articles (id, title, content, category, featured_image, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		article.ID,
		article.Title,
		article.Content,
		article.Category,
		article.FeaturedImage,
		article.AuthorID,
		article.CreatedAt,
		article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating article: %w", err)
	}

	return nil
}

// GetByID retrieves a single article joined with its author and counts.
// Returns apperror.ErrNotFound if no article exists with that ID — the
// caller decides whether that is a 404 or a success-with-null.
func (db *DB) GetByID(ctx context.Context, id string) (*model.ArticleWithAuthor, error) {
	row := db.conn.QueryRowContext(ctx, articleProjection+` WHERE a.id = ?`, id)

	a, err := scanArticleWithAuthor(row.Scan)
	if err != nil {
		// sql.ErrNoRows is a sentinel, not a failure — translate it to the
		// domain's NotFound so handlers can render a 404 rather than a 500.
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("article", id)
		}
		return nil, fmt.Errorf("sqlite: getting article %s: %w", id, err)
	}

	return a, nil
}

// List retrieves every article, newest first, each with author projection
// and engagement counts. The index page renders the full set, so there is
// no LIMIT here.
func (db *DB) List(ctx context.Context) ([]model.ArticleWithAuthor, error) {
	rows, err := db.conn.QueryContext(ctx, articleProjection+` ORDER BY a.created_at DESC, a.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing articles: %w", err)
	}
	// sql.Rows holds a pool connection — always close it.
	defer rows.Close()

	articles := make([]model.ArticleWithAuthor, 0, 16)
	for rows.Next() {
		a, err := scanArticleWithAuthor(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning article row: %w", err)
		}
		articles = append(articles, *a)
	}

	// rows.Err() catches failures that happened during iteration,
	// e.g. the connection dropping mid-scan.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating articles: %w", err)
	}

	return articles, nil
}

// Update applies the supplied fields verbatim and bumps updated_at.
//
// This is a blind single-statement UPDATE — no read-modify-write, no
// version token. Two concurrent edits to the same id serialize at the
// store and the second silently wins. That lost-update behavior is a known,
// accepted property of the system (see the service tests).
func (db *DB) Update(ctx context.Context, article *model.Article) (*model.ArticleWithAuthor, error) {
	article.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE articles
		 SET title = ?, content = ?, category = ?, featured_image = ?, updated_at = ?
		 WHERE id = ?`,
		article.Title,
		article.Content,
		article.Category,
		article.FeaturedImage,
		article.UpdatedAt,
		article.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating article %s: %w", article.ID, err)
	}

	// RowsAffected == 0 means the WHERE clause matched nothing → not found.
	// Cheaper than a SELECT-then-UPDATE pair.
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("article", article.ID)
	}

	// Return the stored row joined with author — the caller renders it.
	return db.GetByID(ctx, article.ID)
}

// Delete removes an article permanently and returns the deleted snapshot.
//
// We read the row first because the caller gets the snapshot back. The
// read-then-delete pair is not transactional; if another request deletes
// the same id in between, RowsAffected is 0 and we report NotFound —
// exactly what the loser of that race should see.
func (db *DB) Delete(ctx context.Context, id string) (*model.Article, error) {
	var a model.Article
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, content, category, featured_image, author_id, created_at, updated_at
		 FROM articles WHERE id = ?`,
		id,
	).Scan(
		&a.ID, &a.Title, &a.Content, &a.Category, &a.FeaturedImage,
		&a.AuthorID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("article", id)
		}
		return nil, fmt.Errorf("sqlite: getting article %s for delete: %w", id, err)
	}

	result, err := db.conn.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: deleting article %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("article", id)
	}

	return &a, nil
}
