package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/pressroom/internal/apperror"
	"github.com/sakif/pressroom/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" creates a fresh database that exists only for this test — fast,
// isolated, destroyed when the connection closes.
//
// t.Helper() makes failures report at the CALLER's line, which keeps the
// test output pointing at the test that broke, not at the helper.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser persists an author the articles can reference — the
// foreign key on articles.author_id rejects inserts without one.
func createTestUser(t *testing.T, db *DB, externalID string) *model.User {
	t.Helper()
	user := &model.User{
		ExternalID: externalID,
		Name:       "Test Author",
		Email:      externalID + "@user.com",
		AvatarURL:  "https://img.example/avatar.png",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestArticle(t *testing.T, db *DB, authorID, title string) *model.Article {
	t.Helper()
	article := &model.Article{
		Title:    title,
		Content:  "<p>body</p>",
		Category: "technology",
		AuthorID: authorID,
	}
	if err := db.Create(context.Background(), article); err != nil {
		t.Fatalf("failed to create test article: %v", err)
	}
	return article
}

// addComment and addLike write directly to the engagement tables. Those
// tables belong to the comment/like subsystems; the repository under test
// only ever counts them.
func addComment(t *testing.T, db *DB, articleID, authorID string) {
	t.Helper()
	_, err := db.conn.Exec(
		`INSERT INTO comments (id, article_id, author_id, body) VALUES (?, ?, ?, ?)`,
		xid.New().String(), articleID, authorID, "nice one",
	)
	if err != nil {
		t.Fatalf("failed to insert comment: %v", err)
	}
}

func addLike(t *testing.T, db *DB, articleID, userID string) {
	t.Helper()
	_, err := db.conn.Exec(
		`INSERT INTO likes (id, article_id, user_id) VALUES (?, ?, ?)`,
		xid.New().String(), articleID, userID,
	)
	if err != nil {
		t.Fatalf("failed to insert like: %v", err)
	}
}

func TestArticleCreate(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "github:1")

	article := &model.Article{
		Title:    "Hello, World! 2024",
		Content:  "<p>x</p>",
		Category: "technology",
		AuthorID: author.ID,
	}

	if err := db.Create(context.Background(), article); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if article.ID == "" {
		t.Error("Create() did not set article.ID")
	}
	if article.CreatedAt.IsZero() {
		t.Error("Create() did not set article.CreatedAt")
	}
	if !article.UpdatedAt.Equal(article.CreatedAt) {
		t.Error("Create() should set UpdatedAt equal to CreatedAt")
	}
}

func TestArticleCreate_UnknownAuthorRejected(t *testing.T) {
	db := newTestDB(t)

	article := &model.Article{
		Title:    "orphan",
		Content:  "<p>x</p>",
		Category: "technology",
		AuthorID: "no-such-user",
	}

	// The foreign key must hold: an article's author references an existing
	// user at creation time.
	if err := db.Create(context.Background(), article); err == nil {
		t.Fatal("Create() with unknown author should fail the foreign key")
	}
}

func TestArticleGetByID_ProjectsAuthorAndCounts(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "github:1")
	article := createTestArticle(t, db, author.ID, "counted")

	addComment(t, db, article.ID, author.ID)
	addComment(t, db, article.ID, author.ID)
	addLike(t, db, article.ID, author.ID)

	got, err := db.GetByID(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got.Author.Name != "Test Author" {
		t.Errorf("Author.Name = %q, want %q", got.Author.Name, "Test Author")
	}
	if got.Author.ImageURL != "https://img.example/avatar.png" {
		t.Errorf("Author.ImageURL = %q, want the avatar URL", got.Author.ImageURL)
	}
	if got.CommentCount != 2 {
		t.Errorf("CommentCount = %d, want 2", got.CommentCount)
	}
	if got.LikeCount != 1 {
		t.Errorf("LikeCount = %d, want 1", got.LikeCount)
	}
}

func TestArticleGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "nonexistent-id")

	if err == nil {
		t.Fatal("GetByID() should have returned an error for nonexistent ID")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestArticleList_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "github:1")

	first := createTestArticle(t, db, author.ID, "first")
	time.Sleep(5 * time.Millisecond)
	second := createTestArticle(t, db, author.ID, "second")
	time.Sleep(5 * time.Millisecond)
	third := createTestArticle(t, db, author.ID, "third")

	articles, err := db.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(articles) != 3 {
		t.Fatalf("List() returned %d articles, want 3", len(articles))
	}
	if articles[0].ID != third.ID || articles[1].ID != second.ID || articles[2].ID != first.ID {
		t.Errorf("List() order = [%s %s %s], want newest first [%s %s %s]",
			articles[0].Title, articles[1].Title, articles[2].Title,
			"third", "second", "first")
	}
}

func TestArticleList_Empty(t *testing.T) {
	db := newTestDB(t)

	articles, err := db.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("List() returned %d articles, want 0", len(articles))
	}
}

func TestArticleUpdate(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "github:1")
	original := createTestArticle(t, db, author.ID, "original title")

	// Keep UpdatedAt strictly ahead of CreatedAt regardless of clock
	// granularity.
	time.Sleep(5 * time.Millisecond)

	original.Title = "updated title"
	original.Content = "<p>v2</p>"
	original.Category = "programming"

	updated, err := db.Update(context.Background(), original)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Title != "updated title" {
		t.Errorf("Title = %q, want %q", updated.Title, "updated title")
	}
	if updated.Category != "programming" {
		t.Errorf("Category = %q, want %q", updated.Category, "programming")
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Errorf("UpdatedAt %v should be strictly after CreatedAt %v",
			updated.UpdatedAt, updated.CreatedAt)
	}

	// A subsequent read observes the write.
	found, err := db.GetByID(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("GetByID() after update error = %v", err)
	}
	if found.Content != "<p>v2</p>" {
		t.Errorf("Content after update = %q, want %q", found.Content, "<p>v2</p>")
	}
}

func TestArticleUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	article := &model.Article{ID: "nonexistent", Title: "t", Content: "c", Category: "x"}
	_, err := db.Update(context.Background(), article)

	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestArticleDelete_ReturnsSnapshot(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "github:1")
	article := createTestArticle(t, db, author.ID, "to delete")
	addComment(t, db, article.ID, author.ID)

	snapshot, err := db.Delete(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if snapshot.ID != article.ID || snapshot.Title != "to delete" {
		t.Errorf("Delete() snapshot = %+v, want the deleted row", snapshot)
	}

	// Deletion is permanent and immediate.
	_, err = db.GetByID(context.Background(), article.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete: error = %v, want ErrNotFound", err)
	}

	// The author is untouched.
	if _, err := db.Users().GetUserByID(context.Background(), author.ID); err != nil {
		t.Errorf("author should survive article deletion, got %v", err)
	}
}

func TestArticleDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Delete(context.Background(), "nonexistent-id")

	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
