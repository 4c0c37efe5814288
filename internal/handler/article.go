package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/pressroom/internal/auth"
	"github.com/sakif/pressroom/internal/model"
	"github.com/sakif/pressroom/internal/service"
)

// ArticleHandler exposes the article lifecycle over HTTP.
//
// HANDLER RESPONSIBILITIES:
//   - HandleList   → GET    /api/articles          (public)
//   - HandleGetByID → GET   /api/articles/{id}     (public)
//   - HandleCreate → POST   /api/articles          (auth required)
//   - HandleEdit   → PUT    /api/articles/{id}     (auth required)
//   - HandleDelete → DELETE /api/articles/{id}     (auth required)
//
// The handler never touches the database and never decides outcomes:
// it decodes the request, hands the service an explicit Principal, and
// serializes whatever envelope comes back. All business rules — field
// validation, user provisioning, view invalidation — live in the service.
type ArticleHandler struct {
	articles *service.ArticleService
	logger   *slog.Logger
}

// NewArticleHandler creates an ArticleHandler. All dependencies are
// injected here; the handler has no knowledge of how they're constructed.
func NewArticleHandler(articles *service.ArticleService, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{articles: articles, logger: logger}
}

// decodeInput reads an ArticleInput from the request body. A malformed
// body is reported in the same envelope shape as every other failure so
// the frontend has exactly one error format to parse.
func decodeInput(w http.ResponseWriter, r *http.Request) (model.ArticleInput, bool) {
	var input model.ArticleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, service.Envelope[struct{}]{
			Success: false,
			Error:   &service.Fault{Kind: service.KindValidation, Message: "invalid JSON body"},
		})
		return input, false
	}
	return input, true
}

// HandleCreate publishes a new article for the signed-in author.
//
// HTTP: POST /api/articles
// Auth: Required (RequireAuth middleware sets the Principal in context)
// REQUEST BODY: {"title": "...", "content": "...", "category": "...", "featuredImage": "..."}
func (h *ArticleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeInput(w, r)
	if !ok {
		return
	}

	// RequireAuth guarantees a Principal here; the zero value is still a
	// safe fallback because the service answers it with an auth fault.
	principal, _ := auth.PrincipalFromContext(r.Context())

	env := h.articles.CreateArticle(r.Context(), principal, input)
	writeEnvelope(w, http.StatusCreated, env)
}

// HandleList returns all articles, newest first, each with its author
// and engagement counts.
//
// HTTP: GET /api/articles
func (h *ArticleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	env := h.articles.GetArticles(r.Context())
	writeEnvelope(w, http.StatusOK, env)
}

// HandleGetByID returns a single article.
//
// HTTP: GET /api/articles/{id}
//
// MISSING ≠ ERROR:
// A missing article comes back as a successful envelope with null data and
// a 200 — the caller renders a not-found page from the null, it doesn't
// handle an error. Only store failures produce a failed envelope here.
func (h *ArticleHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	env := h.articles.GetArticleByID(r.Context(), id)
	writeEnvelope(w, http.StatusOK, env)
}

// HandleEdit replaces an article's editable fields.
//
// HTTP: PUT /api/articles/{id}
// Auth: Required
func (h *ArticleHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeInput(w, r)
	if !ok {
		return
	}

	env := h.articles.EditArticleByID(r.Context(), r.PathValue("id"), input)
	writeEnvelope(w, http.StatusOK, env)
}

// HandleDelete removes an article and returns its final snapshot.
//
// HTTP: DELETE /api/articles/{id}
// Auth: Required
func (h *ArticleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	env := h.articles.DeleteArticleByID(r.Context(), r.PathValue("id"))
	writeEnvelope(w, http.StatusOK, env)
}
