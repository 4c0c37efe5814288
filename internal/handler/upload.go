package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

// maxUploadBytes caps featured-image uploads at 8 MiB. Large enough for
// any sensible cover image, small enough that a single request can't
// hold the body buffer hostage.
const maxUploadBytes = 8 << 20

// ObjectStore is what the upload handler needs from the object-store
// layer. upload.Store satisfies it; tests substitute a mock.
type ObjectStore interface {
	UniqueUpload(ctx context.Context, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// UploadHandler manages featured-image objects.
//
// HANDLER RESPONSIBILITIES:
//   - HandleUpload → POST   /api/uploads        (raw image bytes → public URL)
//   - HandleRemove → DELETE /api/uploads/{key}  (discard an unused image)
//
// The article core never reads these objects; whatever URL HandleUpload
// returns is what the author pastes into the article's featuredImage field.
type UploadHandler struct {
	store  ObjectStore
	logger *slog.Logger
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(store ObjectStore, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{store: store, logger: logger}
}

// HandleUpload accepts an image upload and returns the public URL the
// article input should carry.
//
// HTTP: POST /api/uploads
// Auth: Required
// REQUEST: the raw image bytes with a Content-Type image/* header
// RESPONSE: {"url": "https://cdn.example/pressroom-media/<key>.png"}
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		http.Error(w, "Content-Type header is required", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		// MaxBytesReader reports an oversized body as a read error.
		http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
		return
	}
	if len(body) == 0 {
		http.Error(w, "empty upload", http.StatusBadRequest)
		return
	}

	url, err := h.store.UniqueUpload(r.Context(), body, contentType)
	if err != nil {
		h.logger.Error("upload failed",
			slog.Int("bytes", len(body)),
			slog.String("error", err.Error()),
		)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// HandleRemove discards a previously uploaded image, typically one the
// author replaced or never attached.
//
// HTTP: DELETE /api/uploads/{key}
// Auth: Required
func (h *UploadHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		http.Error(w, "upload key is required", http.StatusBadRequest)
		return
	}

	if err := h.store.Remove(r.Context(), key); err != nil {
		h.logger.Error("removing upload failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		http.Error(w, "removal failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
