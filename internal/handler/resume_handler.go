package handler

import (
	"errors"
	"mime"
	"net/http"

	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/storage"
)

// ResumeConfig holds configuration for the ResumeHandler.
type ResumeConfig struct {
	// Key is the résumé's key within the storage (RESUME_FILE).
	Key string
	// DownloadName is the filename offered to the browser (RESUME_DOWNLOAD_NAME).
	DownloadName string
}

// ResumeHandler handles GET /api/resume/download.
type ResumeHandler struct {
	store storage.Storage
	cfg   ResumeConfig
}

// NewResumeHandler creates a ResumeHandler reading from store.
func NewResumeHandler(store storage.Storage, cfg ResumeConfig) *ResumeHandler {
	if cfg.DownloadName == "" {
		cfg.DownloadName = "Resume.pdf"
	}
	return &ResumeHandler{store: store, cfg: cfg}
}

// Download streams the résumé PDF as an attachment.
// Responds 404 when the file does not exist and 500 when it is not a
// regular file; neither response reveals filesystem paths.
func (h *ResumeHandler) Download(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	f, err := h.store.Open(r.Context(), h.cfg.Key)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotExist):
			log.Warn("resume not found", "key", h.cfg.Key)
			writeError(w, http.StatusNotFound, "not_found", "Resume not found")
		case errors.Is(err, storage.ErrNotRegular):
			log.Error("resume is not a regular file", "key", h.cfg.Key)
			writeError(w, http.StatusInternalServerError, "internal_error", "")
		default:
			log.Error("open resume failed", "error", err, "key", h.cfg.Key)
			writeError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": h.cfg.DownloadName}))

	log.Info("resume download", "size", f.Size())
	http.ServeContent(w, r, h.cfg.DownloadName, f.ModTime(), f)
}
