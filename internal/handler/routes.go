package handler

import (
	"log/slog"
	"net/http"

	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/pkg/auth"
)

// RouterConfig collects the handlers served by NewRouter.
type RouterConfig struct {
	Base    *Handler
	Contact *ContactHandler
	Resume  *ResumeHandler
	Status  *StatusHandler

	// Metrics is served on GET /metrics when non-nil.
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// AdminSecret signs admin tokens. Admin routes are registered only when
	// it is non-empty.
	AdminSecret string
}

// NewRouter registers all routes and wraps them in the middleware chain:
// request logger/recovery, security headers, CORS, metrics, mux.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{$}", cfg.Base.Root)
	mux.HandleFunc("GET /api/health", cfg.Base.Health)

	mux.HandleFunc("POST /api/contact", cfg.Contact.Submit)
	mux.HandleFunc("POST /api/external-contact", cfg.Contact.ExternalSubmit)
	mux.HandleFunc("GET /api/resume/download", cfg.Resume.Download)
	mux.HandleFunc("GET /api/status", cfg.Status.List)
	mux.HandleFunc("POST /api/status", cfg.Status.Create)

	if cfg.AdminSecret != "" {
		requireAdmin := auth.RequireAuth(auth.SessionSecretBytes(cfg.AdminSecret))
		mux.Handle("GET /api/admin/contacts", requireAdmin(http.HandlerFunc(cfg.Contact.AdminList)))
		mux.Handle("PATCH /api/admin/contacts/{id}/read", requireAdmin(http.HandlerFunc(cfg.Contact.MarkRead)))
	}

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	var h http.Handler = mux
	h = Metrics(cfg.Metrics)(h)
	h = cfg.Base.CORS(h)
	h = SecurityHeaders(h)
	h = RequestLogger(cfg.Logger)(h)
	return h
}
