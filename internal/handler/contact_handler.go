package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/repository"
	"github.com/portfolio/backend/internal/service"
	"github.com/portfolio/backend/pkg/external"
)

const (
	messageEmailSent    = "Thank you for reaching out! I'll get back to you soon."
	messageEmailNotSent = "Your message has been received. I'll get back to you soon."
	messageForwarded    = "Message forwarded to external service."
)

const defaultMaxBodyBytes = 64 << 10

// ContactConfig holds request limits for the ContactHandler.
type ContactConfig struct {
	// MaxBodyBytes caps the JSON request body. Zero means 64 KiB.
	MaxBodyBytes int64
	// TrustedProxyCount is the number of reverse proxies in front of the
	// server that append to X-Forwarded-For.
	TrustedProxyCount int
}

// ContactHandler handles contact form submission, forwarding and admin listing.
type ContactHandler struct {
	contactService service.ContactService
	forwarder      external.Forwarder
	cfg            ContactConfig
}

// NewContactHandler creates a ContactHandler. A nil forwarder makes
// POST /api/external-contact answer 502.
func NewContactHandler(contactService service.ContactService, forwarder external.Forwarder, cfg ContactConfig) *ContactHandler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &ContactHandler{contactService: contactService, forwarder: forwarder, cfg: cfg}
}

type submitResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	EmailSent bool   `json:"email_sent"`
}

// decode reads and validates a contactRequest, writing the error response
// itself when it returns false.
func (h *ContactHandler) decode(w http.ResponseWriter, r *http.Request) (contactRequest, bool) {
	var req contactRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body is too large.")
			return req, false
		}
		writeError(w, http.StatusUnprocessableEntity, "invalid_json", "Request body must be a JSON object.")
		return req, false
	}

	req.normalize()
	if ferr := req.validate(); ferr != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", ferr.Error())
		return req, false
	}
	return req, true
}

// Submit handles POST /api/contact.
// Validation runs before the rate limiter so malformed requests never use up
// the client's quota.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	sub := &model.ContactSubmission{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}

	res, err := h.contactService.Submit(r.Context(), ClientIP(r, h.cfg.TrustedProxyCount), sub)
	if err != nil {
		var rle *service.RateLimitError
		if errors.As(err, &rle) {
			w.Header().Set("Retry-After", retryAfterSeconds(rle.RetryAfter))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again later.")
			return
		}
		logging.FromContext(r.Context()).Error("contact submit failed", "error", err)
		writeError(w, http.StatusInternalServerError, "submit_failed", "Failed to process contact form. Please try again later.")
		return
	}

	msg := messageEmailNotSent
	if res.EmailSent {
		msg = messageEmailSent
	}
	writeJSON(w, http.StatusOK, submitResponse{Success: true, Message: msg, EmailSent: res.EmailSent})
}

// ExternalSubmit handles POST /api/external-contact. The submission is
// relayed to the configured upstream and is not rate limited here.
func (h *ContactHandler) ExternalSubmit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if h.forwarder == nil {
		writeError(w, http.StatusBadGateway, "external_unavailable", "Failed to contact external service")
		return
	}

	err := h.forwarder.Forward(r.Context(), external.Payload{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		log := logging.FromContext(r.Context())
		var upstream *external.UpstreamError
		if errors.As(err, &upstream) {
			log.Error("external contact rejected", "status", upstream.StatusCode, "body", upstream.Body)
			writeError(w, http.StatusBadGateway, "external_error", "External service error")
			return
		}
		log.Error("external contact failed", "error", err)
		writeError(w, http.StatusBadGateway, "external_unavailable", "Failed to contact external service")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": messageForwarded})
}

// adminListResponse is the JSON response for GET /api/admin/contacts.
type adminListResponse struct {
	Submissions []*model.ContactSubmission `json:"submissions"`
}

// AdminList handles GET /api/admin/contacts (admin only).
// Supports query params: read (all/read/unread), limit, offset.
func (h *ContactHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := model.ContactListOptions{
		Read:   q.Get("read"),
		Limit:  20,
		Offset: 0,
	}
	switch opts.Read {
	case "", model.ReadFilterAll, model.ReadFilterRead, model.ReadFilterUnread:
	default:
		writeError(w, http.StatusBadRequest, "invalid_read_filter", "read must be all, read or unread")
		return
	}

	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			opts.Limit = n
		}
	}
	if o := q.Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			opts.Offset = n
		}
	}

	subs, err := h.contactService.List(r.Context(), opts)
	if err != nil {
		logging.FromContext(r.Context()).Error("list contact submissions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "")
		return
	}

	// Return [] not null for empty lists
	if subs == nil {
		subs = []*model.ContactSubmission{}
	}

	writeJSON(w, http.StatusOK, adminListResponse{Submissions: subs})
}

type markReadRequest struct {
	Read *bool `json:"read"`
}

// MarkRead handles PATCH /api/admin/contacts/{id}/read (admin only).
func (h *ContactHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req markReadRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Read == nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_json", "Body must be {\"read\": true|false}.")
		return
	}

	if err := h.contactService.MarkRead(r.Context(), id, *req.Read); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "")
			return
		}
		logging.FromContext(r.Context()).Error("mark contact submission failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "update_failed", "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
