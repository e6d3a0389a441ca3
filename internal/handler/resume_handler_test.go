package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/portfolio/backend/internal/storage"
)

// ---------------------------------------------------------------------------
// GET /api/resume/download tests
// ---------------------------------------------------------------------------

func TestResumeHandler_Download_Success(t *testing.T) {
	dir := t.TempDir()
	content := "%PDF-1.4\nfake resume\n%%EOF"
	if err := os.WriteFile(filepath.Join(dir, "resume.pdf"), []byte(content), 0o644); err != nil {
		t.Fatalf("write resume: %v", err)
	}

	h := NewResumeHandler(storage.NewLocalStorage(dir), ResumeConfig{Key: "resume.pdf", DownloadName: "Jane_Doe_Resume.pdf"})

	rec := httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/api/resume/download", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=Jane_Doe_Resume.pdf" {
		t.Errorf("unexpected Content-Disposition: %q", got)
	}
	if rec.Body.String() != content {
		t.Errorf("body mismatch: %q", rec.Body.String())
	}
}

func TestResumeHandler_Download_Missing(t *testing.T) {
	dir := t.TempDir()
	h := NewResumeHandler(storage.NewLocalStorage(dir), ResumeConfig{Key: "resume.pdf"})

	rec := httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/api/resume/download", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected JSON error, got %q", got)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Error("404 must not carry an attachment header")
	}
	if strings.Contains(rec.Body.String(), "%PDF") || strings.Contains(rec.Body.String(), dir) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestResumeHandler_Download_Directory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "resume.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}
	h := NewResumeHandler(storage.NewLocalStorage(dir), ResumeConfig{Key: "resume.pdf"})

	rec := httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/api/resume/download", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestResumeHandler_Download_DefaultName(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "cv.pdf"), []byte("%PDF"), 0o644)
	h := NewResumeHandler(storage.NewLocalStorage(dir), ResumeConfig{Key: "cv.pdf"})

	rec := httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/api/resume/download", nil))

	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=Resume.pdf" {
		t.Errorf("unexpected Content-Disposition: %q", got)
	}
}
