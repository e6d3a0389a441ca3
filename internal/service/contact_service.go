package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/portfolio/backend/internal/model"
)

// ErrRateLimited is returned by Submit when the client key has used up its
// submissions for the current window.
var ErrRateLimited = errors.New("rate limited")

// RateLimitError carries how long the client should wait before retrying.
// errors.Is(err, ErrRateLimited) holds for it.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// SubmitResult reports the outcome of the side effects of an admitted submission.
type SubmitResult struct {
	EmailSent bool
}

// ContactService defines the business logic for contact form submissions.
type ContactService interface {
	// Submit admits or rejects sub for clientKey. On admission sub.ID and
	// sub.CreatedAt are populated and the owner is notified; persistence runs
	// in the background. Failures of either are logged and never returned.
	Submit(ctx context.Context, clientKey string, sub *model.ContactSubmission) (SubmitResult, error)

	// Drain waits until background persistence started by Submit has
	// finished, or ctx is done.
	Drain(ctx context.Context) error

	// List returns stored submissions according to the given options.
	List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactSubmission, error)

	// MarkRead sets the read flag. Unknown ids yield repository.ErrNotFound.
	MarkRead(ctx context.Context, id string, read bool) error
}
