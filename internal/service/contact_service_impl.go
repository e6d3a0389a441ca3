package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/notify"
	"github.com/portfolio/backend/internal/ratelimit"
	"github.com/portfolio/backend/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	// Persistence is off the response path, so this only bounds how long a
	// write may hold up Drain.
	defaultSaveTimeout  = 10 * time.Second
	defaultStatsTimeout = time.Second
)

// contactServiceImpl is the production implementation of ContactService.
type contactServiceImpl struct {
	limiter  *ratelimit.Limiter
	repo     repository.ContactRepository
	notifier notify.Notifier
	stats    ratelimit.StatsStore
	metrics  *metrics.Metrics

	now         func() time.Time
	saveTimeout time.Duration

	// background tracks persistence goroutines still in flight.
	background errgroup.Group
}

// ContactOption configures the contact service.
type ContactOption func(*contactServiceImpl)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) ContactOption {
	return func(s *contactServiceImpl) { s.now = now }
}

// WithStats records every limiter decision in store.
func WithStats(store ratelimit.StatsStore) ContactOption {
	return func(s *contactServiceImpl) { s.stats = store }
}

// WithMetrics reports decisions and side-effect outcomes to m.
func WithMetrics(m *metrics.Metrics) ContactOption {
	return func(s *contactServiceImpl) { s.metrics = m }
}

// WithSaveTimeout bounds a single persistence attempt.
func WithSaveTimeout(d time.Duration) ContactOption {
	return func(s *contactServiceImpl) { s.saveTimeout = d }
}

// NewContactService creates a ContactService. A nil notifier behaves like notify.Noop.
func NewContactService(limiter *ratelimit.Limiter, repo repository.ContactRepository, notifier notify.Notifier, opts ...ContactOption) ContactService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	s := &contactServiceImpl{
		limiter:     limiter,
		repo:        repo,
		notifier:    notifier,
		now:         time.Now,
		saveTimeout: defaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *contactServiceImpl) Submit(ctx context.Context, clientKey string, sub *model.ContactSubmission) (SubmitResult, error) {
	now := s.now()
	d := s.limiter.Decide(clientKey, now)
	s.metrics.Decision(d.Allowed)
	s.recordDecision(ctx, ratelimit.Event{Key: clientKey, Allowed: d.Allowed, At: now})

	if !d.Allowed {
		logging.FromContext(ctx).Warn("contact submission rate limited",
			"client", clientKey, "retry_after", d.RetryAfter.String())
		return SubmitResult{}, &RateLimitError{RetryAfter: d.RetryAfter}
	}

	sub.ID = uuid.NewString()
	sub.CreatedAt = now.UTC()
	sub.Read = false

	// 送信者がリクエストを切断しても副作用は最後まで実行する
	detached := context.WithoutCancel(ctx)

	s.background.Go(func() error {
		s.persist(detached, sub)
		return nil
	})
	sent := s.notify(detached, sub)

	return SubmitResult{EmailSent: sent}, nil
}

func (s *contactServiceImpl) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		_ = s.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *contactServiceImpl) persist(ctx context.Context, sub *model.ContactSubmission) {
	log := logging.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Error("persist contact submission panicked", "panic", r, "submission_id", sub.ID)
			s.metrics.SideEffect(metrics.EffectPersist, false)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.saveTimeout)
	defer cancel()

	if err := s.repo.Save(ctx, sub); err != nil {
		log.Error("persist contact submission failed", "error", err, "submission_id", sub.ID)
		s.metrics.SideEffect(metrics.EffectPersist, false)
		return
	}
	s.metrics.SideEffect(metrics.EffectPersist, true)
}

func (s *contactServiceImpl) notify(ctx context.Context, sub *model.ContactSubmission) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error("notify contact submission panicked", "panic", r, "submission_id", sub.ID)
			sent = false
		}
		s.metrics.SideEffect(metrics.EffectNotify, sent)
	}()
	return s.notifier.Send(ctx, sub)
}

func (s *contactServiceImpl) recordDecision(ctx context.Context, ev ratelimit.Event) {
	if s.stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultStatsTimeout)
	defer cancel()
	if err := s.stats.Record(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("record rate limit decision failed", "error", err)
	}
}

// List returns stored submissions according to the given filter/pagination options.
func (s *contactServiceImpl) List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactSubmission, error) {
	return s.repo.List(ctx, opts)
}

// MarkRead changes the read flag of a submission.
func (s *contactServiceImpl) MarkRead(ctx context.Context, id string, read bool) error {
	return s.repo.MarkRead(ctx, id, read)
}
