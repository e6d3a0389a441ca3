package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/portfolio/backend/internal/model"
)

// MemoryContactRepository keeps submissions in process memory. It is used
// when no DATABASE_URL is configured and in tests; contents are lost on
// restart.
type MemoryContactRepository struct {
	mu   sync.RWMutex
	subs []model.ContactSubmission
}

// NewMemoryContactRepository creates an empty MemoryContactRepository.
func NewMemoryContactRepository() *MemoryContactRepository {
	return &MemoryContactRepository{}
}

var _ ContactRepository = (*MemoryContactRepository)(nil)

func (r *MemoryContactRepository) Save(_ context.Context, sub *model.ContactSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, *sub)
	return nil
}

func (r *MemoryContactRepository) List(_ context.Context, opts model.ContactListOptions) ([]*model.ContactSubmission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.ContactSubmission
	for i := range r.subs {
		s := r.subs[i]
		switch opts.Read {
		case model.ReadFilterRead:
			if !s.Read {
				continue
			}
		case model.ReadFilterUnread:
			if s.Read {
				continue
			}
		}
		out = append(out, &s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if opts.Offset >= len(out) {
		return nil, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r *MemoryContactRepository) MarkRead(_ context.Context, id string, read bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.subs {
		if r.subs[i].ID == id {
			r.subs[i].Read = read
			return nil
		}
	}
	return ErrNotFound
}

// Len returns the number of stored submissions.
func (r *MemoryContactRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// MemoryStatusRepository keeps status checks in process memory.
type MemoryStatusRepository struct {
	mu     sync.RWMutex
	checks []model.StatusCheck
}

// NewMemoryStatusRepository creates an empty MemoryStatusRepository.
func NewMemoryStatusRepository() *MemoryStatusRepository {
	return &MemoryStatusRepository{}
}

var _ StatusRepository = (*MemoryStatusRepository)(nil)

func (r *MemoryStatusRepository) Create(_ context.Context, check *model.StatusCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks = append(r.checks, *check)
	return nil
}

func (r *MemoryStatusRepository) List(_ context.Context, limit int) ([]*model.StatusCheck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.checks)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*model.StatusCheck, 0, n)
	for i := 0; i < n; i++ {
		c := r.checks[i]
		out = append(out, &c)
	}
	return out, nil
}
