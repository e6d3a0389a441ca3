package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/repository"
)

// StatusListLimit caps how many status checks List returns.
const StatusListLimit = 1000

// ErrClientNameRequired is returned by Create for a blank client name.
var ErrClientNameRequired = errors.New("client_name is required")

// StatusService records and lists status checks.
type StatusService interface {
	Create(ctx context.Context, clientName string) (*model.StatusCheck, error)
	List(ctx context.Context) ([]*model.StatusCheck, error)
}

type statusService struct {
	repo repository.StatusRepository
	now  func() time.Time
}

// NewStatusService creates a StatusService.
func NewStatusService(repo repository.StatusRepository) StatusService {
	return &statusService{repo: repo, now: time.Now}
}

func (s *statusService) Create(ctx context.Context, clientName string) (*model.StatusCheck, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return nil, ErrClientNameRequired
	}
	check := &model.StatusCheck{
		ID:         uuid.NewString(),
		ClientName: clientName,
		Timestamp:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, check); err != nil {
		return nil, err
	}
	return check, nil
}

func (s *statusService) List(ctx context.Context) ([]*model.StatusCheck, error) {
	return s.repo.List(ctx, StatusListLimit)
}
