package service

import (
	"context"
	"log/slog"
	"time"

	"bloodbridge/internal/donor/eligibility"
	"bloodbridge/internal/matching/models"
	dErrors "bloodbridge/pkg/domain-errors"
)

// DirectoryStore produces the eligible-donor directory for a given day.
type DirectoryStore interface {
	ListEligible(ctx context.Context, today time.Time, filter models.Filter) ([]models.DonorCard, error)
}

// Service answers the public donor directory queries.
type Service struct {
	directory DirectoryStore
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the wall clock, used by tests to pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs a Service.
func New(directory DirectoryStore, opts ...Option) *Service {
	s := &Service{
		directory: directory,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListEligible returns every donor available to donate today.
func (s *Service) ListEligible(ctx context.Context) ([]models.DonorCard, error) {
	cards, err := s.directory.ListEligible(ctx, eligibility.Date(s.now()), models.Filter{})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list donors", err)
	}
	return cards, nil
}

// Search narrows the eligible-donor directory. At least one criterion must be
// supplied.
func (s *Service) Search(ctx context.Context, filter models.Filter) ([]models.DonorCard, error) {
	if filter.Empty() {
		return nil, dErrors.New(dErrors.CodeValidation, "please provide at least one search filter")
	}
	cards, err := s.directory.ListEligible(ctx, eligibility.Date(s.now()), filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to search donors", err)
	}
	return cards, nil
}
