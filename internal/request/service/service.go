package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bloodbridge/internal/donor/eligibility"
	donormodels "bloodbridge/internal/donor/models"
	identitymodels "bloodbridge/internal/identity/models"
	"bloodbridge/internal/platform/metrics"
	"bloodbridge/internal/request/models"
	dErrors "bloodbridge/pkg/domain-errors"
	"bloodbridge/pkg/platform/sentinel"
	"bloodbridge/pkg/platform/tx"
)

// Store is the blood request persistence contract.
type Store interface {
	Create(ctx context.Context, req models.BloodRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BloodRequest, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) (donorID uuid.UUID, flipped bool, err error)
	MarkAllCompletedForDonor(ctx context.Context, donorID uuid.UUID) (int, error)
	ListByDonor(ctx context.Context, donorID uuid.UUID) ([]models.BloodRequest, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]models.RequesterView, error)
	ListAll(ctx context.Context) ([]models.BloodRequest, error)
	ListCompleted(ctx context.Context) ([]models.BloodRequest, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByRequesterID(ctx context.Context, requesterID uuid.UUID) (int, error)
	DeleteByDonorID(ctx context.Context, donorID uuid.UUID) (int, error)
}

// DonorStore is the slice of the donor store the ledger needs to resolve
// recipients and stamp the cooldown window.
type DonorStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*donormodels.Donor, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*donormodels.Donor, error)
	UpdateEligibility(ctx context.Context, id uuid.UUID, last, next time.Time) error
}

// IdentityStore resolves requester accounts for denormalized contact fields.
type IdentityStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identitymodels.User, error)
}

// Service owns the request ledger. Completing a request and stamping the
// receiving donor's cooldown happen inside one transaction so the ledger and
// the donor directory never disagree.
type Service struct {
	requests   Store
	donors     DonorStore
	identities IdentityStore
	runner     tx.Runner
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the wall clock, used by tests to pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs a Service.
func New(requests Store, donors DonorStore, identities IdentityStore, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		requests:   requests,
		donors:     donors,
		identities: identities,
		runner:     runner,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams carries the fields for a new blood request.
type CreateParams struct {
	RequesterID uuid.UUID
	DonorID     uuid.UUID
	BloodGroup  string
	Address     string
	Urgent      bool
}

func (p CreateParams) validate() error {
	switch {
	case p.DonorID == uuid.Nil, p.BloodGroup == "", p.Address == "":
		return dErrors.New(dErrors.CodeValidation, "please fill all the fields")
	}
	return nil
}

// Create opens a pending request addressed to a donor. Requester name and
// phone are copied onto the row from the caller's account.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.BloodRequest, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	requester, err := s.identities.FindByID(ctx, params.RequesterID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "requester account not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to resolve requester", err)
	}

	if _, err := s.donors.FindByID(ctx, params.DonorID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor record not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to resolve donor", err)
	}

	now := s.now().UTC()
	req := models.BloodRequest{
		ID:             uuid.New(),
		RequesterID:    requester.ID,
		DonorID:        params.DonorID,
		RequesterName:  requester.UserName,
		RequesterPhone: requester.Phone,
		BloodGroup:     params.BloodGroup,
		Address:        params.Address,
		Urgent:         params.Urgent,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create blood request", err)
	}

	s.metrics.IncRequestsCreated()
	s.logger.InfoContext(ctx, "blood request created",
		"request_id", req.ID, "donor_id", req.DonorID, "requester_id", req.RequesterID)
	return &req, nil
}

// CompleteByID marks one request completed and stamps the receiving donor's
// cooldown. The operation is idempotent: repeat calls on an already completed
// request, or calls on an unknown id, succeed without moving the cooldown
// window.
func (s *Service) CompleteByID(ctx context.Context, id uuid.UUID) error {
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		donorID, flipped, err := s.requests.MarkCompleted(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			return err
		}
		if !flipped {
			return nil
		}
		if err := s.stampCooldown(ctx, donorID); err != nil {
			return err
		}
		s.metrics.IncDonationsCompleted()
		return nil
	})
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to complete blood request", err)
	}
	s.logger.InfoContext(ctx, "blood request completed", "request_id", id)
	return nil
}

// CompleteAllPendingForDonor flips every pending request addressed to the
// caller's donor profile and stamps one cooldown window, even when the donor
// had no open requests.
func (s *Service) CompleteAllPendingForDonor(ctx context.Context, donorUserID uuid.UUID) error {
	donor, err := s.donors.FindByUserID(ctx, donorUserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "donor record not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to resolve donor", err)
	}

	var flipped int
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		flipped, err = s.requests.MarkAllCompletedForDonor(ctx, donor.ID)
		if err != nil {
			return err
		}
		return s.stampCooldown(ctx, donor.ID)
	})
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to complete donation", err)
	}

	for i := 0; i < flipped; i++ {
		s.metrics.IncDonationsCompleted()
	}
	s.logger.InfoContext(ctx, "donation marked complete",
		"donor_id", donor.ID, "requests_completed", flipped)
	return nil
}

// stampCooldown records today's donation on the profile and pushes the next
// eligible date two months out. Must run inside the caller's transaction.
func (s *Service) stampCooldown(ctx context.Context, donorID uuid.UUID) error {
	donor, err := s.donors.FindByID(ctx, donorID)
	if err != nil {
		return err
	}
	stamped := eligibility.CompleteDonation(*donor, s.now())
	return s.donors.UpdateEligibility(ctx, donor.ID, *stamped.LastDonationDate, *stamped.NextEligibleDate)
}

// CompleteForDonor completes one request on behalf of the receiving donor.
// Requests addressed to someone else are rejected.
func (s *Service) CompleteForDonor(ctx context.Context, donorUserID, id uuid.UUID) error {
	if _, err := s.resolveOwnedRequest(ctx, donorUserID, id); err != nil {
		return err
	}
	return s.CompleteByID(ctx, id)
}

// DeleteForDonor removes one of the caller's incoming requests.
func (s *Service) DeleteForDonor(ctx context.Context, donorUserID, id uuid.UUID) error {
	if _, err := s.resolveOwnedRequest(ctx, donorUserID, id); err != nil {
		return err
	}
	return s.Delete(ctx, id)
}

func (s *Service) resolveOwnedRequest(ctx context.Context, donorUserID, id uuid.UUID) (*models.BloodRequest, error) {
	donor, err := s.donors.FindByUserID(ctx, donorUserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor record not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to resolve donor", err)
	}
	req, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.DonorID != donor.ID {
		return nil, dErrors.New(dErrors.CodeForbidden, "blood request is addressed to another donor")
	}
	return req, nil
}

// ListForDonor returns every request addressed to the caller's donor
// profile, newest first, completed ones included.
func (s *Service) ListForDonor(ctx context.Context, donorUserID uuid.UUID) ([]models.BloodRequest, error) {
	donor, err := s.donors.FindByUserID(ctx, donorUserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor record not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to resolve donor", err)
	}
	out, err := s.requests.ListByDonor(ctx, donor.ID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list blood requests", err)
	}
	return out, nil
}

// ListForRequester returns the caller's open requests, newest first. Requests
// already completed stay out of the listing.
func (s *Service) ListForRequester(ctx context.Context, requesterID uuid.UUID) ([]models.RequesterView, error) {
	out, err := s.requests.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list blood requests", err)
	}
	return out, nil
}

// ListAll returns the whole ledger, newest first.
func (s *Service) ListAll(ctx context.Context) ([]models.BloodRequest, error) {
	out, err := s.requests.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list blood requests", err)
	}
	return out, nil
}

// ListCompleted returns completed donations, most recent first.
func (s *Service) ListCompleted(ctx context.Context) ([]models.BloodRequest, error) {
	out, err := s.requests.ListCompleted(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list completed donations", err)
	}
	return out, nil
}

// GetByID returns one request by id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.BloodRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "blood request not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to fetch blood request", err)
	}
	return req, nil
}

// Delete removes one request from the ledger.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.requests.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "blood request not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete blood request", err)
	}
	s.logger.InfoContext(ctx, "blood request deleted", "request_id", id)
	return nil
}

// DeleteByRequesterID clears the ledger of every request a user created.
// Used when an account is removed.
func (s *Service) DeleteByRequesterID(ctx context.Context, requesterID uuid.UUID) error {
	if _, err := s.requests.DeleteByRequesterID(ctx, requesterID); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete blood requests", err)
	}
	return nil
}

// DeleteByDonorID clears the ledger of every request addressed to a donor.
// Used when a donor profile is removed.
func (s *Service) DeleteByDonorID(ctx context.Context, donorID uuid.UUID) error {
	if _, err := s.requests.DeleteByDonorID(ctx, donorID); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete blood requests", err)
	}
	return nil
}
