package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"bloodbridge/internal/admin/models"
	donormodels "bloodbridge/internal/donor/models"
	identitymodels "bloodbridge/internal/identity/models"
	requestmodels "bloodbridge/internal/request/models"
	dErrors "bloodbridge/pkg/domain-errors"
	"bloodbridge/pkg/platform/sentinel"
	"bloodbridge/pkg/platform/tx"
)

// IdentityStore is the slice of the identity store the console needs.
type IdentityStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identitymodels.User, error)
	ListByRole(ctx context.Context, role identitymodels.Role) ([]*identitymodels.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DonorRegistry is the donor lifecycle surface the console drives.
type DonorRegistry interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*donormodels.Donor, error)
	DeleteByID(ctx context.Context, donorID uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// RequestLedger is the request ledger surface the console drives.
type RequestLedger interface {
	GetByID(ctx context.Context, id uuid.UUID) (*requestmodels.BloodRequest, error)
	CompleteByID(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByRequesterID(ctx context.Context, requesterID uuid.UUID) error
	DeleteByDonorID(ctx context.Context, donorID uuid.UUID) error
	ListAll(ctx context.Context) ([]requestmodels.BloodRequest, error)
	ListCompleted(ctx context.Context) ([]requestmodels.BloodRequest, error)
}

// Store serves the console's joined listings.
type Store interface {
	ListDonors(ctx context.Context) ([]models.DonorRecord, error)
}

// Service backs the admin console. Destructive operations compose the
// identity, donor, and request services inside one transaction so a removal
// never leaves orphaned ledger rows behind.
type Service struct {
	identities IdentityStore
	donors     DonorRegistry
	ledger     RequestLedger
	console    Store
	runner     tx.Runner
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs a Service.
func New(identities IdentityStore, donors DonorRegistry, ledger RequestLedger,
	console Store, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		identities: identities,
		donors:     donors,
		ledger:     ledger,
		console:    console,
		runner:     runner,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListUsers returns plain user accounts. Donor and admin accounts have their
// own listings.
func (s *Service) ListUsers(ctx context.Context) ([]*identitymodels.User, error) {
	users, err := s.identities.ListByRole(ctx, identitymodels.RoleUser)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list users", err)
	}
	return users, nil
}

// ListDonors returns every donor with profile and account joined, cooldown
// state included.
func (s *Service) ListDonors(ctx context.Context) ([]models.DonorRecord, error) {
	records, err := s.console.ListDonors(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list donors", err)
	}
	return records, nil
}

// ListCompletedDonations returns the donation history, most recent first.
func (s *Service) ListCompletedDonations(ctx context.Context) ([]requestmodels.BloodRequest, error) {
	return s.ledger.ListCompleted(ctx)
}

// ListAllRequests returns the whole ledger, open and completed, newest first.
func (s *Service) ListAllRequests(ctx context.Context) ([]requestmodels.BloodRequest, error) {
	return s.ledger.ListAll(ctx)
}

// SetRequestStatus moves a request to the given status. Completing delegates
// to the ledger so the donor's cooldown is stamped; a completed request can
// never go back to pending.
func (s *Service) SetRequestStatus(ctx context.Context, id uuid.UUID, status string) error {
	st := requestmodels.Status(status)
	if !st.Valid() {
		return dErrors.New(dErrors.CodeValidation, "status must be pending or completed")
	}

	if st == requestmodels.StatusCompleted {
		return s.ledger.CompleteByID(ctx, id)
	}

	req, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req.Status == requestmodels.StatusCompleted {
		return dErrors.New(dErrors.CodeValidation, "a completed request cannot be reopened")
	}
	return nil
}

// DeleteUser removes an account together with every request it created. A
// donor account also loses its profile and incoming requests.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.identities.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to fetch user", err)
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.ledger.DeleteByRequesterID(ctx, user.ID); err != nil {
			return err
		}
		if user.Role == identitymodels.RoleDonor {
			if donor, err := s.donors.GetByUserID(ctx, user.ID); err == nil {
				if err := s.ledger.DeleteByDonorID(ctx, donor.ID); err != nil {
					return err
				}
				if err := s.donors.DeleteByUserID(ctx, user.ID); err != nil {
					return err
				}
			}
		}
		return s.identities.Delete(ctx, user.ID)
	})
	if err != nil {
		if code := dErrors.CodeOf(err); code != dErrors.CodeInternal {
			return err
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete user", err)
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", user.ID, "role", user.Role)
	return nil
}

// DeleteDonor removes a donor profile, demotes the account back to a plain
// user, and clears the donor's incoming requests.
func (s *Service) DeleteDonor(ctx context.Context, donorID uuid.UUID) error {
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.ledger.DeleteByDonorID(ctx, donorID); err != nil {
			return err
		}
		return s.donors.DeleteByID(ctx, donorID)
	})
	if err != nil {
		if code := dErrors.CodeOf(err); code != dErrors.CodeInternal {
			return err
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete donor", err)
	}

	s.logger.InfoContext(ctx, "donor deleted by admin", "donor_id", donorID)
	return nil
}

// DeleteRequest removes one row from the ledger.
func (s *Service) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	return s.ledger.Delete(ctx, id)
}
