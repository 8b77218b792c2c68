package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bloodbridge/internal/donor/models"
	identitymodels "bloodbridge/internal/identity/models"
	"bloodbridge/internal/platform/metrics"
	dErrors "bloodbridge/pkg/domain-errors"
	"bloodbridge/pkg/platform/sentinel"
	"bloodbridge/pkg/platform/tx"
)

const bcryptCost = 12

// IdentityStore is the slice of the identity store the donor service needs
// for atomic registration and role demotion.
type IdentityStore interface {
	Create(ctx context.Context, user *identitymodels.User) error
	FindByPhone(ctx context.Context, phone string) (*identitymodels.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role identitymodels.Role) error
}

// Store is the donor profile persistence contract.
type Store interface {
	Create(ctx context.Context, d *models.Donor) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Donor, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Donor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service owns the donor profile lifecycle and the Identity/DonorProfile
// coupling invariant: a profile exists only alongside a donor-role identity,
// and removing the profile demotes the identity back to a plain user.
type Service struct {
	identities IdentityStore
	donors     Store
	runner     tx.Runner
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(identities IdentityStore, donors Store, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		identities: identities,
		donors:     donors,
		runner:     runner,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterParams carries the identity and profile fields for donor signup.
type RegisterParams struct {
	UserName    string
	Password    string
	Email       string
	Phone       string
	BloodGroup  string
	Province    string
	District    string
	City        string
	DateOfBirth time.Time
}

func (p RegisterParams) validate() error {
	switch {
	case p.UserName == "", p.Password == "", p.Email == "", p.Phone == "",
		p.BloodGroup == "", p.Province == "", p.District == "", p.City == "",
		p.DateOfBirth.IsZero():
		return dErrors.New(dErrors.CodeValidation, "please fill all the fields")
	}
	if len(p.Password) < 6 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}
	return nil
}

// Register creates the donor-role identity and its profile as one atomic
// unit. If either write fails neither persists.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.Donor, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	if _, err := s.identities.FindByPhone(ctx, params.Phone); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "your phone number is already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to check existing account", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to hash password", err)
	}

	user := &identitymodels.User{
		ID:           uuid.New(),
		UserName:     params.UserName,
		Email:        params.Email,
		Phone:        params.Phone,
		PasswordHash: string(hash),
		Role:         identitymodels.RoleDonor,
	}
	donor := &models.Donor{
		ID:          uuid.New(),
		UserID:      user.ID,
		BloodGroup:  params.BloodGroup,
		Province:    params.Province,
		District:    params.District,
		City:        params.City,
		DateOfBirth: params.DateOfBirth,
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.identities.Create(ctx, user); err != nil {
			return err
		}
		return s.donors.Create(ctx, donor)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "your phone number is already registered")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to register donor", err)
	}

	s.metrics.IncDonorsRegistered()
	s.logger.InfoContext(ctx, "donor registered", "user_id", user.ID, "donor_id", donor.ID)
	return donor, nil
}

// GetByUserID returns the profile owned by the given identity.
func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Donor, error) {
	donor, err := s.donors.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor record not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to fetch donor", err)
	}
	return donor, nil
}

// DeleteByUserID removes the caller's profile and demotes the identity back
// to a plain user. The profile delete runs first; demotion never happens if
// it fails.
func (s *Service) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	donor, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return s.deleteAndDemote(ctx, donor)
}

// DeleteByID is the admin-side removal of an arbitrary profile.
func (s *Service) DeleteByID(ctx context.Context, donorID uuid.UUID) error {
	donor, err := s.donors.FindByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "donor record not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to fetch donor", err)
	}
	return s.deleteAndDemote(ctx, donor)
}

func (s *Service) deleteAndDemote(ctx context.Context, donor *models.Donor) error {
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.donors.Delete(ctx, donor.ID); err != nil {
			return err
		}
		return s.identities.UpdateRole(ctx, donor.UserID, identitymodels.RoleUser)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "donor record not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete donor", err)
	}
	s.logger.InfoContext(ctx, "donor deleted", "donor_id", donor.ID, "user_id", donor.UserID)
	return nil
}
