package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	jwttoken "bloodbridge/internal/jwt_token"

	"bloodbridge/internal/identity/models"
	"bloodbridge/internal/platform/metrics"
	dErrors "bloodbridge/pkg/domain-errors"
	"bloodbridge/pkg/platform/sentinel"
)

// bcryptCost matches the hashing strength used by the rest of the fleet.
const bcryptCost = 12

// Store is the identity persistence contract the service depends on.
type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// RevocationList records logged-out token IDs until they expire.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// Service owns account registration and credential verification.
type Service struct {
	store      Store
	tokens     *jwttoken.Service
	revocation RevocationList
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

func WithRevocationList(rl RevocationList) Option {
	return func(s *Service) { s.revocation = rl }
}

// New constructs a Service.
func New(store Store, tokens *jwttoken.Service, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tokens: tokens,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterParams carries the fields for account creation.
type RegisterParams struct {
	UserName string
	Password string
	Email    string
	Phone    string
}

func (p RegisterParams) validate() error {
	if p.UserName == "" || p.Password == "" || p.Email == "" || p.Phone == "" {
		return dErrors.New(dErrors.CodeValidation, "please provide all required details")
	}
	if len(p.Password) < 6 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}
	return nil
}

// RegisterUser creates a plain user account. The phone number is the login
// identifier and must be unique.
func (s *Service) RegisterUser(ctx context.Context, params RegisterParams) (*models.User, error) {
	return s.register(ctx, params, models.RoleUser)
}

// RegisterAdmin creates an admin account. Admins log in by email, so the
// duplicate check covers email as well as phone.
func (s *Service) RegisterAdmin(ctx context.Context, params RegisterParams) (*models.User, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.FindByEmail(ctx, params.Email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to check existing account", err)
	}
	return s.register(ctx, params, models.RoleAdmin)
}

func (s *Service) register(ctx context.Context, params RegisterParams, role models.Role) (*models.User, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	if _, err := s.store.FindByPhone(ctx, params.Phone); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "your phone number is already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to check existing account", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to hash password", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		UserName:     params.UserName,
		Email:        params.Email,
		Phone:        params.Phone,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "your phone number is already registered")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create account", err)
	}

	s.metrics.IncIdentitiesRegistered()
	s.logger.InfoContext(ctx, "identity registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies phone credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, phone, password string) (*models.User, string, error) {
	if phone == "" || password == "" {
		return nil, "", dErrors.New(dErrors.CodeValidation, "phone number and password are required")
	}

	user, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, "", dErrors.New(dErrors.CodeUnauthorized, "invalid phone number or password")
		}
		return nil, "", dErrors.Wrap(dErrors.CodeInternal, "failed to look up account", err)
	}
	return s.finishLogin(ctx, user, password)
}

// LoginAdmin verifies email credentials for an admin account.
func (s *Service) LoginAdmin(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, "", dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, "", dErrors.Wrap(dErrors.CodeInternal, "failed to look up account", err)
	}
	if user.Role != models.RoleAdmin {
		return nil, "", dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	return s.finishLogin(ctx, user, password)
}

func (s *Service) finishLogin(ctx context.Context, user *models.User, password string) (*models.User, string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", dErrors.New(dErrors.CodeUnauthorized, "invalid phone number or password")
	}

	token, err := s.tokens.Generate(user.ID, user.Phone, string(user.Role))
	if err != nil {
		return nil, "", dErrors.Wrap(dErrors.CodeInternal, "failed to issue token", err)
	}
	s.logger.InfoContext(ctx, "login", "user_id", user.ID, "role", user.Role)
	return user, token, nil
}

// Logout puts the presented token's ID on the revocation list for the rest of
// the token lifetime. A no-op when no revocation list is configured.
func (s *Service) Logout(ctx context.Context, jti string) error {
	if s.revocation == nil || jti == "" {
		return nil
	}
	if err := s.revocation.Revoke(ctx, jti, s.tokens.TokenTTL()); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to revoke token", err)
	}
	return nil
}
