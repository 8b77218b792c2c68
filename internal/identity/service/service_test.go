package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	jwttoken "bloodbridge/internal/jwt_token"

	"bloodbridge/internal/identity/models"
	identitystore "bloodbridge/internal/identity/store"
	"bloodbridge/internal/identity/store/revocation"
	dErrors "bloodbridge/pkg/domain-errors"
)

type IdentityServiceSuite struct {
	suite.Suite
	store   *identitystore.Memory
	trl     *revocation.MemoryTRL
	service *Service
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) SetupTest() {
	s.store = identitystore.NewMemory()
	s.trl = revocation.NewMemoryTRL()
	tokens := jwttoken.NewService("test-key", "bloodbridge-test", time.Hour)
	s.service = New(s.store, tokens, WithRevocationList(s.trl))
}

func (s *IdentityServiceSuite) register(phone string) *models.User {
	user, err := s.service.RegisterUser(context.Background(), RegisterParams{
		UserName: "asha",
		Password: "secret-pass",
		Email:    "asha@example.com",
		Phone:    phone,
	})
	s.Require().NoError(err)
	return user
}

func (s *IdentityServiceSuite) TestRegisterUser() {
	ctx := context.Background()

	s.Run("missing fields rejected", func() {
		_, err := s.service.RegisterUser(ctx, RegisterParams{UserName: "x"})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("short password rejected", func() {
		_, err := s.service.RegisterUser(ctx, RegisterParams{
			UserName: "x", Password: "abc", Email: "x@example.com", Phone: "9800000010",
		})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("creates user with user role and hashed password", func() {
		user := s.register("9800000001")
		s.Equal(models.RoleUser, user.Role)
		s.NotEqual("secret-pass", user.PasswordHash)
	})

	s.Run("duplicate phone conflicts", func() {
		s.register("9800000002")
		_, err := s.service.RegisterUser(ctx, RegisterParams{
			UserName: "other", Password: "secret-pass", Email: "o@example.com", Phone: "9800000002",
		})
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})
}

func (s *IdentityServiceSuite) TestRegisterAdmin() {
	ctx := context.Background()

	admin, err := s.service.RegisterAdmin(ctx, RegisterParams{
		UserName: "root", Password: "admin-pass", Email: "root@example.com", Phone: "9800000003",
	})
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, admin.Role)

	s.Run("duplicate email conflicts", func() {
		_, err := s.service.RegisterAdmin(ctx, RegisterParams{
			UserName: "root2", Password: "admin-pass", Email: "root@example.com", Phone: "9800000004",
		})
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})
}

func (s *IdentityServiceSuite) TestLogin() {
	ctx := context.Background()
	s.register("9800000005")

	s.Run("valid credentials issue a token", func() {
		user, token, err := s.service.Login(ctx, "9800000005", "secret-pass")
		s.Require().NoError(err)
		s.NotEmpty(token)
		s.Equal("9800000005", user.Phone)
	})

	s.Run("wrong password unauthorized", func() {
		_, _, err := s.service.Login(ctx, "9800000005", "wrong")
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown phone unauthorized", func() {
		_, _, err := s.service.Login(ctx, "9899999999", "secret-pass")
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("missing input validation", func() {
		_, _, err := s.service.Login(ctx, "", "")
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})
}

func (s *IdentityServiceSuite) TestLoginAdmin() {
	ctx := context.Background()
	_, err := s.service.RegisterAdmin(ctx, RegisterParams{
		UserName: "root", Password: "admin-pass", Email: "root@example.com", Phone: "9800000006",
	})
	s.Require().NoError(err)
	s.register("9800000007")

	s.Run("admin can log in by email", func() {
		user, token, err := s.service.LoginAdmin(ctx, "root@example.com", "admin-pass")
		s.Require().NoError(err)
		s.NotEmpty(token)
		s.Equal(models.RoleAdmin, user.Role)
	})

	s.Run("non-admin email rejected", func() {
		_, _, err := s.service.LoginAdmin(ctx, "asha@example.com", "secret-pass")
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})
}

func (s *IdentityServiceSuite) TestLogout() {
	ctx := context.Background()

	s.Require().NoError(s.service.Logout(ctx, "some-jti"))
	revoked, err := s.trl.IsRevoked(ctx, "some-jti")
	s.Require().NoError(err)
	s.True(revoked)

	s.Run("empty jti is a no-op", func() {
		s.NoError(s.service.Logout(ctx, ""))
	})
}
