package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	donorstore "bloodbridge/internal/donor/store"
	identitymodels "bloodbridge/internal/identity/models"
	identitystore "bloodbridge/internal/identity/store"
	dErrors "bloodbridge/pkg/domain-errors"
	"bloodbridge/pkg/platform/tx"
)

type DonorServiceSuite struct {
	suite.Suite
	identities *identitystore.Memory
	donors     *donorstore.Memory
	service    *Service
}

func TestDonorServiceSuite(t *testing.T) {
	suite.Run(t, new(DonorServiceSuite))
}

func (s *DonorServiceSuite) SetupTest() {
	s.identities = identitystore.NewMemory()
	s.donors = donorstore.NewMemory()
	s.service = New(s.identities, s.donors, tx.NopRunner{})
}

func validParams(phone string) RegisterParams {
	return RegisterParams{
		UserName:    "bibek",
		Password:    "secret-pass",
		Email:       "bibek@example.com",
		Phone:       phone,
		BloodGroup:  "O+",
		Province:    "Bagmati",
		District:    "Kathmandu",
		City:        "Kathmandu",
		DateOfBirth: time.Date(1995, time.May, 4, 0, 0, 0, 0, time.UTC),
	}
}

func (s *DonorServiceSuite) TestRegister() {
	ctx := context.Background()

	s.Run("missing fields rejected", func() {
		p := validParams("9800000020")
		p.BloodGroup = ""
		_, err := s.service.Register(ctx, p)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("creates donor-role identity and profile", func() {
		donor, err := s.service.Register(ctx, validParams("9800000021"))
		s.Require().NoError(err)
		s.Nil(donor.NextEligibleDate)
		s.Nil(donor.LastDonationDate)

		user, err := s.identities.FindByID(ctx, donor.UserID)
		s.Require().NoError(err)
		s.Equal(identitymodels.RoleDonor, user.Role)
	})

	s.Run("duplicate phone conflicts", func() {
		_, err := s.service.Register(ctx, validParams("9800000022"))
		s.Require().NoError(err)
		_, err = s.service.Register(ctx, validParams("9800000022"))
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})
}

func (s *DonorServiceSuite) TestGetByUserID() {
	ctx := context.Background()
	donor, err := s.service.Register(ctx, validParams("9800000023"))
	s.Require().NoError(err)

	got, err := s.service.GetByUserID(ctx, donor.UserID)
	s.Require().NoError(err)
	s.Equal(donor.ID, got.ID)

	s.Run("missing profile not found", func() {
		_, err := s.service.GetByUserID(ctx, donor.ID) // profile id, not user id
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func (s *DonorServiceSuite) TestDeleteByUserIDDemotesRole() {
	ctx := context.Background()
	donor, err := s.service.Register(ctx, validParams("9800000024"))
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteByUserID(ctx, donor.UserID))

	// Profile gone, identity kept but demoted.
	_, err = s.service.GetByUserID(ctx, donor.UserID)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))

	user, err := s.identities.FindByID(ctx, donor.UserID)
	s.Require().NoError(err)
	s.Equal(identitymodels.RoleUser, user.Role)
}

func (s *DonorServiceSuite) TestDeleteByID() {
	ctx := context.Background()
	donor, err := s.service.Register(ctx, validParams("9800000025"))
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteByID(ctx, donor.ID))
	user, err := s.identities.FindByID(ctx, donor.UserID)
	s.Require().NoError(err)
	s.Equal(identitymodels.RoleUser, user.Role)

	s.Run("unknown donor not found", func() {
		s.True(dErrors.Is(s.service.DeleteByID(ctx, donor.ID), dErrors.CodeNotFound))
	})
}
