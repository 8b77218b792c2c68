package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	donormodels "bloodbridge/internal/donor/models"
	donorstore "bloodbridge/internal/donor/store"
	identitymodels "bloodbridge/internal/identity/models"
	identitystore "bloodbridge/internal/identity/store"
	matchingservice "bloodbridge/internal/matching/service"
	matchingstore "bloodbridge/internal/matching/store"
	"bloodbridge/internal/request/models"
	requeststore "bloodbridge/internal/request/store"
	dErrors "bloodbridge/pkg/domain-errors"
	"bloodbridge/pkg/platform/tx"
)

type RequestServiceSuite struct {
	suite.Suite
	identities *identitystore.Memory
	donors     *donorstore.Memory
	requests   *requeststore.Memory
	service    *Service
	today      time.Time
}

func TestRequestServiceSuite(t *testing.T) {
	suite.Run(t, new(RequestServiceSuite))
}

func (s *RequestServiceSuite) SetupTest() {
	s.identities = identitystore.NewMemory()
	s.donors = donorstore.NewMemory()
	s.requests = requeststore.NewMemory(s.donors, s.identities)
	s.today = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
	s.service = New(s.requests, s.donors, s.identities, tx.NopRunner{},
		WithClock(func() time.Time { return s.today }))
}

func (s *RequestServiceSuite) seedUser(name, phone string, role identitymodels.Role) *identitymodels.User {
	user := &identitymodels.User{
		ID:           uuid.New(),
		UserName:     name,
		Email:        name + "@example.com",
		Phone:        phone,
		PasswordHash: "x",
		Role:         role,
	}
	s.Require().NoError(s.identities.Create(context.Background(), user))
	return user
}

func (s *RequestServiceSuite) seedDonor(name, phone string) (*identitymodels.User, *donormodels.Donor) {
	user := s.seedUser(name, phone, identitymodels.RoleDonor)
	donor := &donormodels.Donor{
		ID:          uuid.New(),
		UserID:      user.ID,
		BloodGroup:  "A+",
		Province:    "Bagmati",
		District:    "Kathmandu",
		City:        "Kathmandu",
		DateOfBirth: time.Date(1994, time.August, 21, 0, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.donors.Create(context.Background(), donor))
	return user, donor
}

func (s *RequestServiceSuite) createRequest(requesterID, donorID uuid.UUID) *models.BloodRequest {
	req, err := s.service.Create(context.Background(), CreateParams{
		RequesterID: requesterID,
		DonorID:     donorID,
		BloodGroup:  "A+",
		Address:     "Patan Hospital, Lalitpur",
	})
	s.Require().NoError(err)
	return req
}

func (s *RequestServiceSuite) TestCreate() {
	ctx := context.Background()
	requester := s.seedUser("sita", "9800000001", identitymodels.RoleUser)
	_, donor := s.seedDonor("hari", "9800000002")

	s.Run("missing fields rejected", func() {
		_, err := s.service.Create(ctx, CreateParams{
			RequesterID: requester.ID,
			DonorID:     donor.ID,
			BloodGroup:  "A+",
		})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("unknown requester rejected", func() {
		_, err := s.service.Create(ctx, CreateParams{
			RequesterID: uuid.New(),
			DonorID:     donor.ID,
			BloodGroup:  "A+",
			Address:     "Patan Hospital",
		})
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown donor rejected", func() {
		_, err := s.service.Create(ctx, CreateParams{
			RequesterID: requester.ID,
			DonorID:     uuid.New(),
			BloodGroup:  "A+",
			Address:     "Patan Hospital",
		})
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("copies requester contact onto the row", func() {
		req := s.createRequest(requester.ID, donor.ID)
		s.Equal("sita", req.RequesterName)
		s.Equal("9800000001", req.RequesterPhone)
		s.Equal(models.StatusPending, req.Status)
	})
}

func (s *RequestServiceSuite) TestCompleteByID() {
	ctx := context.Background()
	requester := s.seedUser("sita", "9800000001", identitymodels.RoleUser)
	_, donor := s.seedDonor("hari", "9800000002")
	req := s.createRequest(requester.ID, donor.ID)

	s.Run("flips status and stamps cooldown", func() {
		s.Require().NoError(s.service.CompleteByID(ctx, req.ID))

		got, err := s.requests.FindByID(ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, got.Status)

		profile, err := s.donors.FindByID(ctx, donor.ID)
		s.Require().NoError(err)
		s.Require().NotNil(profile.LastDonationDate)
		s.Require().NotNil(profile.NextEligibleDate)
		s.Equal(time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), *profile.LastDonationDate)
		s.Equal(time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC), *profile.NextEligibleDate)
	})

	s.Run("repeat completion leaves the cooldown alone", func() {
		s.today = s.today.AddDate(0, 0, 12)
		s.Require().NoError(s.service.CompleteByID(ctx, req.ID))

		profile, err := s.donors.FindByID(ctx, donor.ID)
		s.Require().NoError(err)
		s.Equal(time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), *profile.LastDonationDate)
		s.Equal(time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC), *profile.NextEligibleDate)
	})

	s.Run("unknown id is a no-op", func() {
		s.Require().NoError(s.service.CompleteByID(ctx, uuid.New()))
	})
}

func (s *RequestServiceSuite) TestCompleteAllPendingForDonor() {
	ctx := context.Background()
	requester := s.seedUser("sita", "9800000001", identitymodels.RoleUser)
	other := s.seedUser("gita", "9800000003", identitymodels.RoleUser)
	donorUser, donor := s.seedDonor("hari", "9800000002")

	first := s.createRequest(requester.ID, donor.ID)
	second := s.createRequest(other.ID, donor.ID)

	s.Run("flips every pending request with one stamp", func() {
		s.Require().NoError(s.service.CompleteAllPendingForDonor(ctx, donorUser.ID))

		for _, id := range []uuid.UUID{first.ID, second.ID} {
			got, err := s.requests.FindByID(ctx, id)
			s.Require().NoError(err)
			s.Equal(models.StatusCompleted, got.Status)
		}

		profile, err := s.donors.FindByID(ctx, donor.ID)
		s.Require().NoError(err)
		s.Require().NotNil(profile.NextEligibleDate)
		s.Equal(time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC), *profile.NextEligibleDate)
	})

	s.Run("stamps even without open requests", func() {
		s.today = s.today.AddDate(0, 3, 0)
		s.Require().NoError(s.service.CompleteAllPendingForDonor(ctx, donorUser.ID))

		profile, err := s.donors.FindByID(ctx, donor.ID)
		s.Require().NoError(err)
		s.Equal(time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC), *profile.NextEligibleDate)
	})

	s.Run("unknown donor", func() {
		err := s.service.CompleteAllPendingForDonor(ctx, uuid.New())
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func (s *RequestServiceSuite) TestOwnershipGuard() {
	ctx := context.Background()
	requester := s.seedUser("sita", "9800000001", identitymodels.RoleUser)
	donorUser, donor := s.seedDonor("hari", "9800000002")
	otherUser, _ := s.seedDonor("ram", "9800000004")
	req := s.createRequest(requester.ID, donor.ID)

	s.Run("another donor cannot complete it", func() {
		err := s.service.CompleteForDonor(ctx, otherUser.ID, req.ID)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("another donor cannot delete it", func() {
		err := s.service.DeleteForDonor(ctx, otherUser.ID, req.ID)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("the receiving donor can complete it", func() {
		s.Require().NoError(s.service.CompleteForDonor(ctx, donorUser.ID, req.ID))
		got, err := s.requests.FindByID(ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, got.Status)
	})
}

func (s *RequestServiceSuite) TestListings() {
	ctx := context.Background()
	requester := s.seedUser("sita", "9800000001", identitymodels.RoleUser)
	donorUser, donor := s.seedDonor("hari", "9800000002")

	first := s.createRequest(requester.ID, donor.ID)
	second := s.createRequest(requester.ID, donor.ID)
	s.Require().NoError(s.service.CompleteByID(ctx, first.ID))

	s.Run("requester sees open requests only, newest first", func() {
		views, err := s.service.ListForRequester(ctx, requester.ID)
		s.Require().NoError(err)
		s.Require().Len(views, 1)
		s.Equal(second.ID, views[0].ID)
		s.Equal("hari", views[0].DonorName)
		s.Equal("9800000002", views[0].DonorPhone)
		s.Equal("A+", views[0].DonorBloodGroup)
	})

	s.Run("donor sees the full history, newest first", func() {
		reqs, err := s.service.ListForDonor(ctx, donorUser.ID)
		s.Require().NoError(err)
		s.Require().Len(reqs, 2)
		s.Equal(second.ID, reqs[0].ID)
		s.Equal(first.ID, reqs[1].ID)
	})

	s.Run("donor listing requires a profile", func() {
		_, err := s.service.ListForDonor(ctx, requester.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

// A fulfilled donation must push the donor out of the public directory for
// the cooldown window and let them back in once it passes.
func (s *RequestServiceSuite) TestCompletedDonorLeavesDirectory() {
	ctx := context.Background()
	requester := s.seedUser("sita", "9800000001", identitymodels.RoleUser)
	_, donor := s.seedDonor("hari", "9800000002")
	req := s.createRequest(requester.ID, donor.ID)

	directory := matchingservice.New(matchingstore.NewMemory(s.donors, s.identities),
		matchingservice.WithClock(func() time.Time { return s.today }))

	cards, err := directory.ListEligible(ctx)
	s.Require().NoError(err)
	s.Require().Len(cards, 1)

	s.Require().NoError(s.service.CompleteByID(ctx, req.ID))

	cards, err = directory.ListEligible(ctx)
	s.Require().NoError(err)
	s.Empty(cards)

	s.today = s.today.AddDate(0, 2, 0)
	cards, err = directory.ListEligible(ctx)
	s.Require().NoError(err)
	s.Len(cards, 1)
}

func (s *RequestServiceSuite) TestDeletes() {
	ctx := context.Background()
	requester := s.seedUser("sita", "9800000001", identitymodels.RoleUser)
	_, donor := s.seedDonor("hari", "9800000002")

	s.Run("delete one", func() {
		req := s.createRequest(requester.ID, donor.ID)
		s.Require().NoError(s.service.Delete(ctx, req.ID))
		err := s.service.Delete(ctx, req.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("delete by requester clears the caller's rows", func() {
		s.createRequest(requester.ID, donor.ID)
		s.createRequest(requester.ID, donor.ID)
		s.Require().NoError(s.service.DeleteByRequesterID(ctx, requester.ID))

		views, err := s.service.ListForRequester(ctx, requester.ID)
		s.Require().NoError(err)
		s.Empty(views)
	})

	s.Run("delete by donor clears the donor's rows", func() {
		req := s.createRequest(requester.ID, donor.ID)
		s.Require().NoError(s.service.DeleteByDonorID(ctx, donor.ID))
		_, err := s.service.GetByID(ctx, req.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}
