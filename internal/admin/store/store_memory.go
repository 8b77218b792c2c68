package store

import (
	"context"

	"github.com/google/uuid"

	"bloodbridge/internal/admin/models"
	donormodels "bloodbridge/internal/donor/models"
	identitymodels "bloodbridge/internal/identity/models"
)

// DonorLister enumerates donor profiles for the in-memory console.
type DonorLister interface {
	List(ctx context.Context) ([]*donormodels.Donor, error)
}

// UserLookup resolves the owning account for each profile.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identitymodels.User, error)
}

// Memory composes the in-memory donor and identity stores into the admin
// console listing.
type Memory struct {
	donors DonorLister
	users  UserLookup
}

func NewMemory(donors DonorLister, users UserLookup) *Memory {
	return &Memory{donors: donors, users: users}
}

func (m *Memory) ListDonors(ctx context.Context) ([]models.DonorRecord, error) {
	donors, err := m.donors.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.DonorRecord
	for _, d := range donors {
		rec := models.DonorRecord{
			DonorID:          d.ID,
			UserID:           d.UserID,
			BloodGroup:       d.BloodGroup,
			Province:         d.Province,
			District:         d.District,
			City:             d.City,
			DateOfBirth:      d.DateOfBirth,
			LastDonationDate: d.LastDonationDate,
			NextEligibleDate: d.NextEligibleDate,
			CreatedAt:        d.CreatedAt,
		}
		if user, err := m.users.FindByID(ctx, d.UserID); err == nil {
			rec.Name = user.UserName
			rec.Email = user.Email
			rec.Phone = user.Phone
		}
		out = append(out, rec)
	}
	return out, nil
}
