package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodbridge/internal/donor/eligibility"
	donormodels "bloodbridge/internal/donor/models"
	identitymodels "bloodbridge/internal/identity/models"
	"bloodbridge/internal/matching/models"
)

// DonorLister enumerates donor profiles for the in-memory directory.
type DonorLister interface {
	List(ctx context.Context) ([]*donormodels.Donor, error)
}

// UserLookup resolves the owning account for each profile.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identitymodels.User, error)
}

// Memory composes the in-memory donor and identity stores into a directory.
// The eligibility cut and filters run in Go instead of SQL.
type Memory struct {
	donors DonorLister
	users  UserLookup
}

func NewMemory(donors DonorLister, users UserLookup) *Memory {
	return &Memory{donors: donors, users: users}
}

func (m *Memory) ListEligible(ctx context.Context, today time.Time, filter models.Filter) ([]models.DonorCard, error) {
	donors, err := m.donors.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.DonorCard
	for _, d := range donors {
		if !eligibility.IsEligible(d, today) || !matches(d, filter) {
			continue
		}
		card := models.DonorCard{
			DonorID:          d.ID,
			UserID:           d.UserID,
			BloodGroup:       d.BloodGroup,
			Province:         d.Province,
			District:         d.District,
			City:             d.City,
			LastDonationDate: d.LastDonationDate,
			NextEligibleDate: d.NextEligibleDate,
		}
		if user, err := m.users.FindByID(ctx, d.UserID); err == nil {
			card.Name = user.UserName
			card.Email = user.Email
			card.Phone = user.Phone
		}
		out = append(out, card)
	}
	return out, nil
}

func matches(d *donormodels.Donor, f models.Filter) bool {
	if f.BloodGroup != "" && d.BloodGroup != f.BloodGroup {
		return false
	}
	if f.Address != "" {
		needle := strings.ToLower(f.Address)
		haystack := strings.ToLower(d.Province + " " + d.District + " " + d.City)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
