package models

import (
	"time"

	"github.com/google/uuid"
)

// Donor is the eligibility profile attached to a donor-role identity.
// LastDonationDate and NextEligibleDate are nil until the first completed
// donation; eligibility decisions read only NextEligibleDate.
type Donor struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	BloodGroup       string
	Province         string
	District         string
	City             string
	DateOfBirth      time.Time
	LastDonationDate *time.Time
	NextEligibleDate *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
