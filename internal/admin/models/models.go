package models

import (
	"time"

	"github.com/google/uuid"
)

// DonorRecord is the admin console's donor row: the profile joined with the
// owning account, cooldown state included. Unlike the public directory it
// carries the email and lists cooling-down donors too.
type DonorRecord struct {
	DonorID          uuid.UUID
	UserID           uuid.UUID
	Name             string
	Email            string
	Phone            string
	BloodGroup       string
	Province         string
	District         string
	City             string
	DateOfBirth      time.Time
	LastDonationDate *time.Time
	NextEligibleDate *time.Time
	CreatedAt        time.Time
}
