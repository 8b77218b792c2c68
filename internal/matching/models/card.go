package models

import (
	"time"

	"github.com/google/uuid"
)

// DonorCard is the public directory projection of an eligible donor: the
// profile joined with the owning account's display name and phone.
type DonorCard struct {
	DonorID          uuid.UUID
	UserID           uuid.UUID
	Name             string
	Email            string
	Phone            string
	BloodGroup       string
	Province         string
	District         string
	City             string
	LastDonationDate *time.Time
	NextEligibleDate *time.Time
}

// Filter narrows the directory listing. BloodGroup matches exactly; Address
// is a case-insensitive substring match against province, district, and city.
// Empty fields match everything.
type Filter struct {
	BloodGroup string
	Address    string
}

// Empty reports whether no criteria were supplied.
func (f Filter) Empty() bool {
	return f.BloodGroup == "" && f.Address == ""
}
