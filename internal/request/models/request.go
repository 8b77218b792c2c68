package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a blood request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// BloodRequest is a request from a registered user to a specific donor.
// Requester name and phone are denormalized at creation time so the row
// stays readable even if the requester account is later removed.
type BloodRequest struct {
	ID             uuid.UUID
	RequesterID    uuid.UUID
	DonorID        uuid.UUID
	RequesterName  string
	RequesterPhone string
	BloodGroup     string
	Address        string
	Urgent         bool
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RequesterView is a request as seen by its requester, joined with the
// donor's current profile and contact details.
type RequesterView struct {
	BloodRequest
	DonorName       string
	DonorPhone      string
	DonorBloodGroup string
	DonorProvince   string
	DonorDistrict   string
	DonorCity       string
}
