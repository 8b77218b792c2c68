package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"bloodbridge/internal/donor/models"
	"bloodbridge/pkg/platform/sentinel"
)

// Memory is the in-memory donor profile store used by unit tests.
type Memory struct {
	mu     sync.RWMutex
	donors map[uuid.UUID]*models.Donor
	order  []uuid.UUID
}

func NewMemory() *Memory {
	return &Memory{donors: make(map[uuid.UUID]*models.Donor)}
}

func (s *Memory) Create(_ context.Context, d *models.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.donors {
		if existing.UserID == d.UserID {
			return sentinel.ErrConflict
		}
	}
	cp := *d
	s.donors[d.ID] = &cp
	s.order = append(s.order, d.ID)
	return nil
}

func (s *Memory) FindByID(_ context.Context, id uuid.UUID) (*models.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.donors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *Memory) FindByUserID(_ context.Context, userID uuid.UUID) (*models.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if d, ok := s.donors[id]; ok && d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) UpdateEligibility(_ context.Context, id uuid.UUID, last, next time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.donors[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	lastCp, nextCp := last, next
	d.LastDonationDate = &lastCp
	d.NextEligibleDate = &nextCp
	return nil
}

func (s *Memory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.donors[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.donors, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns all profiles, newest first, matching the relational store's
// ordering contract.
func (s *Memory) List(_ context.Context) ([]*models.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Donor, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if d, ok := s.donors[s.order[i]]; ok {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}
