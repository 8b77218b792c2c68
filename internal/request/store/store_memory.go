package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	donormodels "bloodbridge/internal/donor/models"
	identitymodels "bloodbridge/internal/identity/models"
	"bloodbridge/internal/request/models"
	"bloodbridge/pkg/platform/sentinel"
)

// DonorLookup resolves donor profiles for the requester-side join.
type DonorLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*donormodels.Donor, error)
}

// UserLookup resolves user accounts for the requester-side join.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identitymodels.User, error)
}

// Memory is an in-memory request store. The postgres store joins donor
// details in SQL; here the join is emulated through the lookup interfaces.
type Memory struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]models.BloodRequest
	order    []uuid.UUID

	donors DonorLookup
	users  UserLookup
}

func NewMemory(donors DonorLookup, users UserLookup) *Memory {
	return &Memory{
		requests: make(map[uuid.UUID]models.BloodRequest),
		donors:   donors,
		users:    users,
	}
}

func (m *Memory) Create(ctx context.Context, req models.BloodRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.requests[req.ID]; ok {
		return sentinel.ErrConflict
	}
	m.requests[req.ID] = req
	m.order = append(m.order, req.ID)
	return nil
}

func (m *Memory) FindByID(ctx context.Context, id uuid.UUID) (*models.BloodRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &req, nil
}

// MarkCompleted flips a single request from pending to completed. It reports
// the receiving donor's id and whether this call performed the flip, so the
// caller can decide whether a cooldown stamp is due.
func (m *Memory) MarkCompleted(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return uuid.Nil, false, sentinel.ErrNotFound
	}
	if req.Status != models.StatusPending {
		return req.DonorID, false, nil
	}
	req.Status = models.StatusCompleted
	req.UpdatedAt = now()
	m.requests[id] = req
	return req.DonorID, true, nil
}

// MarkAllCompletedForDonor flips every pending request addressed to the donor
// and reports how many rows changed.
func (m *Memory) MarkAllCompletedForDonor(ctx context.Context, donorID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	flipped := 0
	for id, req := range m.requests {
		if req.DonorID == donorID && req.Status == models.StatusPending {
			req.Status = models.StatusCompleted
			req.UpdatedAt = now()
			m.requests[id] = req
			flipped++
		}
	}
	return flipped, nil
}

// ListByDonor returns every request addressed to the donor, newest first.
func (m *Memory) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]models.BloodRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.BloodRequest
	for i := len(m.order) - 1; i >= 0; i-- {
		req := m.requests[m.order[i]]
		if req.DonorID == donorID {
			out = append(out, req)
		}
	}
	return out, nil
}

// ListByRequester returns the requester's open requests, newest first,
// joined with the current donor profile. Completed requests are excluded.
func (m *Memory) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]models.RequesterView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.RequesterView
	for i := len(m.order) - 1; i >= 0; i-- {
		req := m.requests[m.order[i]]
		if req.RequesterID != requesterID || req.Status == models.StatusCompleted {
			continue
		}
		view := models.RequesterView{BloodRequest: req}
		if donor, err := m.donors.FindByID(ctx, req.DonorID); err == nil {
			view.DonorBloodGroup = donor.BloodGroup
			view.DonorProvince = donor.Province
			view.DonorDistrict = donor.District
			view.DonorCity = donor.City
			if user, err := m.users.FindByID(ctx, donor.UserID); err == nil {
				view.DonorName = user.UserName
				view.DonorPhone = user.Phone
			}
		}
		out = append(out, view)
	}
	return out, nil
}

// ListAll returns the whole ledger, newest first.
func (m *Memory) ListAll(ctx context.Context) ([]models.BloodRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.BloodRequest, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.requests[m.order[i]])
	}
	return out, nil
}

// ListCompleted returns completed requests, most recently completed first.
func (m *Memory) ListCompleted(ctx context.Context) ([]models.BloodRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.BloodRequest
	for _, req := range m.requests {
		if req.Status == models.StatusCompleted {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.requests[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.requests, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// DeleteByRequesterID removes every request created by the user.
func (m *Memory) DeleteByRequesterID(ctx context.Context, requesterID uuid.UUID) (int, error) {
	return m.deleteWhere(func(req models.BloodRequest) bool { return req.RequesterID == requesterID })
}

// DeleteByDonorID removes every request addressed to the donor.
func (m *Memory) DeleteByDonorID(ctx context.Context, donorID uuid.UUID) (int, error) {
	return m.deleteWhere(func(req models.BloodRequest) bool { return req.DonorID == donorID })
}

func now() time.Time { return time.Now().UTC() }

func (m *Memory) deleteWhere(match func(models.BloodRequest) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	kept := m.order[:0]
	for _, id := range m.order {
		if match(m.requests[id]) {
			delete(m.requests, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return removed, nil
}
