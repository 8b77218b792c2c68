package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bloodbridge/internal/identity/models"
	"bloodbridge/pkg/platform/sentinel"
)

// Memory is an in-memory identity store used by unit tests and local
// development. Insertion order is tracked so listings stay stable.
type Memory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
	order []uuid.UUID
}

func NewMemory() *Memory {
	return &Memory{users: make(map[uuid.UUID]*models.User)}
}

func (s *Memory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Phone == user.Phone {
			return sentinel.ErrConflict
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	s.order = append(s.order, user.ID)
	return nil
}

func (s *Memory) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Memory) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if u, ok := s.users[id]; ok && u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if u, ok := s.users[id]; ok && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) UpdateRole(_ context.Context, id uuid.UUID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.Role = role
	return nil
}

func (s *Memory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.users, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Memory) ListByRole(_ context.Context, role models.Role) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.User
	for _, id := range s.order {
		if u, ok := s.users[id]; ok && u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}
