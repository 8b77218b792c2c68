package revocation

import (
	"context"
	"sync"
	"time"
)

// Clock lets tests control expiry evaluation.
type Clock func() time.Time

// MemoryTRL is an in-process token revocation list for single-instance
// deployments and tests.
type MemoryTRL struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	clock   Clock
}

// MemoryTRLOption configures a MemoryTRL instance.
type MemoryTRLOption func(*MemoryTRL)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) MemoryTRLOption {
	return func(t *MemoryTRL) {
		if clock != nil {
			t.clock = clock
		}
	}
}

func NewMemoryTRL(opts ...MemoryTRLOption) *MemoryTRL {
	t := &MemoryTRL{
		revoked: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func (t *MemoryTRL) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = t.clock().Add(ttl)
	return nil
}

func (t *MemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	t.mu.RLock()
	expiresAt, ok := t.revoked[jti]
	t.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if t.clock().After(expiresAt) {
		t.mu.Lock()
		delete(t.revoked, jti)
		t.mu.Unlock()
		return false, nil
	}
	return true, nil
}
