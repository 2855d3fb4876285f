package profile

import (
	"context"
	"fmt"
	"sync"
)

// ErrNotFound is returned when no profile has been stored for a user yet.
// Callers typically substitute the all-empty default profile.
var ErrNotFound = fmt.Errorf("profile not found")

// Repository persists profiles keyed by user id. The raw inputs are stored;
// derived values are recomputed on load by NewEngineFrom.
type Repository interface {
	Get(ctx context.Context, userID string) (Profile, error)
	Save(ctx context.Context, userID string, p Profile) error
}

// MemoryRepository is the in-process fallback used when no database is
// configured, and the implementation tests run against.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryRepository returns an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]Profile)}
}

func (r *MemoryRepository) Get(ctx context.Context, userID string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepository) Save(ctx context.Context, userID string, p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[userID] = p
	return nil
}
