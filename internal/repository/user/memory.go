package user

import (
	"context"
	"sync"
	"time"

	"github.com/xpanvictor/humidhub/internal/domains/user"
)

// MemoryUserRepo is a process-local store for development and tests.
type MemoryUserRepo struct {
	mu         sync.RWMutex
	byID       map[string]*user.User
	byUsername map[string]string
	order      []string
}

// Create implements user.UserRepository
func (m *MemoryUserRepo) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byUsername[u.Username]; taken {
		return user.ErrUsernameTaken
	}
	m.byID[u.ID] = u.Clone()
	m.byUsername[u.Username] = u.ID
	m.order = append(m.order, u.ID)
	return nil
}

// GetByID implements user.UserRepository
func (m *MemoryUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u.Clone(), nil
}

// GetByUsername implements user.UserRepository
func (m *MemoryUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	m.mu.RLock()
	id, ok := m.byUsername[username]
	m.mu.RUnlock()
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return m.GetByID(ctx, id)
}

// List implements user.UserRepository
func (m *MemoryUserRepo) List(ctx context.Context, offset, limit int) ([]user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(m.order) {
		return []user.User{}, nil
	}
	ids := m.order[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	users := make([]user.User, len(ids))
	for i, id := range ids {
		users[i] = *m.byID[id].Clone()
	}
	return users, nil
}

// UsernameExists implements user.UserRepository
func (m *MemoryUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byUsername[username]
	return ok, nil
}

// Mutate implements user.UserRepository
func (m *MemoryUserRepo) Mutate(ctx context.Context, id string, fn user.MutateFunc) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now().UTC()
	m.byID[id] = working
	return working.Clone(), nil
}

// NewMemoryUserRepo creates an empty in-memory user repository
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:       make(map[string]*user.User),
		byUsername: make(map[string]string),
	}
}
