package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/andresuchdata/farmrisk/internal/domain"
)

type Identity struct {
	mu    sync.RWMutex
	users map[int64]domain.User
	farms map[int64]domain.Farm
}

func NewIdentity() *Identity {
	return &Identity{
		users: make(map[int64]domain.User),
		farms: make(map[int64]domain.Farm),
	}
}

func (i *Identity) AddUser(u domain.User) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.users[u.ID] = u
}

func (i *Identity) AddFarm(f domain.Farm) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.farms[f.ID] = f
}

func (i *Identity) FindUser(ctx context.Context, id int64) (*domain.User, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	u, ok := i.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("user", id)
	}
	return &u, nil
}

func (i *Identity) FindUsers(ctx context.Context, ids []int64) ([]domain.User, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]domain.User, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if u, ok := i.users[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, u)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (i *Identity) FindFarm(ctx context.Context, id int64) (*domain.Farm, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	f, ok := i.farms[id]
	if !ok {
		return nil, domain.NewNotFoundError("farm", id)
	}
	return &f, nil
}
