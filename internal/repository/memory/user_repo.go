package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lxyzcm1/parking-manage-system/internal/domain"
	"github.com/lxyzcm1/parking-manage-system/internal/repository"
)

type memUserRepository struct {
	mu     sync.RWMutex
	users  map[int]domain.User
	nextID int
}

func NewUserRepository() repository.UserRepository {
	return &memUserRepository{
		users:  make(map[int]domain.User),
		nextID: 1,
	}
}

func (r *memUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return nil, fmt.Errorf("%w: username %q already exists", repository.ErrDuplicateEntry, user.Username)
		}
	}

	now := time.Now().UTC()
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return user, nil
}

func (r *memUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}
