// Package memory provides in-process implementations of the repository
// interfaces. They back small single-node deployments and the test suite;
// all operations are atomic under an RWMutex per repository.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lxyzcm1/parking-manage-system/internal/domain"
	"github.com/lxyzcm1/parking-manage-system/internal/repository"
)

type memParkingLotRepository struct {
	mu     sync.RWMutex
	lots   map[int]domain.ParkingLot
	order  []int
	nextID int
}

func NewParkingLotRepository() repository.ParkingLotRepository {
	return &memParkingLotRepository{
		lots:   make(map[int]domain.ParkingLot),
		nextID: 1,
	}
}

func (r *memParkingLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.lots {
		if existing.Name == lot.Name {
			return nil, fmt.Errorf("%w: lot name %q already exists", repository.ErrDuplicateEntry, lot.Name)
		}
	}

	now := time.Now().UTC()
	lot.ID = r.nextID
	r.nextID++
	lot.CreatedAt = now
	lot.UpdatedAt = now
	r.lots[lot.ID] = *lot
	r.order = append(r.order, lot.ID)
	return lot, nil
}

func (r *memParkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lot, ok := r.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &lot, nil
}

func (r *memParkingLotRepository) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lots := make([]domain.ParkingLot, 0, len(r.order))
	for _, id := range r.order {
		lots = append(lots, r.lots[id])
	}
	return lots, nil
}

func (r *memParkingLotRepository) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lots[lot.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	for id, existing := range r.lots {
		if id != lot.ID && existing.Name == lot.Name {
			return nil, fmt.Errorf("%w: lot name %q already exists", repository.ErrDuplicateEntry, lot.Name)
		}
	}
	lot.UpdatedAt = time.Now().UTC()
	r.lots[lot.ID] = *lot
	return lot, nil
}

func (r *memParkingLotRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.lots, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
