package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/lxyzcm1/parking-manage-system/internal/domain"
	"github.com/lxyzcm1/parking-manage-system/internal/repository"
)

type memParkingSessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]domain.ParkingSession
	nextID   int64

	// Lot names are joined into read results the way the postgres
	// implementation joins parking_lots; nil disables the lookup.
	lots repository.ParkingLotRepository
}

func NewParkingSessionRepository(lots repository.ParkingLotRepository) repository.ParkingSessionRepository {
	return &memParkingSessionRepository{
		sessions: make(map[int64]domain.ParkingSession),
		nextID:   1,
		lots:     lots,
	}
}

func (r *memParkingSessionRepository) lotName(ctx context.Context, lotID int) string {
	if r.lots == nil {
		return ""
	}
	lot, err := r.lots.FindByID(ctx, lotID)
	if err != nil {
		return ""
	}
	return lot.Name
}

// Create holds the write lock across the duplicate-open scan and the insert,
// which gives the same atomicity as the partial unique index in postgres.
func (r *memParkingSessionRepository) Create(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sessions {
		if existing.Plate == session.Plate && existing.Status == domain.SessionOpen {
			return nil, fmt.Errorf("%w: plate %s", repository.ErrDuplicateOpenSession, session.Plate)
		}
	}

	now := time.Now().UTC()
	session.ID = r.nextID
	r.nextID++
	session.Status = domain.SessionOpen
	session.ExitTime = null.Time{}
	session.Fee = null.Float{}
	session.DurationHours = null.Float{}
	session.CreatedAt = now
	session.UpdatedAt = now
	r.sessions[session.ID] = *session

	session.LotName = r.lotName(ctx, session.LotID)
	return session, nil
}

func (r *memParkingSessionRepository) FindByID(ctx context.Context, id int64) (*domain.ParkingSession, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	session.LotName = r.lotName(ctx, session.LotID)
	return &session, nil
}

func (r *memParkingSessionRepository) FindOpenByPlate(ctx context.Context, plate string) (*domain.ParkingSession, error) {
	r.mu.RLock()
	var found *domain.ParkingSession
	for _, session := range r.sessions {
		if session.Plate != plate || session.Status != domain.SessionOpen {
			continue
		}
		s := session
		if found == nil || s.EntryTime.After(found.EntryTime) || (s.EntryTime.Equal(found.EntryTime) && s.ID > found.ID) {
			found = &s
		}
	}
	r.mu.RUnlock()

	if found == nil {
		return nil, repository.ErrNoOpenSession
	}
	found.LotName = r.lotName(ctx, found.LotID)
	return found, nil
}

func (r *memParkingSessionRepository) Close(ctx context.Context, id int64, exitTime time.Time, durationHours, fee float64) (*domain.ParkingSession, error) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	if session.Status == domain.SessionClosed {
		r.mu.Unlock()
		return nil, repository.ErrSessionClosed
	}
	session.ExitTime = null.TimeFrom(exitTime.UTC())
	session.DurationHours = null.FloatFrom(durationHours)
	session.Fee = null.FloatFrom(fee)
	session.Status = domain.SessionClosed
	session.UpdatedAt = time.Now().UTC()
	r.sessions[id] = session
	r.mu.Unlock()

	session.LotName = r.lotName(ctx, session.LotID)
	return &session, nil
}

func (r *memParkingSessionRepository) Find(ctx context.Context, filter domain.SessionFilter) ([]domain.ParkingSession, error) {
	r.mu.RLock()
	var matched []domain.ParkingSession
	for _, session := range r.sessions {
		if filter.PlateContains != "" && !strings.Contains(session.Plate, filter.PlateContains) {
			continue
		}
		if filter.Status != "" && session.Status != filter.Status {
			continue
		}
		if !filter.EntryFrom.IsZero() && session.EntryTime.Before(filter.EntryFrom) {
			continue
		}
		if !filter.EntryTo.IsZero() && session.EntryTime.After(filter.EntryTo) {
			continue
		}
		matched = append(matched, session)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].EntryTime.Equal(matched[j].EntryTime) {
			return matched[i].EntryTime.After(matched[j].EntryTime)
		}
		return matched[i].ID > matched[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	for i := range matched {
		matched[i].LotName = r.lotName(ctx, matched[i].LotID)
	}
	return matched, nil
}

func (r *memParkingSessionRepository) CountOpenByLot(ctx context.Context) (map[int]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[int]int)
	for _, session := range r.sessions {
		if session.Status == domain.SessionOpen {
			counts[session.LotID]++
		}
	}
	return counts, nil
}
