package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lxyzcm1/parking-manage-system/internal/domain"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicateEntry       = errors.New("record already exists")
	ErrDuplicateOpenSession = errors.New("plate already has an open parking session")
	ErrNoOpenSession        = errors.New("no open parking session for the given plate")
	ErrSessionClosed        = errors.New("parking session is already closed")
	ErrStoreUnavailable     = errors.New("store unavailable")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
}

type ParkingLotRepository interface {
	Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	// FindAll returns lots in stable insertion order.
	FindAll(ctx context.Context) ([]domain.ParkingLot, error)
	Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	Delete(ctx context.Context, id int) error
}

// ParkingSessionRepository is the durable record of every entry and exit.
// Create must fail with ErrDuplicateOpenSession when the plate already has an
// open session in any lot, atomically with the insert. Close must be a
// single-shot transition: a second Close on the same id reports
// ErrSessionClosed.
type ParkingSessionRepository interface {
	Create(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error)
	FindByID(ctx context.Context, id int64) (*domain.ParkingSession, error)
	// FindOpenByPlate picks the most recently opened session when more than
	// one exists (possible only after a policy change or manual data edits).
	FindOpenByPlate(ctx context.Context, plate string) (*domain.ParkingSession, error)
	Close(ctx context.Context, id int64, exitTime time.Time, durationHours, fee float64) (*domain.ParkingSession, error)
	Find(ctx context.Context, filter domain.SessionFilter) ([]domain.ParkingSession, error)
	// CountOpenByLot scans open sessions grouped by lot. Used to seed and
	// reconcile the engine's occupancy counters and for live statistics.
	CountOpenByLot(ctx context.Context) (map[int]int, error)
}
