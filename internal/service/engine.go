package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lxyzcm1/parking-manage-system/internal/domain"
	"github.com/lxyzcm1/parking-manage-system/internal/repository"
)

var (
	ErrInvalidPlate = errors.New("plate is empty after normalization")
	ErrLotFull      = errors.New("parking lot is at capacity")
	ErrValidation   = errors.New("validation failed")
)

// OccupancyNotifier receives a notification after every successful entry or
// exit. Implementations must not block.
type OccupancyNotifier interface {
	NotifyOccupancy(update domain.OccupancyUpdate)
}

// ParkingEngine is the authoritative state machine for entries and exits.
// Admission checks and counter updates for a lot are serialized by a per-lot
// mutex, so concurrent entries can never push occupancy past capacity. The
// duplicate-open invariant is global per plate and enforced atomically by the
// session store itself.
type ParkingEngine struct {
	lotRepo     repository.ParkingLotRepository
	sessionRepo repository.ParkingSessionRepository
	notifier    OccupancyNotifier

	mu        sync.Mutex
	lotStates map[int]*lotState
}

// lotState guards the occupancy counter of one lot. The counter is loaded
// lazily from a store scan and kept in step with entries and exits; it must
// always match the count of open sessions recoverable from the store.
type lotState struct {
	sync.Mutex
	occupancy int
	loaded    bool
}

func NewParkingEngine(lotRepo repository.ParkingLotRepository, sessionRepo repository.ParkingSessionRepository, notifier OccupancyNotifier) *ParkingEngine {
	return &ParkingEngine{
		lotRepo:     lotRepo,
		sessionRepo: sessionRepo,
		notifier:    notifier,
		lotStates:   make(map[int]*lotState),
	}
}

// NormalizePlate uppercases a raw plate string and strips all whitespace.
func NormalizePlate(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

func (e *ParkingEngine) lotState(lotID int) *lotState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.lotStates[lotID]
	if !ok {
		st = &lotState{}
		e.lotStates[lotID] = st
	}
	return st
}

// ensureLoaded fills the counter from the store on first touch. Callers hold
// the lot lock.
func (e *ParkingEngine) ensureLoaded(ctx context.Context, st *lotState, lotID int) error {
	if st.loaded {
		return nil
	}
	counts, err := e.sessionRepo.CountOpenByLot(ctx)
	if err != nil {
		return err
	}
	st.occupancy = counts[lotID]
	st.loaded = true
	return nil
}

// ReconcileOccupancy rebuilds every occupancy counter from a full scan of
// open sessions. Called at startup so counters survive restarts.
func (e *ParkingEngine) ReconcileOccupancy(ctx context.Context) error {
	counts, err := e.sessionRepo.CountOpenByLot(ctx)
	if err != nil {
		return fmt.Errorf("ParkingEngine.ReconcileOccupancy: %w", err)
	}
	lots, err := e.lotRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("ParkingEngine.ReconcileOccupancy: %w", err)
	}
	for _, lot := range lots {
		st := e.lotState(lot.ID)
		st.Lock()
		st.occupancy = counts[lot.ID]
		st.loaded = true
		st.Unlock()
	}
	return nil
}

// Occupancy reports the live count of open sessions for a lot.
func (e *ParkingEngine) Occupancy(ctx context.Context, lotID int) (int, error) {
	st := e.lotState(lotID)
	st.Lock()
	defer st.Unlock()
	if err := e.ensureLoaded(ctx, st, lotID); err != nil {
		return 0, err
	}
	return st.occupancy, nil
}

// Enter opens a session for a recognized plate. The capacity check, session
// creation and counter increment run under the lot lock, so a failure at any
// step leaves all state unchanged.
func (e *ParkingEngine) Enter(ctx context.Context, plateRaw string, lotID int, entryTime time.Time) (*domain.ParkingSession, error) {
	plate := NormalizePlate(plateRaw)
	if plate == "" {
		return nil, ErrInvalidPlate
	}

	lot, err := e.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	st := e.lotState(lot.ID)
	st.Lock()
	defer st.Unlock()

	if err := e.ensureLoaded(ctx, st, lot.ID); err != nil {
		return nil, err
	}
	if st.occupancy >= lot.Capacity {
		return nil, fmt.Errorf("%w: lot %q (%d/%d)", ErrLotFull, lot.Name, st.occupancy, lot.Capacity)
	}

	session := &domain.ParkingSession{
		Plate:     plate,
		LotID:     lot.ID,
		EntryTime: entryTime.UTC(),
	}
	created, err := e.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	st.occupancy++

	log.Printf("Engine: plate %s entered lot %q, occupancy %d/%d", plate, lot.Name, st.occupancy, lot.Capacity)
	e.notify(lot, plate, "entry", st.occupancy, created.EntryTime)
	return created, nil
}

// Exit closes the open session for a plate, computing the fee from the lot's
// hourly rate. The lot is resolved from the session; exits do not need to
// name one.
func (e *ParkingEngine) Exit(ctx context.Context, plateRaw string, exitTime time.Time) (*domain.ParkingSession, error) {
	plate := NormalizePlate(plateRaw)
	if plate == "" {
		return nil, ErrInvalidPlate
	}

	session, err := e.sessionRepo.FindOpenByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	lot, err := e.lotRepo.FindByID(ctx, session.LotID)
	if err != nil {
		return nil, err
	}

	exitTime = exitTime.UTC()
	fee, err := ComputeFee(session.EntryTime, exitTime, lot.HourlyRate)
	if err != nil {
		return nil, err
	}
	durationHours := exitTime.Sub(session.EntryTime).Hours()

	st := e.lotState(lot.ID)
	st.Lock()
	defer st.Unlock()

	if err := e.ensureLoaded(ctx, st, lot.ID); err != nil {
		return nil, err
	}

	closed, err := e.sessionRepo.Close(ctx, session.ID, exitTime, durationHours, fee)
	if err != nil {
		return nil, err
	}
	if st.occupancy > 0 {
		st.occupancy--
	}

	log.Printf("Engine: plate %s exited lot %q after %.2fh, fee %.2f, occupancy %d/%d",
		plate, lot.Name, durationHours, fee, st.occupancy, lot.Capacity)
	e.notify(lot, plate, "exit", st.occupancy, exitTime)
	return closed, nil
}

func (e *ParkingEngine) notify(lot *domain.ParkingLot, plate, direction string, occupancy int, ts time.Time) {
	if e.notifier == nil {
		return
	}
	e.notifier.NotifyOccupancy(domain.OccupancyUpdate{
		EventID:   uuid.NewString(),
		LotID:     lot.ID,
		LotName:   lot.Name,
		Plate:     plate,
		Direction: direction,
		Occupancy: occupancy,
		Capacity:  lot.Capacity,
		Timestamp: ts,
	})
}

// --- Lot registry operations ---

func (e *ParkingEngine) CreateLot(ctx context.Context, dto domain.CreateParkingLotDTO) (*domain.ParkingLot, error) {
	if dto.Capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be at least 1", ErrValidation)
	}
	if dto.HourlyRate < 0 {
		return nil, fmt.Errorf("%w: hourly rate must not be negative", ErrValidation)
	}
	lot := &domain.ParkingLot{
		Name:        dto.Name,
		Capacity:    dto.Capacity,
		HourlyRate:  dto.HourlyRate,
		Description: dto.Description,
	}
	return e.lotRepo.Create(ctx, lot)
}

func (e *ParkingEngine) GetLot(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return e.lotRepo.FindByID(ctx, id)
}

func (e *ParkingEngine) ListLots(ctx context.Context) ([]domain.ParkingLot, error) {
	return e.lotRepo.FindAll(ctx)
}

// UpdateLot applies a partial update. Shrinking capacity below the lot's
// current occupancy is rejected, so the occupancy invariant keeps holding
// for every open session.
func (e *ParkingEngine) UpdateLot(ctx context.Context, id int, dto domain.UpdateParkingLotDTO) (*domain.ParkingLot, error) {
	lot, err := e.lotRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		if strings.TrimSpace(*dto.Name) == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		lot.Name = *dto.Name
	}
	if dto.HourlyRate != nil {
		if *dto.HourlyRate < 0 {
			return nil, fmt.Errorf("%w: hourly rate must not be negative", ErrValidation)
		}
		lot.HourlyRate = *dto.HourlyRate
	}
	if dto.Description != nil {
		lot.Description = *dto.Description
	}

	st := e.lotState(lot.ID)
	st.Lock()
	defer st.Unlock()
	if err := e.ensureLoaded(ctx, st, lot.ID); err != nil {
		return nil, err
	}

	if dto.Capacity != nil {
		if *dto.Capacity < 1 {
			return nil, fmt.Errorf("%w: capacity must be at least 1", ErrValidation)
		}
		if *dto.Capacity < st.occupancy {
			return nil, fmt.Errorf("%w: capacity %d is below current occupancy %d", ErrValidation, *dto.Capacity, st.occupancy)
		}
		lot.Capacity = *dto.Capacity
	}

	return e.lotRepo.Update(ctx, lot)
}

// DeleteLot removes a lot that has no open sessions. Sessions already closed
// keep their lot reference, so lots with any history are left in place by the
// store's foreign key; here we only guard the live invariant.
func (e *ParkingEngine) DeleteLot(ctx context.Context, id int) error {
	if _, err := e.lotRepo.FindByID(ctx, id); err != nil {
		return err
	}

	st := e.lotState(id)
	st.Lock()
	defer st.Unlock()
	if err := e.ensureLoaded(ctx, st, id); err != nil {
		return err
	}
	if st.occupancy > 0 {
		return fmt.Errorf("%w: lot has %d open sessions", ErrValidation, st.occupancy)
	}
	return e.lotRepo.Delete(ctx, id)
}

// --- Session reads ---

func (e *ParkingEngine) GetSession(ctx context.Context, id int64) (*domain.ParkingSession, error) {
	return e.sessionRepo.FindByID(ctx, id)
}

func (e *ParkingEngine) FindSessions(ctx context.Context, filter domain.SessionFilter) ([]domain.ParkingSession, error) {
	return e.sessionRepo.Find(ctx, filter)
}
