package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lxyzcm1/parking-manage-system/internal/domain"
	"github.com/lxyzcm1/parking-manage-system/internal/repository"
	"github.com/lxyzcm1/parking-manage-system/internal/repository/memory"
)

func newTestEngine(t *testing.T) (*ParkingEngine, repository.ParkingLotRepository, repository.ParkingSessionRepository) {
	t.Helper()
	lotRepo := memory.NewParkingLotRepository()
	sessionRepo := memory.NewParkingSessionRepository(lotRepo)
	return NewParkingEngine(lotRepo, sessionRepo, nil), lotRepo, sessionRepo
}

func mustCreateLot(t *testing.T, e *ParkingEngine, name string, capacity int, rate float64) *domain.ParkingLot {
	t.Helper()
	lot, err := e.CreateLot(context.Background(), domain.CreateParkingLotDTO{
		Name:       name,
		Capacity:   capacity,
		HourlyRate: rate,
	})
	assert.NoError(t, err)
	return lot
}

func TestNormalizePlate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"abc123", "ABC123"},
		{"  AbC 123  ", "ABC123"},
		{"A B\tC 1 2 3", "ABC123"},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePlate(tt.raw))
	}
}

func TestEnterFillsLotThenRejects(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	lot := mustCreateLot(t, e, "North", 2, 5.00)

	s1, err := e.Enter(ctx, "ABC123", lot.ID, at(8, 0))
	assert.NoError(t, err)
	assert.Equal(t, domain.SessionOpen, s1.Status)
	assert.Equal(t, "ABC123", s1.Plate)

	occ, err := e.Occupancy(ctx, lot.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, occ)

	_, err = e.Enter(ctx, "XYZ999", lot.ID, at(8, 5))
	assert.NoError(t, err)

	occ, _ = e.Occupancy(ctx, lot.ID)
	assert.Equal(t, 2, occ)

	_, err = e.Enter(ctx, "QQQ111", lot.ID, at(8, 10))
	assert.ErrorIs(t, err, ErrLotFull)

	// A rejected entry leaves state unchanged.
	occ, _ = e.Occupancy(ctx, lot.ID)
	assert.Equal(t, 2, occ)
}

func TestEnterInvalidPlate(t *testing.T) {
	e, _, _ := newTestEngine(t)
	lot := mustCreateLot(t, e, "North", 2, 5.00)

	_, err := e.Enter(context.Background(), "   ", lot.ID, at(8, 0))
	assert.ErrorIs(t, err, ErrInvalidPlate)
}

func TestEnterUnknownLot(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.Enter(context.Background(), "ABC123", 42, at(8, 0))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEnterDuplicateOpenSession(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	lot := mustCreateLot(t, e, "North", 5, 5.00)

	_, err := e.Enter(ctx, "ABC123", lot.ID, at(8, 0))
	assert.NoError(t, err)

	_, err = e.Enter(ctx, "abc 123", lot.ID, at(8, 30))
	assert.ErrorIs(t, err, repository.ErrDuplicateOpenSession)

	occ, _ := e.Occupancy(ctx, lot.ID)
	assert.Equal(t, 1, occ)
}

func TestEnterDuplicateOpenSessionAcrossLots(t *testing.T) {
	// One open session per plate holds system-wide, so exits never need a
	// lot id to disambiguate.
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	north := mustCreateLot(t, e, "North", 5, 5.00)
	south := mustCreateLot(t, e, "South", 5, 3.00)

	_, err := e.Enter(ctx, "ABC123", north.ID, at(8, 0))
	assert.NoError(t, err)

	_, err = e.Enter(ctx, "ABC123", south.ID, at(8, 5))
	assert.ErrorIs(t, err, repository.ErrDuplicateOpenSession)

	occ, _ := e.Occupancy(ctx, south.ID)
	assert.Equal(t, 0, occ)
}

func TestExitClosesSessionAndComputesFee(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	lot := mustCreateLot(t, e, "North", 2, 5.00)

	entered, err := e.Enter(ctx, "ABC123", lot.ID, at(8, 0))
	assert.NoError(t, err)

	closed, err := e.Exit(ctx, "abc 123", at(9, 30))
	assert.NoError(t, err)
	assert.Equal(t, entered.ID, closed.ID)
	assert.Equal(t, domain.SessionClosed, closed.Status)
	assert.True(t, closed.ExitTime.Valid)
	assert.True(t, closed.Fee.Valid)
	assert.Equal(t, 10.00, closed.Fee.Float64)
	assert.Equal(t, at(8, 0), closed.EntryTime)
	assert.False(t, closed.ExitTime.Time.Before(closed.EntryTime))

	occ, _ := e.Occupancy(ctx, lot.ID)
	assert.Equal(t, 0, occ)
}

func TestExitWithoutOpenSession(t *testing.T) {
	e, _, _ := newTestEngine(t)
	mustCreateLot(t, e, "North", 2, 5.00)

	_, err := e.Exit(context.Background(), "GHOST1", at(9, 0))
	assert.ErrorIs(t, err, repository.ErrNoOpenSession)
}

func TestExitTwice(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	lot := mustCreateLot(t, e, "North", 2, 5.00)

	_, err := e.Enter(ctx, "ABC123", lot.ID, at(8, 0))
	assert.NoError(t, err)
	_, err = e.Exit(ctx, "ABC123", at(9, 0))
	assert.NoError(t, err)

	_, err = e.Exit(ctx, "ABC123", at(10, 0))
	assert.ErrorIs(t, err, repository.ErrNoOpenSession)
}

func TestExitBeforeEntryRejected(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	lot := mustCreateLot(t, e, "North", 2, 5.00)

	_, err := e.Enter(ctx, "ABC123", lot.ID, at(9, 0))
	assert.NoError(t, err)

	_, err = e.Exit(ctx, "ABC123", at(8, 0))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	// Failed exit leaves the session open and the counter untouched.
	occ, _ := e.Occupancy(ctx, lot.ID)
	assert.Equal(t, 1, occ)
	_, err = e.Exit(ctx, "ABC123", at(10, 0))
	assert.NoError(t, err)
}

func TestConcurrentEntriesNeverOvershootCapacity(t *testing.T) {
	const capacity = 5
	const attempts = 40

	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	lot := mustCreateLot(t, e, "North", capacity, 5.00)

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plate := "CAR" + string(rune('A'+i/10)) + string(rune('0'+i%10))
			_, errs[i] = e.Enter(ctx, plate, lot.ID, time.Now().UTC())
		}(i)
	}
	wg.Wait()

	var successes, full int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, ErrLotFull)
		full++
	}
	assert.Equal(t, capacity, successes)
	assert.Equal(t, attempts-capacity, full)

	occ, err := e.Occupancy(ctx, lot.ID)
	assert.NoError(t, err)
	assert.Equal(t, capacity, occ)
}

func TestReconcileOccupancyFromStore(t *testing.T) {
	lotRepo := memory.NewParkingLotRepository()
	sessionRepo := memory.NewParkingSessionRepository(lotRepo)
	first := NewParkingEngine(lotRepo, sessionRepo, nil)

	ctx := context.Background()
	lot := mustCreateLot(t, first, "North", 3, 5.00)
	_, err := first.Enter(ctx, "AAA111", lot.ID, at(8, 0))
	assert.NoError(t, err)
	_, err = first.Enter(ctx, "BBB222", lot.ID, at(8, 5))
	assert.NoError(t, err)

	// A fresh engine over the same store recovers the counters by scanning
	// open sessions.
	second := NewParkingEngine(lotRepo, sessionRepo, nil)
	assert.NoError(t, second.ReconcileOccupancy(ctx))

	occ, err := second.Occupancy(ctx, lot.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, occ)

	_, err = second.Enter(ctx, "CCC333", lot.ID, at(8, 10))
	assert.NoError(t, err)
	_, err = second.Enter(ctx, "DDD444", lot.ID, at(8, 15))
	assert.ErrorIs(t, err, ErrLotFull)
}

func TestUpdateLotPartialAndCapacityGuard(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	lot := mustCreateLot(t, e, "North", 5, 5.00)

	_, err := e.Enter(ctx, "AAA111", lot.ID, at(8, 0))
	assert.NoError(t, err)
	_, err = e.Enter(ctx, "BBB222", lot.ID, at(8, 5))
	assert.NoError(t, err)

	newRate := 7.50
	updated, err := e.UpdateLot(ctx, lot.ID, domain.UpdateParkingLotDTO{HourlyRate: &newRate})
	assert.NoError(t, err)
	assert.Equal(t, 7.50, updated.HourlyRate)
	assert.Equal(t, "North", updated.Name)
	assert.Equal(t, 5, updated.Capacity)

	tooSmall := 1
	_, err = e.UpdateLot(ctx, lot.ID, domain.UpdateParkingLotDTO{Capacity: &tooSmall})
	assert.ErrorIs(t, err, ErrValidation)

	zero := 0
	_, err = e.UpdateLot(ctx, lot.ID, domain.UpdateParkingLotDTO{Capacity: &zero})
	assert.ErrorIs(t, err, ErrValidation)

	negative := -1.0
	_, err = e.UpdateLot(ctx, lot.ID, domain.UpdateParkingLotDTO{HourlyRate: &negative})
	assert.ErrorIs(t, err, ErrValidation)

	shrunk := 2
	updated, err = e.UpdateLot(ctx, lot.ID, domain.UpdateParkingLotDTO{Capacity: &shrunk})
	assert.NoError(t, err)
	assert.Equal(t, 2, updated.Capacity)
}

func TestDeleteLotWithOpenSessionsRejected(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	lot := mustCreateLot(t, e, "North", 5, 5.00)

	_, err := e.Enter(ctx, "AAA111", lot.ID, at(8, 0))
	assert.NoError(t, err)

	err = e.DeleteLot(ctx, lot.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.Exit(ctx, "AAA111", at(9, 0))
	assert.NoError(t, err)
	assert.NoError(t, e.DeleteLot(ctx, lot.ID))
}

func TestListLotsInsertionOrder(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	mustCreateLot(t, e, "Zone A", 10, 10.00)
	mustCreateLot(t, e, "Zone B", 15, 8.00)
	mustCreateLot(t, e, "Zone C Underground", 20, 6.00)

	lots, err := e.ListLots(ctx)
	assert.NoError(t, err)
	names := make([]string, len(lots))
	for i, lot := range lots {
		names[i] = lot.Name
	}
	assert.Equal(t, []string{"Zone A", "Zone B", "Zone C Underground"}, names)
}
