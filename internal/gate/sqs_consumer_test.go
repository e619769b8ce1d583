package gate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lxyzcm1/parking-manage-system/internal/config"
	"github.com/lxyzcm1/parking-manage-system/internal/domain"
	"github.com/lxyzcm1/parking-manage-system/internal/repository"
	"github.com/lxyzcm1/parking-manage-system/internal/repository/memory"
	"github.com/lxyzcm1/parking-manage-system/internal/service"
)

func newTestConsumer(t *testing.T) (*SQSConsumer, *service.ParkingEngine) {
	t.Helper()
	lotRepo := memory.NewParkingLotRepository()
	sessionRepo := memory.NewParkingSessionRepository(lotRepo)
	engine := service.NewParkingEngine(lotRepo, sessionRepo, nil)
	consumer := NewSQSConsumer(nil, &config.Config{SQSEventQueueURL: "test-queue"}, engine)
	return consumer, engine
}

func TestHandleEventEntryAndExit(t *testing.T) {
	consumer, engine := newTestConsumer(t)
	ctx := context.Background()
	lot, err := engine.CreateLot(ctx, domain.CreateParkingLotDTO{Name: "North", Capacity: 5, HourlyRate: 5.00})
	assert.NoError(t, err)

	entry := fmt.Sprintf(`{"event_id":"evt-1","direction":"entry","lot_id":%d,"plate":"abc 123","confidence":97.5,"timestamp":"2024-01-15T08:00:00Z"}`, lot.ID)
	assert.NoError(t, consumer.handleEvent(ctx, entry))

	occ, err := engine.Occupancy(ctx, lot.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, occ)

	exit := `{"event_id":"evt-2","direction":"exit","plate":"ABC123","timestamp":"2024-01-15T09:30:00Z"}`
	assert.NoError(t, consumer.handleEvent(ctx, exit))

	occ, _ = engine.Occupancy(ctx, lot.ID)
	assert.Equal(t, 0, occ)

	sessions, err := engine.FindSessions(ctx, domain.SessionFilter{Status: domain.SessionClosed})
	assert.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.Equal(t, 10.00, sessions[0].Fee.Float64)
}

func TestHandleEventRejectsMalformedInput(t *testing.T) {
	consumer, _ := newTestConsumer(t)
	ctx := context.Background()

	err := consumer.handleEvent(ctx, `{not json`)
	assert.Error(t, err)

	err = consumer.handleEvent(ctx, `{"event_id":"evt-3","direction":"sideways","plate":"ABC123","timestamp":"2024-01-15T08:00:00Z"}`)
	assert.Error(t, err)
}

func TestHandleEventPropagatesDomainErrors(t *testing.T) {
	consumer, engine := newTestConsumer(t)
	ctx := context.Background()
	lot, err := engine.CreateLot(ctx, domain.CreateParkingLotDTO{Name: "North", Capacity: 1, HourlyRate: 5.00})
	assert.NoError(t, err)

	entry := fmt.Sprintf(`{"event_id":"evt-4","direction":"entry","lot_id":%d,"plate":"AAA111","timestamp":"2024-01-15T08:00:00Z"}`, lot.ID)
	assert.NoError(t, consumer.handleEvent(ctx, entry))

	full := fmt.Sprintf(`{"event_id":"evt-5","direction":"entry","lot_id":%d,"plate":"BBB222","timestamp":"2024-01-15T08:05:00Z"}`, lot.ID)
	err = consumer.handleEvent(ctx, full)
	assert.ErrorIs(t, err, service.ErrLotFull)

	ghost := `{"event_id":"evt-6","direction":"exit","plate":"ZZZ999","timestamp":"2024-01-15T09:00:00Z"}`
	err = consumer.handleEvent(ctx, ghost)
	assert.ErrorIs(t, err, repository.ErrNoOpenSession)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"lot full is final", service.ErrLotFull, false},
		{"duplicate open is final", repository.ErrDuplicateOpenSession, false},
		{"no open session is final", repository.ErrNoOpenSession, false},
		{"unknown lot is final", repository.ErrNotFound, false},
		{"store failure retries", repository.ErrStoreUnavailable, true},
		{"wrapped domain error is final", fmt.Errorf("processing: %w", service.ErrInvalidPlate), false},
		{"arbitrary error retries", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}
