package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 1, 15, hour, min, 0, 0, time.UTC)
}

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name       string
		entry      time.Time
		exit       time.Time
		hourlyRate float64
		want       float64
	}{
		{"ninety minutes rounds up to two hours", at(8, 0), at(9, 30), 5.00, 10.00},
		{"exactly one hour", at(8, 0), at(9, 0), 5.00, 5.00},
		{"sub-hour stay billed as one hour", at(8, 0), at(8, 10), 5.00, 5.00},
		{"zero duration billed as one hour", at(8, 0), at(8, 0), 5.00, 5.00},
		{"one second into the next hour", at(8, 0), at(9, 0).Add(time.Second), 5.00, 10.00},
		{"free lot", at(8, 0), at(12, 0), 0, 0},
		{"fractional rate rounds half-up", at(8, 0), at(10, 30), 3.335, 10.01},
		{"half-cent rate rounds up", at(8, 0), at(9, 0), 10.005, 10.01},
		{"half-cent product rounds up", at(8, 0), at(13, 0), 2.221, 11.11},
		{"long stay", at(8, 0), at(8, 0).Add(49 * time.Hour), 2.50, 122.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, err := ComputeFee(tt.entry, tt.exit, tt.hourlyRate)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, fee)
		})
	}
}

func TestComputeFeeInvalidInterval(t *testing.T) {
	_, err := ComputeFee(at(9, 0), at(8, 59), 5.00)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestComputeFeeMonotonicInExitTime(t *testing.T) {
	entry := at(8, 0)
	prev := 0.0
	for minutes := 0; minutes <= 10*60; minutes += 7 {
		fee, err := ComputeFee(entry, entry.Add(time.Duration(minutes)*time.Minute), 4.75)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, fee, prev, "fee decreased at +%dm", minutes)
		prev = fee
	}
}

func TestBilledHoursMinimumOne(t *testing.T) {
	hours, err := BilledHours(at(8, 0), at(8, 1))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), hours)
}
