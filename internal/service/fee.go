package service

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidInterval = errors.New("exit time is before entry time")

// BilledHours returns the number of whole hours a stay is charged for:
// partial hours round up and every stay is billed at least one hour.
func BilledHours(entryTime, exitTime time.Time) (int64, error) {
	if exitTime.Before(entryTime) {
		return 0, ErrInvalidInterval
	}
	hours := int64(math.Ceil(exitTime.Sub(entryTime).Seconds() / 3600))
	if hours < 1 {
		hours = 1
	}
	return hours, nil
}

// ComputeFee turns a parking interval and an hourly rate into the amount
// owed, rounded half-up to two decimal places. The multiplication runs in
// decimal; a float product like 3 x 3.335 lands just under the half cent
// and would round the wrong way.
func ComputeFee(entryTime, exitTime time.Time, hourlyRate float64) (float64, error) {
	hours, err := BilledHours(entryTime, exitTime)
	if err != nil {
		return 0, err
	}
	fee := decimal.NewFromFloat(hourlyRate).Mul(decimal.NewFromInt(hours)).Round(2)
	amount, _ := fee.Float64()
	return amount, nil
}
