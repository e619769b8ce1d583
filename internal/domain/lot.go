package domain

import "time"

type ParkingLot struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	HourlyRate  float64   `json:"hourly_rate"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateParkingLotDTO struct {
	Name        string  `json:"name" binding:"required"`
	Capacity    int     `json:"capacity" binding:"required,min=1"`
	HourlyRate  float64 `json:"hourly_rate" binding:"min=0"`
	Description string  `json:"description"`
}

// UpdateParkingLotDTO carries a partial update; nil fields are left untouched.
type UpdateParkingLotDTO struct {
	Name        *string  `json:"name"`
	Capacity    *int     `json:"capacity"`
	HourlyRate  *float64 `json:"hourly_rate"`
	Description *string  `json:"description"`
}
