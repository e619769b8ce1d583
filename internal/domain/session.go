package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// ParkingSession records one vehicle's stay, from entry to exit. A session is
// created open and transitions exactly once to closed; exit time and fee are
// set together at that point and never change afterwards.
type ParkingSession struct {
	ID            int64         `json:"id"`
	Plate         string        `json:"plate"`
	LotID         int           `json:"lot_id"`
	EntryTime     time.Time     `json:"entry_time"`
	ExitTime      null.Time     `json:"exit_time"`
	DurationHours null.Float    `json:"duration_hours"`
	Fee           null.Float    `json:"fee"`
	Status        SessionStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	// Joined in on reads for record listings; not a column of the session.
	LotName string `json:"lot_name,omitempty"`
}

type VehicleEntryDTO struct {
	Plate     string `json:"plate" binding:"required"`
	LotID     int    `json:"lot_id" binding:"required"`
	EntryTime string `json:"entry_time,omitempty"`
}

type VehicleExitDTO struct {
	Plate    string `json:"plate" binding:"required"`
	ExitTime string `json:"exit_time,omitempty"`
}

// SessionFilter narrows session listings. Date bounds apply to the entry
// time. Zero values mean "no constraint"; Limit 0 means no page limit.
type SessionFilter struct {
	PlateContains string
	Status        SessionStatus
	EntryFrom     time.Time
	EntryTo       time.Time
	Offset        int
	Limit         int
}

type SessionQueryDTO struct {
	Plate     string `form:"plate"`
	Status    string `form:"status"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Offset    int    `form:"offset"`
	Limit     int    `form:"limit"`
}
