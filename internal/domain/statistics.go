package domain

import "time"

// ParkingLotStatistics is the per-lot slice of a statistics snapshot.
// CurrentOccupancy is a live value, not bounded by the queried range.
type ParkingLotStatistics struct {
	LotID            int     `json:"lot_id"`
	LotName          string  `json:"lot_name"`
	TotalVehicles    int     `json:"total_vehicles"`
	TotalRevenue     float64 `json:"total_revenue"`
	CurrentOccupancy int     `json:"current_occupancy"`
	OccupancyRate    float64 `json:"occupancy_rate"`
}

// ParkingStatistics is computed on demand over a date range and never stored.
type ParkingStatistics struct {
	TotalVehicles      int                    `json:"total_vehicles"`
	TotalRevenue       float64                `json:"total_revenue"`
	AverageDuration    float64                `json:"average_duration"`
	CurrentOccupancy   int                    `json:"current_occupancy"`
	LotStatistics      []ParkingLotStatistics `json:"lot_statistics"`
	HourlyDistribution map[int]int            `json:"hourly_distribution"`
}

// OccupancyUpdate is pushed to websocket subscribers after every successful
// entry or exit.
type OccupancyUpdate struct {
	EventID   string    `json:"event_id"`
	LotID     int       `json:"lot_id"`
	LotName   string    `json:"lot_name"`
	Plate     string    `json:"plate"`
	Direction string    `json:"direction"` // "entry" or "exit"
	Occupancy int       `json:"occupancy"`
	Capacity  int       `json:"capacity"`
	Timestamp time.Time `json:"timestamp"`
}
