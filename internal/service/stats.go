package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lxyzcm1/parking-manage-system/internal/domain"
	"github.com/lxyzcm1/parking-manage-system/internal/repository"
)

const statsDateLayout = "2006-01-02"

// StatisticsService derives aggregate views from the session store and the
// lot registry. It only reads; entries and exits are never blocked by a
// running computation.
type StatisticsService struct {
	lotRepo     repository.ParkingLotRepository
	sessionRepo repository.ParkingSessionRepository
}

func NewStatisticsService(lotRepo repository.ParkingLotRepository, sessionRepo repository.ParkingSessionRepository) *StatisticsService {
	return &StatisticsService{lotRepo: lotRepo, sessionRepo: sessionRepo}
}

// ComputeStatistics aggregates sessions whose entry time falls inside the
// inclusive date range. Dates are interpreted at UTC day granularity.
// Occupancy figures are live values taken at query time, independent of the
// range.
func (s *StatisticsService) ComputeStatistics(ctx context.Context, startDate, endDate string) (*domain.ParkingStatistics, error) {
	start, err := time.ParseInLocation(statsDateLayout, startDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start date %q", ErrValidation, startDate)
	}
	end, err := time.ParseInLocation(statsDateLayout, endDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end date %q", ErrValidation, endDate)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrValidation)
	}
	rangeEnd := end.Add(24*time.Hour - time.Nanosecond)

	sessions, err := s.sessionRepo.Find(ctx, domain.SessionFilter{
		EntryFrom: start,
		EntryTo:   rangeEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("StatisticsService.ComputeStatistics: %w", err)
	}

	stats := &domain.ParkingStatistics{
		TotalVehicles:      len(sessions),
		HourlyDistribution: make(map[int]int),
	}

	type lotTotals struct {
		vehicles int
		revenue  float64
	}
	perLot := make(map[int]*lotTotals)

	var closedCount int
	var totalDuration float64
	for _, session := range sessions {
		stats.HourlyDistribution[session.EntryTime.In(time.UTC).Hour()]++

		lt := perLot[session.LotID]
		if lt == nil {
			lt = &lotTotals{}
			perLot[session.LotID] = lt
		}
		lt.vehicles++

		if session.Status == domain.SessionClosed && session.Fee.Valid {
			stats.TotalRevenue += session.Fee.Float64
			lt.revenue += session.Fee.Float64
		}
		if session.Status == domain.SessionClosed && session.ExitTime.Valid {
			totalDuration += session.ExitTime.Time.Sub(session.EntryTime).Hours()
			closedCount++
		}
	}
	if closedCount > 0 {
		stats.AverageDuration = totalDuration / float64(closedCount)
	}

	openByLot, err := s.sessionRepo.CountOpenByLot(ctx)
	if err != nil {
		return nil, fmt.Errorf("StatisticsService.ComputeStatistics: %w", err)
	}
	lots, err := s.lotRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("StatisticsService.ComputeStatistics: %w", err)
	}

	stats.LotStatistics = make([]domain.ParkingLotStatistics, 0, len(lots))
	for _, lot := range lots {
		occupancy := openByLot[lot.ID]
		stats.CurrentOccupancy += occupancy

		lotStats := domain.ParkingLotStatistics{
			LotID:            lot.ID,
			LotName:          lot.Name,
			CurrentOccupancy: occupancy,
		}
		if lot.Capacity > 0 {
			lotStats.OccupancyRate = float64(occupancy) / float64(lot.Capacity)
		}
		if lt := perLot[lot.ID]; lt != nil {
			lotStats.TotalVehicles = lt.vehicles
			lotStats.TotalRevenue = lt.revenue
		}
		stats.LotStatistics = append(stats.LotStatistics, lotStats)
	}

	return stats, nil
}
