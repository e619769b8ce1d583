package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/lxyzcm1/parking-manage-system/internal/domain"
	"github.com/lxyzcm1/parking-manage-system/internal/repository"
)

type pgParkingSessionRepository struct {
	db *sql.DB
}

func NewPgParkingSessionRepository(db *sql.DB) repository.ParkingSessionRepository {
	return &pgParkingSessionRepository{db: db}
}

const sessionColumns = `s.id, s.plate, s.lot_id, s.entry_time, s.exit_time,
	                 s.duration_hours, s.fee, s.status, s.created_at, s.updated_at, l.name`

func scanSession(row interface{ Scan(...interface{}) error }, session *domain.ParkingSession) error {
	err := row.Scan(
		&session.ID, &session.Plate, &session.LotID, &session.EntryTime, &session.ExitTime,
		&session.DurationHours, &session.Fee, &session.Status,
		&session.CreatedAt, &session.UpdatedAt, &session.LotName,
	)
	if err != nil {
		return err
	}
	session.EntryTime = session.EntryTime.In(time.UTC)
	if session.ExitTime.Valid {
		session.ExitTime.Time = session.ExitTime.Time.In(time.UTC)
	}
	session.CreatedAt = session.CreatedAt.In(time.UTC)
	session.UpdatedAt = session.UpdatedAt.In(time.UTC)
	return nil
}

// Create relies on the partial unique index over open plates
// (uniq_open_session_per_plate in migrations/schema.sql) so that the
// duplicate-open check is atomic with the insert.
func (r *pgParkingSessionRepository) Create(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	query := `INSERT INTO parking_sessions (plate, lot_id, entry_time, status)
	           VALUES ($1, $2, $3, $4)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, session.Plate, session.LotID, session.EntryTime, domain.SessionOpen).
		Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: plate %s", repository.ErrDuplicateOpenSession, session.Plate)
		}
		return nil, fmt.Errorf("ParkingSessionRepository.Create: %w", err)
	}
	session.Status = domain.SessionOpen
	session.CreatedAt = session.CreatedAt.In(time.UTC)
	session.UpdatedAt = session.UpdatedAt.In(time.UTC)
	return session, nil
}

func (r *pgParkingSessionRepository) FindByID(ctx context.Context, id int64) (*domain.ParkingSession, error) {
	session := &domain.ParkingSession{}
	query := `SELECT ` + sessionColumns + `
	           FROM parking_sessions s JOIN parking_lots l ON l.id = s.lot_id
	           WHERE s.id = $1`
	err := scanSession(r.db.QueryRowContext(ctx, query, id), session)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSessionRepository.FindByID: %w", err)
	}
	return session, nil
}

func (r *pgParkingSessionRepository) FindOpenByPlate(ctx context.Context, plate string) (*domain.ParkingSession, error) {
	session := &domain.ParkingSession{}
	query := `SELECT ` + sessionColumns + `
	           FROM parking_sessions s JOIN parking_lots l ON l.id = s.lot_id
	           WHERE s.plate = $1 AND s.status = $2
	           ORDER BY s.entry_time DESC, s.id DESC LIMIT 1`
	err := scanSession(r.db.QueryRowContext(ctx, query, plate, domain.SessionOpen), session)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoOpenSession
		}
		return nil, fmt.Errorf("ParkingSessionRepository.FindOpenByPlate: %w", err)
	}
	return session, nil
}

// Close transitions an open session to closed in one statement; the status
// guard in the WHERE clause makes the transition single-shot under
// concurrency.
func (r *pgParkingSessionRepository) Close(ctx context.Context, id int64, exitTime time.Time, durationHours, fee float64) (*domain.ParkingSession, error) {
	query := `UPDATE parking_sessions
	           SET exit_time = $1, duration_hours = $2, fee = $3, status = $4, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $5 AND status = $6
	           RETURNING id`
	var closedID int64
	err := r.db.QueryRowContext(ctx, query, exitTime, durationHours, fee, domain.SessionClosed, id, domain.SessionOpen).
		Scan(&closedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing session from one already closed.
			_, findErr := r.FindByID(ctx, id)
			switch {
			case findErr == nil:
				return nil, repository.ErrSessionClosed
			case errors.Is(findErr, repository.ErrNotFound):
				return nil, repository.ErrNotFound
			default:
				return nil, fmt.Errorf("ParkingSessionRepository.Close: %w", findErr)
			}
		}
		return nil, fmt.Errorf("ParkingSessionRepository.Close: %w", err)
	}
	return r.FindByID(ctx, closedID)
}

func (r *pgParkingSessionRepository) Find(ctx context.Context, filter domain.SessionFilter) ([]domain.ParkingSession, error) {
	baseQuery := `SELECT ` + sessionColumns + `
	               FROM parking_sessions s JOIN parking_lots l ON l.id = s.lot_id`

	var conditions []string
	var args []interface{}
	argID := 1

	if filter.PlateContains != "" {
		conditions = append(conditions, fmt.Sprintf("s.plate LIKE $%d", argID))
		args = append(args, "%"+filter.PlateContains+"%")
		argID++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", argID))
		args = append(args, filter.Status)
		argID++
	}
	if !filter.EntryFrom.IsZero() {
		conditions = append(conditions, fmt.Sprintf("s.entry_time >= $%d", argID))
		args = append(args, filter.EntryFrom)
		argID++
	}
	if !filter.EntryTo.IsZero() {
		conditions = append(conditions, fmt.Sprintf("s.entry_time <= $%d", argID))
		args = append(args, filter.EntryTo)
		argID++
	}

	query := baseQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.entry_time DESC, s.id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.Find: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ParkingSession
	for rows.Next() {
		var session domain.ParkingSession
		if err := scanSession(rows, &session); err != nil {
			return nil, fmt.Errorf("ParkingSessionRepository.Find (scanning row): %w", err)
		}
		sessions = append(sessions, session)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.Find (rows error): %w", err)
	}
	return sessions, nil
}

func (r *pgParkingSessionRepository) CountOpenByLot(ctx context.Context) (map[int]int, error) {
	query := `SELECT lot_id, COUNT(*) FROM parking_sessions WHERE status = $1 GROUP BY lot_id`
	rows, err := r.db.QueryContext(ctx, query, domain.SessionOpen)
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.CountOpenByLot: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var lotID, count int
		if err := rows.Scan(&lotID, &count); err != nil {
			return nil, fmt.Errorf("ParkingSessionRepository.CountOpenByLot (scanning row): %w", err)
		}
		counts[lotID] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.CountOpenByLot (rows error): %w", err)
	}
	return counts, nil
}
