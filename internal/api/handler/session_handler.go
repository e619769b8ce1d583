package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lxyzcm1/parking-manage-system/internal/domain"
	"github.com/lxyzcm1/parking-manage-system/internal/repository"
	"github.com/lxyzcm1/parking-manage-system/internal/service"
)

type SessionHandler struct {
	engine *service.ParkingEngine
}

func NewSessionHandler(engine *service.ParkingEngine) *SessionHandler {
	return &SessionHandler{engine: engine}
}

// parseEventTime resolves an optional caller-supplied timestamp; the engine
// itself never reads the wall clock.
func parseEventTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// POST /api/v1/sessions/entry
func (h *SessionHandler) VehicleEntry(c *gin.Context) {
	var dto domain.VehicleEntryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid payload: " + err.Error()})
		return
	}
	entryTime, err := parseEventTime(dto.EntryTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid entry_time: " + err.Error()})
		return
	}

	session, err := h.engine.Enter(c.Request.Context(), dto.Plate, dto.LotID, entryTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// POST /api/v1/sessions/exit
func (h *SessionHandler) VehicleExit(c *gin.Context) {
	var dto domain.VehicleExitDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid payload: " + err.Error()})
		return
	}
	exitTime, err := parseEventTime(dto.ExitTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid exit_time: " + err.Error()})
		return
	}

	session, err := h.engine.Exit(c.Request.Context(), dto.Plate, exitTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSessionByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid session id"})
		return
	}
	session, err := h.engine.GetSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": CodeSessionNotFound, "error": "session not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// GET /api/v1/sessions
func (h *SessionHandler) FindSessions(c *gin.Context) {
	var query domain.SessionQueryDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid query parameters: " + err.Error()})
		return
	}

	filter := domain.SessionFilter{
		PlateContains: service.NormalizePlate(query.Plate),
		Offset:        query.Offset,
		Limit:         query.Limit,
	}
	switch query.Status {
	case "":
	case string(domain.SessionOpen), string(domain.SessionClosed):
		filter.Status = domain.SessionStatus(query.Status)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "status must be open or closed"})
		return
	}
	if query.StartDate != "" {
		from, err := time.ParseInLocation("2006-01-02", query.StartDate, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid start_date"})
			return
		}
		filter.EntryFrom = from
	}
	if query.EndDate != "" {
		to, err := time.ParseInLocation("2006-01-02", query.EndDate, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid end_date"})
			return
		}
		filter.EntryTo = to.Add(24*time.Hour - time.Nanosecond)
	}

	sessions, err := h.engine.FindSessions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []domain.ParkingSession{}
	}
	c.JSON(http.StatusOK, sessions)
}
