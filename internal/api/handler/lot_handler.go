package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lxyzcm1/parking-manage-system/internal/domain"
	"github.com/lxyzcm1/parking-manage-system/internal/service"
)

type ParkingLotHandler struct {
	engine *service.ParkingEngine
}

func NewParkingLotHandler(engine *service.ParkingEngine) *ParkingLotHandler {
	return &ParkingLotHandler{engine: engine}
}

type lotWithOccupancy struct {
	domain.ParkingLot
	CurrentOccupancy int `json:"current_occupancy"`
}

// POST /api/v1/parking-lots
func (h *ParkingLotHandler) CreateParkingLot(c *gin.Context) {
	var dto domain.CreateParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid payload: " + err.Error()})
		return
	}
	lot, err := h.engine.CreateLot(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lot)
}

// GET /api/v1/parking-lots
func (h *ParkingLotHandler) GetAllParkingLots(c *gin.Context) {
	lots, err := h.engine.ListLots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	result := make([]lotWithOccupancy, 0, len(lots))
	for _, lot := range lots {
		occupancy, err := h.engine.Occupancy(c.Request.Context(), lot.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		result = append(result, lotWithOccupancy{ParkingLot: lot, CurrentOccupancy: occupancy})
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/v1/parking-lots/:id
func (h *ParkingLotHandler) GetParkingLotByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid lot id"})
		return
	}
	lot, err := h.engine.GetLot(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	occupancy, err := h.engine.Occupancy(c.Request.Context(), lot.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lotWithOccupancy{ParkingLot: *lot, CurrentOccupancy: occupancy})
}

// PUT /api/v1/parking-lots/:id
func (h *ParkingLotHandler) UpdateParkingLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid lot id"})
		return
	}
	var dto domain.UpdateParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid payload: " + err.Error()})
		return
	}
	lot, err := h.engine.UpdateLot(c.Request.Context(), id, dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

// DELETE /api/v1/parking-lots/:id
func (h *ParkingLotHandler) DeleteParkingLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid lot id"})
		return
	}
	if err := h.engine.DeleteLot(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "parking lot deleted"})
}
