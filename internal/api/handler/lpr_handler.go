package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lxyzcm1/parking-manage-system/internal/domain"
	"github.com/lxyzcm1/parking-manage-system/internal/service"
)

// LPRHandler drives entries and exits from gate camera frames: decode the
// image, recognize the plate, then hand the plate to the engine.
type LPRHandler struct {
	lprService *service.LPRService
	engine     *service.ParkingEngine
}

func NewLPRHandler(lprService *service.LPRService, engine *service.ParkingEngine) *LPRHandler {
	return &LPRHandler{lprService: lprService, engine: engine}
}

func (h *LPRHandler) decodeImage(c *gin.Context, imageBase64 string) ([]byte, bool) {
	imageBytes, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil || len(imageBytes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid image data"})
		return nil, false
	}
	return imageBytes, true
}

func (h *LPRHandler) recognize(c *gin.Context, imageBytes []byte) (string, float32, bool) {
	plate, confidence, err := h.lprService.RecognizePlate(c.Request.Context(), imageBytes)
	if err != nil {
		if errors.Is(err, service.ErrNoPlateDetected) {
			// Absence of detections is an invalid-plate condition at the
			// call site, not a server failure.
			c.JSON(http.StatusBadRequest, gin.H{"code": CodeInvalidPlate, "error": err.Error()})
			return "", 0, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": CodeStoreUnavailable, "error": "plate recognition failed", "details": err.Error()})
		return "", 0, false
	}
	return plate, confidence, true
}

// POST /api/v1/lpr/entry
func (h *LPRHandler) VehicleEntry(c *gin.Context) {
	var dto domain.LPREntryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid payload: " + err.Error()})
		return
	}
	imageBytes, ok := h.decodeImage(c, dto.ImageBase64)
	if !ok {
		return
	}
	entryTime, err := parseEventTime(dto.EntryTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid entry_time: " + err.Error()})
		return
	}

	plate, confidence, ok := h.recognize(c, imageBytes)
	if !ok {
		return
	}

	session, err := h.engine.Enter(c.Request.Context(), plate, dto.LotID, entryTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, domain.LPRResultDTO{
		DetectedPlate: plate,
		Confidence:    confidence,
		Session:       session,
	})
}

// POST /api/v1/lpr/exit
func (h *LPRHandler) VehicleExit(c *gin.Context) {
	var dto domain.LPRExitDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid payload: " + err.Error()})
		return
	}
	imageBytes, ok := h.decodeImage(c, dto.ImageBase64)
	if !ok {
		return
	}
	exitTime, err := parseEventTime(dto.ExitTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "invalid exit_time: " + err.Error()})
		return
	}

	plate, confidence, ok := h.recognize(c, imageBytes)
	if !ok {
		return
	}

	session, err := h.engine.Exit(c.Request.Context(), plate, exitTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.LPRResultDTO{
		DetectedPlate: plate,
		Confidence:    confidence,
		Session:       session,
	})
}
