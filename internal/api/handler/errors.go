package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lxyzcm1/parking-manage-system/internal/repository"
	"github.com/lxyzcm1/parking-manage-system/internal/service"
)

// Every domain error kind maps to one stable code so the frontend can render
// a specific notice ("lot full" vs "plate already inside"). Anything
// unrecognized is reported as a store failure.
const (
	CodeInvalidPlate         = "invalid_plate"
	CodeLotNotFound          = "lot_not_found"
	CodeLotFull              = "lot_full"
	CodeDuplicateOpenSession = "duplicate_open_session"
	CodeSessionNotFound      = "session_not_found"
	CodeSessionClosed        = "session_already_closed"
	CodeInvalidInterval      = "invalid_interval"
	CodeValidationError      = "validation_error"
	CodeStoreUnavailable     = "store_unavailable"
)

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPlate):
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeInvalidPlate, "error": err.Error()})
	case errors.Is(err, service.ErrLotFull):
		c.JSON(http.StatusConflict, gin.H{"code": CodeLotFull, "error": err.Error()})
	case errors.Is(err, service.ErrInvalidInterval):
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeInvalidInterval, "error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": err.Error()})
	case errors.Is(err, repository.ErrDuplicateOpenSession):
		c.JSON(http.StatusConflict, gin.H{"code": CodeDuplicateOpenSession, "error": err.Error()})
	case errors.Is(err, repository.ErrNoOpenSession):
		c.JSON(http.StatusNotFound, gin.H{"code": CodeSessionNotFound, "error": err.Error()})
	case errors.Is(err, repository.ErrSessionClosed):
		c.JSON(http.StatusConflict, gin.H{"code": CodeSessionClosed, "error": err.Error()})
	case errors.Is(err, repository.ErrDuplicateEntry):
		c.JSON(http.StatusConflict, gin.H{"code": CodeValidationError, "error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": CodeLotNotFound, "error": err.Error()})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": CodeStoreUnavailable, "error": "persistence failure", "details": err.Error()})
	}
}
