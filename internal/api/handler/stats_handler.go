package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lxyzcm1/parking-manage-system/internal/service"
)

type StatisticsHandler struct {
	stats *service.StatisticsService
}

func NewStatisticsHandler(stats *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{stats: stats}
}

// GET /api/v1/statistics?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")
	if startDate == "" || endDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeValidationError, "error": "start_date and end_date are required"})
		return
	}

	stats, err := h.stats.ComputeStatistics(c.Request.Context(), startDate, endDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
