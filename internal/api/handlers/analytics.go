package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/peermeet/peermeet-backend/internal/service"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// SubmitFeedback 매치 결과/평점 제출
func (h *AnalyticsHandler) SubmitFeedback(c *gin.Context) {
	var req models.SubmitFeedbackRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	matchID := c.Param("id")
	userId, _ := c.Get("userId")

	record, err := h.analyticsService.SubmitMatchFeedback(c.Request.Context(), userId.(string), matchID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRating), errors.Is(err, service.ErrInvalidOutcome):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, service.ErrMatchNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Match not found",
			})
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Only match participants can submit feedback",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to submit feedback",
			})
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetHistory 최근 매칭 결과 기록 조회
func (h *AnalyticsHandler) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := h.analyticsService.GetMatchHistory(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load match history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": records,
		"count":   len(records),
	})
}

// GetStats 매칭 집계 통계 조회
func (h *AnalyticsHandler) GetStats(c *gin.Context) {
	stats, err := h.analyticsService.GetMatchingStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load matching stats",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
