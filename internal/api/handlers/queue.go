package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/peermeet/peermeet-backend/internal/service"
)

type QueueHandler struct {
	queueService *service.QueueService
}

func NewQueueHandler(queueService *service.QueueService) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
	}
}

// EnterQueue 매칭 큐 등록
func (h *QueueHandler) EnterQueue(c *gin.Context) {
	var req models.EnterQueueRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	userId, _ := c.Get("userId")

	entry, err := h.queueService.EnterQueue(c.Request.Context(), userId.(string), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAvailabilityWindow):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, service.ErrDuplicateQueueEntry):
			c.JSON(http.StatusConflict, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to enter queue",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// CancelQueueEntry 큐 엔트리 취소
func (h *QueueHandler) CancelQueueEntry(c *gin.Context) {
	entryID := c.Param("id")
	userId, _ := c.Get("userId")

	entry, err := h.queueService.CancelQueueEntry(c.Request.Context(), userId.(string), entryID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Queue entry not found",
			})
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Cannot cancel another user's queue entry",
			})
		case errors.Is(err, service.ErrInvalidStateTransition):
			c.JSON(http.StatusConflict, gin.H{
				"error": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to cancel queue entry",
			})
		}
		return
	}

	c.JSON(http.StatusOK, entry)
}

// GetQueueStatus 현재 사용자의 최신 큐 상태 조회
func (h *QueueHandler) GetQueueStatus(c *gin.Context) {
	userId, _ := c.Get("userId")

	entry, err := h.queueService.GetQueueStatus(c.Request.Context(), userId.(string))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No queue entry found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get queue status",
		})
		return
	}

	c.JSON(http.StatusOK, entry)
}
