package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/peermeet/peermeet-backend/internal/service"
)

type MeetingHandler struct {
	meetingService *service.MeetingService
}

func NewMeetingHandler(meetingService *service.MeetingService) *MeetingHandler {
	return &MeetingHandler{
		meetingService: meetingService,
	}
}

// GetMeeting 미팅 조회
func (h *MeetingHandler) GetMeeting(c *gin.Context) {
	meetingID := c.Param("id")
	userId, _ := c.Get("userId")

	meeting, err := h.meetingService.GetMeeting(c.Request.Context(), userId.(string), meetingID)
	if err != nil {
		h.writeMeetingError(c, err)
		return
	}

	c.JSON(http.StatusOK, meeting)
}

// ListMyMeetings 현재 사용자의 미팅 목록 조회
func (h *MeetingHandler) ListMyMeetings(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	userId, _ := c.Get("userId")

	meetings, err := h.meetingService.ListMyMeetings(c.Request.Context(), userId.(string), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list meetings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meetings": meetings,
		"count":    len(meetings),
	})
}

// CompleteMeeting 미팅 완료 처리
func (h *MeetingHandler) CompleteMeeting(c *gin.Context) {
	meetingID := c.Param("id")
	userId, _ := c.Get("userId")

	meeting, err := h.meetingService.CompleteMeeting(c.Request.Context(), userId.(string), meetingID)
	if err != nil {
		h.writeMeetingError(c, err)
		return
	}

	c.JSON(http.StatusOK, meeting)
}

// CancelMeeting 미팅 취소 처리
func (h *MeetingHandler) CancelMeeting(c *gin.Context) {
	meetingID := c.Param("id")
	userId, _ := c.Get("userId")

	meeting, err := h.meetingService.CancelMeeting(c.Request.Context(), userId.(string), meetingID)
	if err != nil {
		h.writeMeetingError(c, err)
		return
	}

	c.JSON(http.StatusOK, meeting)
}

func (h *MeetingHandler) writeMeetingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMeetingNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Meeting not found",
		})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Only meeting participants can access this meeting",
		})
	case errors.Is(err, service.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to process meeting request",
		})
	}
}
