package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/peermeet/peermeet-backend/internal/service"
)

type MatchingHandler struct {
	matchingService *service.MatchingService
	queueService    *service.QueueService
}

func NewMatchingHandler(matchingService *service.MatchingService, queueService *service.QueueService) *MatchingHandler {
	return &MatchingHandler{
		matchingService: matchingService,
		queueService:    queueService,
	}
}

// TriggerCycle 온디맨드 매칭 사이클 요청 (관리자).
// 조정자를 통해 브로드캐스트되므로 즉시 결과를 반환하지 않는다.
func (h *MatchingHandler) TriggerCycle(c *gin.Context) {
	if err := h.matchingService.TriggerCycle(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to request matching cycle",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Matching cycle requested",
	})
}

// RunCycle 매칭 사이클 동기 실행 후 결과 반환 (관리자)
func (h *MatchingHandler) RunCycle(c *gin.Context) {
	shardCount := parseQueryInt(c, "shards", 0)
	minScore := parseQueryFloat(c, "minScore", -1)
	maxMatches := parseQueryInt(c, "maxMatches", 0)

	result, err := h.matchingService.RunCycleNow(c.Request.Context(), shardCount, minScore, maxMatches)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Matching cycle failed",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// CleanupExpired 만료 엔트리 정리 실행 (관리자)
func (h *MatchingHandler) CleanupExpired(c *gin.Context) {
	count, err := h.queueService.CleanupExpiredEntries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to cleanup expired entries",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"expired": count,
	})
}

func parseQueryInt(c *gin.Context, name string, defaultValue int) int {
	s := c.Query(name)
	if s == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return n
}

func parseQueryFloat(c *gin.Context, name string, defaultValue float64) float64 {
	s := c.Query(name)
	if s == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
