package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/peermeet/peermeet-backend/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// GetMyProfile 현재 사용자의 매칭 프로필 조회
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userId, _ := c.Get("userId")

	profile, err := h.profileService.GetProfile(c.Request.Context(), userId.(string))
	if err != nil {
		if errors.Is(err, service.ErrUserDataNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Profile not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get profile",
		})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetProfile 다른 사용자의 매칭 프로필 조회
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileService.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserDataNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Profile not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get profile",
		})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateMyProfile 현재 사용자의 매칭 프로필 생성/갱신
func (h *ProfileHandler) UpdateMyProfile(c *gin.Context) {
	var req models.UpdateProfileRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	userId, _ := c.Get("userId")

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), userId.(string), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update profile",
		})
		return
	}

	c.JSON(http.StatusOK, profile)
}
