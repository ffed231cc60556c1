package service

import (
	"context"
	"fmt"

	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/peermeet/peermeet-backend/internal/repository"
)

// 프로필 속성 한도
const (
	maxExperienceYears = 60
	maxListItems       = 20
)

type ProfileService struct {
	profileRepo *repository.ProfileRepository
}

func NewProfileService(profileRepo *repository.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// GetProfile 사용자 프로필 조회. 없으면 ErrUserDataNotFound.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.profileRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, ErrUserDataNotFound
	}
	return profile, nil
}

// UpdateProfile 프로필 생성/갱신
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserProfile, error) {
	switch req.Role {
	case models.RoleMentor, models.RoleMentee, models.RolePeer:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}

	if req.ExperienceYears < 0 || req.ExperienceYears > maxExperienceYears {
		return nil, fmt.Errorf("%w: experienceYears out of range", ErrInvalidInput)
	}
	if req.TimezoneOffset < -12 || req.TimezoneOffset > 14 {
		return nil, fmt.Errorf("%w: timezoneOffset out of range", ErrInvalidInput)
	}
	if len(req.Languages) > maxListItems || len(req.Interests) > maxListItems {
		return nil, fmt.Errorf("%w: too many list items", ErrInvalidInput)
	}

	profile := &models.UserProfile{
		UserID:          userID,
		Role:            req.Role,
		ExperienceYears: req.ExperienceYears,
		Industry:        req.Industry,
		TimezoneOffset:  req.TimezoneOffset,
		OrgID:           req.OrgID,
		Languages:       req.Languages,
		Interests:       req.Interests,
	}

	if err := s.profileRepo.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return profile, nil
}
