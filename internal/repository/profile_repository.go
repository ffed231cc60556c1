package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/peermeet/peermeet-backend/pkg/database"
)

type ProfileRepository struct {
	db *database.DB
}

func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile 사용자 프로필 조회 (없으면 nil)
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `
		SELECT user_id, role, experience_years, industry, timezone_offset, org_id, languages, interests, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`

	profile := &models.UserProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Role,
		&profile.ExperienceYears,
		&profile.Industry,
		&profile.TimezoneOffset,
		&profile.OrgID,
		pq.Array(&profile.Languages),
		pq.Array(&profile.Interests),
		&profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// UpsertProfile 프로필 생성/갱신
func (r *ProfileRepository) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	query := `
		INSERT INTO user_profiles (user_id, role, experience_years, industry, timezone_offset, org_id, languages, interests)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET
			role = EXCLUDED.role,
			experience_years = EXCLUDED.experience_years,
			industry = EXCLUDED.industry,
			timezone_offset = EXCLUDED.timezone_offset,
			org_id = EXCLUDED.org_id,
			languages = EXCLUDED.languages,
			interests = EXCLUDED.interests,
			updated_at = NOW()
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		profile.UserID,
		profile.Role,
		profile.ExperienceYears,
		profile.Industry,
		profile.TimezoneOffset,
		profile.OrgID,
		pq.Array(profile.Languages),
		pq.Array(profile.Interests),
	).Scan(&profile.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}
