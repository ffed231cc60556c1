package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/peermeet/peermeet-backend/pkg/database"
)

type AnalyticsRepository struct {
	db *database.DB
}

func NewAnalyticsRepository(db *database.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// FindMatchByID 매치 레코드 조회 (없으면 nil)
func (r *AnalyticsRepository) FindMatchByID(ctx context.Context, matchID string) (*models.MatchRecord, error) {
	query := `
		SELECT id, user1_id, user2_id, score, features, weights_version, created_at
		FROM matches
		WHERE id = $1
	`

	match := &models.MatchRecord{}
	var features []byte
	err := r.db.QueryRowContext(ctx, query, matchID).Scan(
		&match.ID,
		&match.User1ID,
		&match.User2ID,
		&match.Score,
		&features,
		&match.WeightsVersion,
		&match.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find match: %w", err)
	}

	if err := json.Unmarshal(features, &match.Features); err != nil {
		return nil, fmt.Errorf("failed to unmarshal features: %w", err)
	}

	return match, nil
}

// UpsertFeedback 매치별/사용자별 피드백 upsert
func (r *AnalyticsRepository) UpsertFeedback(ctx context.Context, rec *models.MatchAnalyticsRecord) error {
	query := `
		INSERT INTO match_feedback (match_id, user_id, outcome, rating, comments)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (match_id, user_id)
		DO UPDATE SET
			outcome = EXCLUDED.outcome,
			rating = EXCLUDED.rating,
			comments = EXCLUDED.comments
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		rec.MatchID,
		rec.UserID,
		rec.Outcome,
		rec.Rating,
		rec.Comments,
	).Scan(&rec.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert feedback: %w", err)
	}

	return nil
}

// History 최근 피드백 레코드 목록. 매치의 피처/가중치 스냅샷을 함께 반환한다.
func (r *AnalyticsRepository) History(ctx context.Context, limit int) ([]models.MatchAnalyticsRecord, error) {
	query := `
		SELECT f.match_id, f.user_id, f.outcome, f.rating, f.comments,
		       m.features, m.weights_version, f.created_at
		FROM match_feedback f
		JOIN matches m ON m.id = f.match_id
		ORDER BY f.created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get match history: %w", err)
	}
	defer rows.Close()

	var records []models.MatchAnalyticsRecord
	for rows.Next() {
		var rec models.MatchAnalyticsRecord
		var features []byte
		if err := rows.Scan(
			&rec.MatchID,
			&rec.UserID,
			&rec.Outcome,
			&rec.Rating,
			&rec.Comments,
			&features,
			&rec.WeightsVersion,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}

		if err := json.Unmarshal(features, &rec.Features); err != nil {
			return nil, fmt.Errorf("failed to unmarshal features: %w", err)
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

// TotalMatches 전체 매치 수
func (r *AnalyticsRepository) TotalMatches(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return total, nil
}

// OutcomeCounts outcome별 피드백 수
func (r *AnalyticsRepository) OutcomeCounts(ctx context.Context) (map[models.MatchOutcome]int64, error) {
	query := `SELECT outcome, COUNT(*) FROM match_feedback GROUP BY outcome`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.MatchOutcome]int64)
	for rows.Next() {
		var outcome models.MatchOutcome
		var count int64
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[outcome] = count
	}

	return counts, rows.Err()
}

// HighRatedFeatures 높은 평점을 받은 매치들의 피처 스냅샷 목록
func (r *AnalyticsRepository) HighRatedFeatures(ctx context.Context, minRating int) ([]models.FeatureBreakdown, error) {
	query := `
		SELECT m.features
		FROM match_feedback f
		JOIN matches m ON m.id = f.match_id
		WHERE f.rating IS NOT NULL AND f.rating >= $1
	`

	rows, err := r.db.QueryContext(ctx, query, minRating)
	if err != nil {
		return nil, fmt.Errorf("failed to get high rated features: %w", err)
	}
	defer rows.Close()

	var result []models.FeatureBreakdown
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan features: %w", err)
		}

		var features models.FeatureBreakdown
		if err := json.Unmarshal(raw, &features); err != nil {
			return nil, fmt.Errorf("failed to unmarshal features: %w", err)
		}

		result = append(result, features)
	}

	return result, rows.Err()
}
