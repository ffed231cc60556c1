package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/peermeet/peermeet-backend/internal/models"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200

	// 피처 순위 집계에 포함되는 최소 평점
	highRatingThreshold = 4
)

// AnalyticsService 매칭 결과 기록/조회와 집계 통계
type AnalyticsService struct {
	analyticsStore AnalyticsStore
	logger         *zap.Logger
}

// NewAnalyticsService 분석 서비스 생성
func NewAnalyticsService(analyticsStore AnalyticsStore) *AnalyticsService {
	logger, _ := zap.NewProduction()

	return &AnalyticsService{
		analyticsStore: analyticsStore,
		logger:         logger,
	}
}

// SubmitMatchFeedback 매치 참가자의 결과/평점 제출.
// 참가자가 아니면 ErrForbidden, 평점 범위를 벗어나면 ErrInvalidRating.
// 동일 (match, user) 재제출은 기존 레코드를 갱신한다.
func (s *AnalyticsService) SubmitMatchFeedback(ctx context.Context, userID, matchID string, req *models.SubmitFeedbackRequest) (*models.MatchAnalyticsRecord, error) {
	switch req.Outcome {
	case models.OutcomeAccepted, models.OutcomeDeclined, models.OutcomeCompleted:
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidOutcome, req.Outcome)
	}

	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, ErrInvalidRating
	}

	match, err := s.analyticsStore.FindMatchByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to find match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}
	if match.User1ID != userID && match.User2ID != userID {
		return nil, ErrForbidden
	}

	record := &models.MatchAnalyticsRecord{
		MatchID:        matchID,
		UserID:         userID,
		Outcome:        req.Outcome,
		Rating:         req.Rating,
		Comments:       req.Comments,
		Features:       match.Features,
		WeightsVersion: match.WeightsVersion,
	}

	if err := s.analyticsStore.UpsertFeedback(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save match feedback: %w", err)
	}

	s.logger.Info("Match feedback recorded",
		zap.String("matchId", matchID),
		zap.String("userId", userID),
		zap.String("outcome", string(req.Outcome)))

	return record, nil
}

// GetMatchHistory 최근 매칭 결과 기록 조회 (최신순)
func (s *AnalyticsService) GetMatchHistory(ctx context.Context, limit int) ([]models.MatchAnalyticsRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := s.analyticsStore.History(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}
	return records, nil
}

// GetMatchingStats 집계 통계: 총 매칭 수, 성공률(completed 비율),
// 고평점 매칭에서의 피처별 평균 기여도 순위
func (s *AnalyticsService) GetMatchingStats(ctx context.Context) (*models.MatchingStats, error) {
	total, err := s.analyticsStore.TotalMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}

	outcomes, err := s.analyticsStore.OutcomeCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate outcomes: %w", err)
	}

	var recorded, completed int64
	for outcome, count := range outcomes {
		recorded += count
		if outcome == models.OutcomeCompleted {
			completed = count
		}
	}

	successRate := 0.0
	if recorded > 0 {
		successRate = float64(completed) / float64(recorded)
	}

	features, err := s.analyticsStore.HighRatedFeatures(ctx, highRatingThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to load high-rated features: %w", err)
	}

	return &models.MatchingStats{
		TotalMatches: total,
		SuccessRate:  successRate,
		TopFeatures:  rankFeatures(features),
	}, nil
}

// rankFeatures 고평점 매칭들의 피처별 평균값을 내림차순으로 정렬한다
func rankFeatures(breakdowns []models.FeatureBreakdown) []models.FeatureRank {
	if len(breakdowns) == 0 {
		return nil
	}

	sums := map[string]float64{}
	for _, fb := range breakdowns {
		sums["interestOverlap"] += fb.InterestOverlap
		sums["roleComplementarity"] += fb.RoleComplementarity
		sums["experienceGap"] += fb.ExperienceGap
		sums["industryMatch"] += fb.IndustryMatch
		sums["timezoneCompatibility"] += fb.TimezoneCompatibility
		sums["orgConstraintMatch"] += fb.OrgConstraintMatch
		sums["languageOverlap"] += fb.LanguageOverlap
	}

	n := float64(len(breakdowns))
	ranks := make([]models.FeatureRank, 0, len(sums))
	for feature, sum := range sums {
		ranks = append(ranks, models.FeatureRank{Feature: feature, Mean: sum / n})
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Mean != ranks[j].Mean {
			return ranks[i].Mean > ranks[j].Mean
		}
		return ranks[i].Feature < ranks[j].Feature
	})

	return ranks
}
