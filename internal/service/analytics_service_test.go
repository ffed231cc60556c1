package service

import (
	"context"
	"testing"
	"time"

	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int {
	return &n
}

func seedMatch(store *fakeAnalyticsStore, matchID, user1, user2 string) {
	store.putMatch(&models.MatchRecord{
		ID:      matchID,
		User1ID: user1,
		User2ID: user2,
		Score:   0.9,
		Features: models.FeatureBreakdown{
			InterestOverlap:     1.0,
			RoleComplementarity: 1.0,
			ExperienceGap:       0.5,
		},
		WeightsVersion: "v1",
		CreatedAt:      time.Now().UTC(),
	})
}

func TestAnalyticsService_SubmitMatchFeedback(t *testing.T) {
	store := newFakeAnalyticsStore()
	seedMatch(store, "match-1", "user-1", "user-2")
	svc := NewAnalyticsService(store)

	record, err := svc.SubmitMatchFeedback(context.Background(), "user-1", "match-1", &models.SubmitFeedbackRequest{
		Outcome: models.OutcomeCompleted,
		Rating:  intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCompleted, record.Outcome)
	assert.Equal(t, "v1", record.WeightsVersion)
	assert.Equal(t, 1.0, record.Features.InterestOverlap, "feature snapshot should be copied from the match")
}

func TestAnalyticsService_SubmitMatchFeedback_InvalidRating(t *testing.T) {
	store := newFakeAnalyticsStore()
	seedMatch(store, "match-1", "user-1", "user-2")
	svc := NewAnalyticsService(store)

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := svc.SubmitMatchFeedback(context.Background(), "user-1", "match-1", &models.SubmitFeedbackRequest{
			Outcome: models.OutcomeCompleted,
			Rating:  intPtr(rating),
		})
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d should be rejected", rating)
	}

	// 경계값은 허용
	for _, rating := range []int{1, 5} {
		_, err := svc.SubmitMatchFeedback(context.Background(), "user-1", "match-1", &models.SubmitFeedbackRequest{
			Outcome: models.OutcomeCompleted,
			Rating:  intPtr(rating),
		})
		assert.NoError(t, err, "rating %d should be accepted", rating)
	}

	// 평점 없는 제출도 허용
	_, err := svc.SubmitMatchFeedback(context.Background(), "user-1", "match-1", &models.SubmitFeedbackRequest{
		Outcome: models.OutcomeDeclined,
	})
	assert.NoError(t, err)
}

func TestAnalyticsService_SubmitMatchFeedback_InvalidOutcome(t *testing.T) {
	store := newFakeAnalyticsStore()
	seedMatch(store, "match-1", "user-1", "user-2")
	svc := NewAnalyticsService(store)

	_, err := svc.SubmitMatchFeedback(context.Background(), "user-1", "match-1", &models.SubmitFeedbackRequest{
		Outcome: "ghosted",
	})
	assert.ErrorIs(t, err, ErrInvalidOutcome)
}

func TestAnalyticsService_SubmitMatchFeedback_Forbidden(t *testing.T) {
	store := newFakeAnalyticsStore()
	seedMatch(store, "match-1", "user-1", "user-2")
	svc := NewAnalyticsService(store)

	_, err := svc.SubmitMatchFeedback(context.Background(), "user-3", "match-1", &models.SubmitFeedbackRequest{
		Outcome: models.OutcomeAccepted,
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAnalyticsService_SubmitMatchFeedback_MatchNotFound(t *testing.T) {
	svc := NewAnalyticsService(newFakeAnalyticsStore())

	_, err := svc.SubmitMatchFeedback(context.Background(), "user-1", "missing", &models.SubmitFeedbackRequest{
		Outcome: models.OutcomeAccepted,
	})
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestAnalyticsService_SubmitMatchFeedback_Resubmit(t *testing.T) {
	store := newFakeAnalyticsStore()
	seedMatch(store, "match-1", "user-1", "user-2")
	svc := NewAnalyticsService(store)

	_, err := svc.SubmitMatchFeedback(context.Background(), "user-1", "match-1", &models.SubmitFeedbackRequest{
		Outcome: models.OutcomeAccepted,
		Rating:  intPtr(3),
	})
	require.NoError(t, err)

	// 재제출은 기존 레코드를 대체한다
	_, err = svc.SubmitMatchFeedback(context.Background(), "user-1", "match-1", &models.SubmitFeedbackRequest{
		Outcome: models.OutcomeCompleted,
		Rating:  intPtr(5),
	})
	require.NoError(t, err)

	history, err := svc.GetMatchHistory(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.OutcomeCompleted, history[0].Outcome)
	require.NotNil(t, history[0].Rating)
	assert.Equal(t, 5, *history[0].Rating)
}

func TestAnalyticsService_GetMatchingStats(t *testing.T) {
	store := newFakeAnalyticsStore()
	seedMatch(store, "match-1", "user-1", "user-2")
	seedMatch(store, "match-2", "user-3", "user-4")
	svc := NewAnalyticsService(store)

	_, err := svc.SubmitMatchFeedback(context.Background(), "user-1", "match-1", &models.SubmitFeedbackRequest{
		Outcome: models.OutcomeCompleted,
		Rating:  intPtr(5),
	})
	require.NoError(t, err)

	_, err = svc.SubmitMatchFeedback(context.Background(), "user-3", "match-2", &models.SubmitFeedbackRequest{
		Outcome: models.OutcomeDeclined,
		Rating:  intPtr(2),
	})
	require.NoError(t, err)

	stats, err := svc.GetMatchingStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalMatches)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)

	// 고평점(4 이상) 매치 한 건에서 피처 순위 집계
	require.NotEmpty(t, stats.TopFeatures)
	assert.GreaterOrEqual(t, stats.TopFeatures[0].Mean, stats.TopFeatures[len(stats.TopFeatures)-1].Mean)
}

func TestAnalyticsService_GetMatchingStats_Empty(t *testing.T) {
	svc := NewAnalyticsService(newFakeAnalyticsStore())

	stats, err := svc.GetMatchingStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalMatches)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.Empty(t, stats.TopFeatures)
}
