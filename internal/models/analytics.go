package models

import "time"

type MatchOutcome string

const (
	OutcomeAccepted  MatchOutcome = "accepted"
	OutcomeDeclined  MatchOutcome = "declined"
	OutcomeCompleted MatchOutcome = "completed"
)

// MatchAnalyticsRecord 매칭 결과/피드백 레코드. 큐 엔트리 수명과 독립적으로 보존된다.
type MatchAnalyticsRecord struct {
	MatchID        string           `db:"match_id" json:"matchId"`
	UserID         string           `db:"user_id" json:"userId"`
	Outcome        MatchOutcome     `db:"outcome" json:"outcome"`
	Rating         *int             `db:"rating" json:"rating,omitempty"` // [1,5]
	Comments       *string          `db:"comments" json:"comments,omitempty"`
	Features       FeatureBreakdown `db:"-" json:"features"`
	WeightsVersion string           `db:"weights_version" json:"weightsVersion"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
}

// SubmitFeedbackRequest 피드백 제출 요청
type SubmitFeedbackRequest struct {
	Outcome  MatchOutcome `json:"outcome" binding:"required"`
	Rating   *int         `json:"rating"`
	Comments *string      `json:"comments"`
}

// FeatureRank 평균 기여도 기준 피처 순위
type FeatureRank struct {
	Feature string  `json:"feature"`
	Mean    float64 `json:"mean"`
}

// MatchingStats 매칭 집계 통계
type MatchingStats struct {
	TotalMatches int64         `json:"totalMatches"`
	SuccessRate  float64       `json:"successRate"` // completed / 전체 기록된 outcome, [0,1]
	TopFeatures  []FeatureRank `json:"topFeatures"`
}
