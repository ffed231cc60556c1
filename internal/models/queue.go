package models

import "time"

type QueueStatus string

const (
	QueueStatusWaiting   QueueStatus = "waiting"
	QueueStatusMatched   QueueStatus = "matched"
	QueueStatusExpired   QueueStatus = "expired"
	QueueStatusCancelled QueueStatus = "cancelled"
)

// MatchConstraints 사용자가 큐 등록 시 지정하는 매칭 조건
type MatchConstraints struct {
	Interests     []string `json:"interests"`
	Roles         []string `json:"roles"`
	OrgConstraint *string  `json:"orgConstraint,omitempty"` // 상대가 속해야 하는 조직 ID
}

type QueueEntry struct {
	ID            string           `db:"id" json:"id"`
	UserID        string           `db:"user_id" json:"userId"`
	AvailableFrom time.Time        `db:"available_from" json:"availableFrom"`
	AvailableTo   time.Time        `db:"available_to" json:"availableTo"`
	Constraints   MatchConstraints `db:"-" json:"constraints"`
	Status        QueueStatus      `db:"status" json:"status"`
	MatchedWith   *string          `db:"matched_with" json:"matchedWith,omitempty"`
	MatchID       *string          `db:"match_id" json:"matchId,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updatedAt"`
}

// EnterQueueRequest 큐 등록 요청
type EnterQueueRequest struct {
	AvailableFrom time.Time        `json:"availableFrom" binding:"required"`
	AvailableTo   time.Time        `json:"availableTo" binding:"required"`
	Constraints   MatchConstraints `json:"constraints"`
}
