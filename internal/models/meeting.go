package models

import "time"

type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// Meeting 매칭 성사 후 생성되는 미팅. 매칭 결정 로직과는 분리된 얇은 CRUD 대상.
type Meeting struct {
	ID             string        `db:"id" json:"id"`
	MatchID        string        `db:"match_id" json:"matchId"`
	User1ID        string        `db:"user1_id" json:"user1Id"`
	User2ID        string        `db:"user2_id" json:"user2Id"`
	ScheduledStart time.Time     `db:"scheduled_start" json:"scheduledStart"`
	ScheduledEnd   time.Time     `db:"scheduled_end" json:"scheduledEnd"`
	Status         MeetingStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt"`
}

// HasParticipant 해당 사용자가 미팅 참가자인지 확인
func (m *Meeting) HasParticipant(userID string) bool {
	return m.User1ID == userID || m.User2ID == userID
}
