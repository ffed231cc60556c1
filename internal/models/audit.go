package models

import (
	"encoding/json"
	"time"
)

// AuditRecord 큐 변경과 사이클 커밋에 대한 append-only 감사 기록
type AuditRecord struct {
	ID        string          `db:"id" json:"id"`
	ActorID   string          `db:"actor_id" json:"actorId"` // 시스템 동작은 "system"
	Action    string          `db:"action" json:"action"`
	SubjectID string          `db:"subject_id" json:"subjectId"`
	Detail    json.RawMessage `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// 감사 액션 이름
const (
	AuditQueueEntered   = "queue.entered"
	AuditQueueCancelled = "queue.cancelled"
	AuditQueueExpired   = "queue.expired"
	AuditMatchCommitted = "match.committed"
)
