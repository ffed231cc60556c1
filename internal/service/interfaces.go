package service

import (
	"context"
	"time"

	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/peermeet/peermeet-backend/pkg/distributed"
)

// QueueStore 매칭 큐 저장소. repository.QueueRepository가 구현한다.
type QueueStore interface {
	Create(ctx context.Context, entry *models.QueueEntry) error
	FindWaitingByUser(ctx context.Context, userID string) (*models.QueueEntry, error)
	FindLatestByUser(ctx context.Context, userID string) (*models.QueueEntry, error)
	FindByID(ctx context.Context, id string) (*models.QueueEntry, error)
	ListEligible(ctx context.Context, now time.Time) ([]models.QueueEntry, error)
	CancelEntry(ctx context.Context, id string) (bool, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	CommitMatch(ctx context.Context, match *models.MatchRecord, entry1ID, entry2ID string) (bool, error)
}

// ProfileStore 프로필/관심사 읽기 전용 조회. 프로필이 없으면 (nil, nil).
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// AnalyticsStore 매치 결과/피드백 저장소
type AnalyticsStore interface {
	FindMatchByID(ctx context.Context, matchID string) (*models.MatchRecord, error)
	UpsertFeedback(ctx context.Context, rec *models.MatchAnalyticsRecord) error
	History(ctx context.Context, limit int) ([]models.MatchAnalyticsRecord, error)
	TotalMatches(ctx context.Context) (int64, error)
	OutcomeCounts(ctx context.Context) (map[models.MatchOutcome]int64, error)
	HighRatedFeatures(ctx context.Context, minRating int) ([]models.FeatureBreakdown, error)
}

// MeetingStore 미팅 저장소
type MeetingStore interface {
	Create(ctx context.Context, meeting *models.Meeting) error
	FindByID(ctx context.Context, id string) (*models.Meeting, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Meeting, error)
	UpdateStatus(ctx context.Context, id string, status models.MeetingStatus) (bool, error)
	HaveActiveMeeting(ctx context.Context, userA, userB string) (bool, error)
}

// AuditStore 감사 기록 저장소
type AuditStore interface {
	Record(ctx context.Context, actorID, action, subjectID string, detail interface{}) error
}

// MatchEventPublisher 커밋된 페어 이벤트 발행 (사이클 엔진 측)
type MatchEventPublisher interface {
	Publish(ctx context.Context, event models.MatchFormedEvent) error
}

// MatchEventSource 커밋된 페어 이벤트 소비 (미팅 생성 플로우 측).
// Next는 큐가 비어 있으면 (nil, nil, nil)을 반환한다.
type MatchEventSource interface {
	Next(ctx context.Context) (*distributed.QueueItem, *models.MatchFormedEvent, error)
	Complete(ctx context.Context, itemID string) error
	Fail(ctx context.Context, item *distributed.QueueItem) error
}

// Notifier 실시간 사용자 알림 (WebSocket hub)
type Notifier interface {
	Send(userID, msgType string, payload interface{})
}
