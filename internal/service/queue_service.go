package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/peermeet/peermeet-backend/internal/models"
	"go.uber.org/zap"
)

// 과거 availableFrom 허용 오차. 클라이언트 시계 오차를 흡수한다.
const availabilityPastTolerance = time.Minute

// QueueService 매칭 큐 등록/취소/조회 관리
type QueueService struct {
	queueStore QueueStore
	auditStore AuditStore
	logger     *zap.Logger
}

// NewQueueService 큐 서비스 생성
func NewQueueService(queueStore QueueStore, auditStore AuditStore) *QueueService {
	logger, _ := zap.NewProduction()

	return &QueueService{
		queueStore: queueStore,
		auditStore: auditStore,
		logger:     logger,
	}
}

// EnterQueue 매칭 큐에 사용자 등록.
// 가용 시간 창이 유효하지 않으면 ErrInvalidAvailabilityWindow,
// 이미 waiting 엔트리가 있으면 ErrDuplicateQueueEntry.
func (s *QueueService) EnterQueue(ctx context.Context, userID string, req *models.EnterQueueRequest) (*models.QueueEntry, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}

	if !req.AvailableTo.After(req.AvailableFrom) {
		return nil, fmt.Errorf("%w: availableTo must be after availableFrom", ErrInvalidAvailabilityWindow)
	}
	if req.AvailableFrom.Before(time.Now().UTC().Add(-availabilityPastTolerance)) {
		return nil, fmt.Errorf("%w: availableFrom must not be in the past", ErrInvalidAvailabilityWindow)
	}

	existing, err := s.queueStore.FindWaitingByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing queue entry: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: user %s already has a waiting entry", ErrDuplicateQueueEntry, userID)
	}

	entry := &models.QueueEntry{
		ID:            uuid.New().String(),
		UserID:        userID,
		AvailableFrom: req.AvailableFrom.UTC(),
		AvailableTo:   req.AvailableTo.UTC(),
		Constraints:   req.Constraints,
		Status:        models.QueueStatusWaiting,
	}

	if err := s.queueStore.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create queue entry: %w", err)
	}

	s.recordAudit(ctx, userID, models.AuditQueueEntered, entry.ID, map[string]interface{}{
		"availableFrom": entry.AvailableFrom,
		"availableTo":   entry.AvailableTo,
	})

	s.logger.Info("User entered matching queue",
		zap.String("userId", userID),
		zap.String("entryId", entry.ID))

	return entry, nil
}

// CancelQueueEntry waiting 엔트리 취소. 본인 엔트리만 취소 가능하고,
// 이미 matched/expired/cancelled면 ErrInvalidStateTransition.
func (s *QueueService) CancelQueueEntry(ctx context.Context, userID, entryID string) (*models.QueueEntry, error) {
	entry, err := s.queueStore.FindByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find queue entry: %w", err)
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	if entry.UserID != userID {
		return nil, ErrForbidden
	}
	if entry.Status != models.QueueStatusWaiting {
		return nil, fmt.Errorf("%w: cannot cancel entry in status %s", ErrInvalidStateTransition, entry.Status)
	}

	cancelled, err := s.queueStore.CancelEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel queue entry: %w", err)
	}
	if !cancelled {
		// 조건부 업데이트 경합: 그 사이 사이클이 엔트리를 전환시켰다
		current, findErr := s.queueStore.FindByID(ctx, entryID)
		if findErr == nil && current != nil {
			return nil, fmt.Errorf("%w: cannot cancel entry in status %s", ErrInvalidStateTransition, current.Status)
		}
		return nil, fmt.Errorf("%w: entry is no longer waiting", ErrInvalidStateTransition)
	}

	entry.Status = models.QueueStatusCancelled

	s.recordAudit(ctx, userID, models.AuditQueueCancelled, entryID, nil)

	s.logger.Info("Queue entry cancelled",
		zap.String("userId", userID),
		zap.String("entryId", entryID))

	return entry, nil
}

// GetQueueStatus 사용자의 최신 큐 엔트리 조회 (상태 무관). 없으면 ErrNotFound.
func (s *QueueService) GetQueueStatus(ctx context.Context, userID string) (*models.QueueEntry, error) {
	entry, err := s.queueStore.FindLatestByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find queue entry: %w", err)
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	return entry, nil
}

// CleanupExpiredEntries availableTo가 지난 waiting 엔트리를 expired로 전환.
// 멱등: 이미 전환된 엔트리는 건드리지 않는다.
func (s *QueueService) CleanupExpiredEntries(ctx context.Context) (int64, error) {
	count, err := s.queueStore.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire overdue entries: %w", err)
	}

	if count > 0 {
		s.recordAudit(ctx, "system", models.AuditQueueExpired, "", map[string]interface{}{"count": count})
		s.logger.Info("Expired overdue queue entries", zap.Int64("count", count))
	}

	return count, nil
}

func (s *QueueService) recordAudit(ctx context.Context, actorID, action, subjectID string, detail interface{}) {
	if s.auditStore == nil {
		return
	}
	if err := s.auditStore.Record(ctx, actorID, action, subjectID, detail); err != nil {
		s.logger.Error("Failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}
