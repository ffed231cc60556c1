package service

import (
	"context"
	"testing"
	"time"

	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueueService() (*QueueService, *fakeQueueStore) {
	queueStore := newFakeQueueStore()
	return NewQueueService(queueStore, &fakeAuditStore{}), queueStore
}

func validEnterRequest() *models.EnterQueueRequest {
	now := time.Now().UTC()
	return &models.EnterQueueRequest{
		AvailableFrom: now,
		AvailableTo:   now.Add(2 * time.Hour),
		Constraints: models.MatchConstraints{
			Interests: []string{"ai"},
			Roles:     []string{models.RoleMentor},
		},
	}
}

func TestQueueService_EnterQueue(t *testing.T) {
	svc, _ := newTestQueueService()

	entry, err := svc.EnterQueue(context.Background(), "user-1", validEnterRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "user-1", entry.UserID)
	assert.Equal(t, models.QueueStatusWaiting, entry.Status)
}

func TestQueueService_EnterQueue_InvalidWindow(t *testing.T) {
	svc, _ := newTestQueueService()
	now := time.Now().UTC()

	tests := []struct {
		name string
		req  *models.EnterQueueRequest
	}{
		{
			name: "End before start",
			req: &models.EnterQueueRequest{
				AvailableFrom: now.Add(2 * time.Hour),
				AvailableTo:   now,
			},
		},
		{
			name: "Zero-length window",
			req: &models.EnterQueueRequest{
				AvailableFrom: now,
				AvailableTo:   now,
			},
		},
		{
			name: "Entirely in the past",
			req: &models.EnterQueueRequest{
				AvailableFrom: now.Add(-3 * time.Hour),
				AvailableTo:   now.Add(-2 * time.Hour),
			},
		},
		{
			name: "Start in the past, end in the future",
			req: &models.EnterQueueRequest{
				AvailableFrom: now.Add(-2 * time.Hour),
				AvailableTo:   now.Add(1 * time.Hour),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.EnterQueue(context.Background(), "user-1", tt.req)
			assert.ErrorIs(t, err, ErrInvalidAvailabilityWindow)
		})
	}
}

func TestQueueService_EnterQueue_ClockSkewTolerated(t *testing.T) {
	svc, _ := newTestQueueService()
	now := time.Now().UTC()

	// 허용 오차 내의 과거 availableFrom은 클라이언트 시계 오차로 간주한다
	entry, err := svc.EnterQueue(context.Background(), "user-1", &models.EnterQueueRequest{
		AvailableFrom: now.Add(-30 * time.Second),
		AvailableTo:   now.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusWaiting, entry.Status)
}

func TestQueueService_EnterQueue_Duplicate(t *testing.T) {
	svc, _ := newTestQueueService()

	_, err := svc.EnterQueue(context.Background(), "user-1", validEnterRequest())
	require.NoError(t, err)

	// waiting 엔트리가 있는 동안 재등록은 거부
	_, err = svc.EnterQueue(context.Background(), "user-1", validEnterRequest())
	assert.ErrorIs(t, err, ErrDuplicateQueueEntry)

	// 다른 사용자는 영향 없음
	_, err = svc.EnterQueue(context.Background(), "user-2", validEnterRequest())
	assert.NoError(t, err)
}

func TestQueueService_EnterQueue_AfterCancel(t *testing.T) {
	svc, _ := newTestQueueService()

	entry, err := svc.EnterQueue(context.Background(), "user-1", validEnterRequest())
	require.NoError(t, err)

	_, err = svc.CancelQueueEntry(context.Background(), "user-1", entry.ID)
	require.NoError(t, err)

	// 취소 후에는 다시 등록할 수 있어야 한다
	_, err = svc.EnterQueue(context.Background(), "user-1", validEnterRequest())
	assert.NoError(t, err)
}

func TestQueueService_CancelQueueEntry(t *testing.T) {
	svc, _ := newTestQueueService()

	entry, err := svc.EnterQueue(context.Background(), "user-1", validEnterRequest())
	require.NoError(t, err)

	cancelled, err := svc.CancelQueueEntry(context.Background(), "user-1", entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusCancelled, cancelled.Status)

	// 이미 취소된 엔트리를 다시 취소하면 상태 전이 오류
	_, err = svc.CancelQueueEntry(context.Background(), "user-1", entry.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestQueueService_CancelQueueEntry_Forbidden(t *testing.T) {
	svc, _ := newTestQueueService()

	entry, err := svc.EnterQueue(context.Background(), "user-1", validEnterRequest())
	require.NoError(t, err)

	_, err = svc.CancelQueueEntry(context.Background(), "user-2", entry.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestQueueService_CancelQueueEntry_NotFound(t *testing.T) {
	svc, _ := newTestQueueService()

	_, err := svc.CancelQueueEntry(context.Background(), "user-1", "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueueService_GetQueueStatus(t *testing.T) {
	svc, _ := newTestQueueService()

	_, err := svc.GetQueueStatus(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	entry, err := svc.EnterQueue(context.Background(), "user-1", validEnterRequest())
	require.NoError(t, err)

	status, err := svc.GetQueueStatus(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, status.ID)
	assert.Equal(t, models.QueueStatusWaiting, status.Status)

	// 취소 후에도 최신 엔트리는 조회된다
	_, err = svc.CancelQueueEntry(context.Background(), "user-1", entry.ID)
	require.NoError(t, err)

	status, err = svc.GetQueueStatus(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusCancelled, status.Status)
}

func TestQueueService_CleanupExpiredEntries_Idempotent(t *testing.T) {
	svc, queueStore := newTestQueueService()

	now := time.Now().UTC()
	overdue := &models.QueueEntry{
		ID:            "overdue-1",
		UserID:        "user-1",
		AvailableFrom: now.Add(-3 * time.Hour),
		AvailableTo:   now.Add(-1 * time.Hour),
		Status:        models.QueueStatusWaiting,
		CreatedAt:     now.Add(-3 * time.Hour),
	}
	require.NoError(t, queueStore.Create(context.Background(), overdue))

	count, err := svc.CleanupExpiredEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// 두 번째 실행은 아무것도 전환하지 않아야 한다
	count, err = svc.CleanupExpiredEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	expired, err := queueStore.FindByID(context.Background(), "overdue-1")
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusExpired, expired.Status)
}
