package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/peermeet/peermeet-backend/pkg/distributed"
)

// RedisMatchEvents 커밋된 페어 이벤트를 Redis 큐로 주고받는 어댑터.
// MatchEventPublisher와 MatchEventSource를 모두 구현한다.
type RedisMatchEvents struct {
	queue *distributed.MatchEventQueue
}

// NewRedisMatchEvents 어댑터 생성
func NewRedisMatchEvents(queue *distributed.MatchEventQueue) *RedisMatchEvents {
	return &RedisMatchEvents{queue: queue}
}

// Publish 매치 성사 이벤트 발행
func (e *RedisMatchEvents) Publish(ctx context.Context, event models.MatchFormedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal match event: %w", err)
	}

	return e.queue.Enqueue(ctx, &distributed.QueueItem{
		ID:      event.MatchID,
		Payload: payload,
	})
}

// Next 다음 이벤트 조회. 큐가 비어 있으면 (nil, nil, nil).
func (e *RedisMatchEvents) Next(ctx context.Context) (*distributed.QueueItem, *models.MatchFormedEvent, error) {
	item, err := e.queue.Dequeue(ctx)
	if errors.Is(err, distributed.ErrQueueEmpty) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var event models.MatchFormedEvent
	if err := json.Unmarshal(item.Payload, &event); err != nil {
		// 해석 불가능한 이벤트는 재시도 의미가 없으므로 DLQ로 보낸다
		item.Retries = item.MaxRetries
		_ = e.queue.Fail(ctx, item)
		return nil, nil, fmt.Errorf("failed to unmarshal match event: %w", err)
	}

	return item, &event, nil
}

// Complete 이벤트 처리 완료
func (e *RedisMatchEvents) Complete(ctx context.Context, itemID string) error {
	return e.queue.Complete(ctx, itemID)
}

// Fail 이벤트 처리 실패 (재큐잉 또는 DLQ)
func (e *RedisMatchEvents) Fail(ctx context.Context, item *distributed.QueueItem) error {
	return e.queue.Fail(ctx, item)
}
