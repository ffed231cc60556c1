package distributed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrQueueEmpty = errors.New("queue is empty")
)

// QueueItem 매치 이벤트 큐의 아이템
type QueueItem struct {
	ID         string          `json:"id"`
	Payload    json.RawMessage `json:"payload"`
	Retries    int             `json:"retries"`
	MaxRetries int             `json:"max_retries"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// MatchEventQueue Redis 기반 이벤트 큐. 커밋된 페어를 미팅 생성 플로우로 전달한다.
// 처리 중 아이템은 processing hash에 보관하고, 재시도 초과 시 DLQ로 이동한다.
type MatchEventQueue struct {
	client        *redis.Client
	queueKey      string // 메인 큐 (List)
	processingKey string // 처리 중 아이템 (Hash)
	dlqKey        string // Dead Letter Queue (List)
}

// NewMatchEventQueue 이벤트 큐 생성
func NewMatchEventQueue(client *redis.Client, queueName string) *MatchEventQueue {
	return &MatchEventQueue{
		client:        client,
		queueKey:      fmt.Sprintf("queue:%s", queueName),
		processingKey: fmt.Sprintf("queue:%s:processing", queueName),
		dlqKey:        fmt.Sprintf("queue:%s:dlq", queueName),
	}
}

// Enqueue 큐에 아이템 추가
func (q *MatchEventQueue) Enqueue(ctx context.Context, item *QueueItem) error {
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	if item.MaxRetries == 0 {
		item.MaxRetries = 3
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	if err := q.client.LPush(ctx, q.queueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue: %w", err)
	}

	return nil
}

// Dequeue 큐에서 아이템 하나 가져오기. 처리 중 set으로 원자적으로 이동한다.
func (q *MatchEventQueue) Dequeue(ctx context.Context) (*QueueItem, error) {
	// Lua 스크립트: Pop + Processing Hash 추가를 원자적으로
	script := redis.NewScript(`
		local item = redis.call("RPOP", KEYS[1])
		if not item then
			return nil
		end
		local decoded = cjson.decode(item)
		redis.call("HSET", KEYS[2], decoded["id"], item)
		return item
	`)

	result, err := script.Run(ctx, q.client, []string{q.queueKey, q.processingKey}).Result()
	if err == redis.Nil {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue: %w", err)
	}

	raw, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected dequeue result type %T", result)
	}

	var item QueueItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return &item, nil
}

// Complete 처리 완료된 아이템 제거
func (q *MatchEventQueue) Complete(ctx context.Context, itemID string) error {
	return q.client.HDel(ctx, q.processingKey, itemID).Err()
}

// Fail 처리 실패. 재시도 한도 내면 재큐잉, 초과 시 DLQ로 이동한다.
func (q *MatchEventQueue) Fail(ctx context.Context, item *QueueItem) error {
	if err := q.client.HDel(ctx, q.processingKey, item.ID).Err(); err != nil {
		return fmt.Errorf("failed to remove from processing: %w", err)
	}

	item.Retries++
	item.UpdatedAt = time.Now()

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	if item.Retries >= item.MaxRetries {
		// Dead Letter Queue로 이동
		return q.client.LPush(ctx, q.dlqKey, data).Err()
	}

	return q.client.LPush(ctx, q.queueKey, data).Err()
}

// Size 대기 중인 아이템 수
func (q *MatchEventQueue) Size(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueKey).Result()
}

// DLQSize Dead Letter Queue 크기
func (q *MatchEventQueue) DLQSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.dlqKey).Result()
}
