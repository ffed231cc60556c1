package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CycleEvent 사이클 실행 요청 이벤트
type CycleEvent struct {
	Type        string    `json:"type"` // "cycle_requested"
	RequestedBy string    `json:"requested_by"`
	Timestamp   time.Time `json:"timestamp"`
}

const EventCycleRequested = "cycle_requested"

// CycleCoordinator Redis Pub/Sub 기반 사이클 조정자.
// 어느 인스턴스든 온디맨드 사이클을 요청할 수 있고, 락을 잡은 인스턴스만 실행한다.
type CycleCoordinator struct {
	client     *redis.Client
	logger     *zap.Logger
	instanceID string // 인스턴스 고유 ID

	eventChannel string
	cancelSub    context.CancelFunc
}

// NewCycleCoordinator 사이클 조정자 생성
func NewCycleCoordinator(client *redis.Client, logger *zap.Logger) *CycleCoordinator {
	return &CycleCoordinator{
		client:       client,
		logger:       logger,
		instanceID:   uuid.New().String(),
		eventChannel: "matching:events",
	}
}

// InstanceID 이 인스턴스의 고유 ID
func (c *CycleCoordinator) InstanceID() string {
	return c.instanceID
}

// RequestCycle 사이클 실행 요청 발행
func (c *CycleCoordinator) RequestCycle(ctx context.Context) error {
	event := CycleEvent{
		Type:        EventCycleRequested,
		RequestedBy: c.instanceID,
		Timestamp:   time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return c.client.Publish(ctx, c.eventChannel, data).Err()
}

// Start 이벤트 수신 시작. handler는 수신 고루틴에서 호출된다.
func (c *CycleCoordinator) Start(ctx context.Context, handler func(event CycleEvent)) error {
	subCtx, cancel := context.WithCancel(ctx)
	c.cancelSub = cancel

	pubsub := c.client.Subscribe(subCtx, c.eventChannel)

	// 구독 확인
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	c.logger.Info("Cycle coordinator started",
		zap.String("instance_id", c.instanceID),
		zap.String("channel", c.eventChannel))

	go func() {
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event CycleEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					c.logger.Error("Failed to unmarshal event", zap.Error(err))
					continue
				}

				handler(event)

			case <-subCtx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop 이벤트 수신 중지
func (c *CycleCoordinator) Stop() {
	if c.cancelSub != nil {
		c.cancelSub()
	}
}
