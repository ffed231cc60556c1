package distributed

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrLockNotHeld     = errors.New("lock not held")
)

// 소유자가 일치할 때만 해제/연장한다. GET과 DEL/PEXPIRE 사이의
// 경합을 피하려면 반드시 한 스크립트 안에서 비교해야 한다.
var (
	releaseScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`)

	extendScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		end
		return 0
	`)
)

// RedisLock 획득에 성공한 락 하나의 핸들.
// owner는 획득한 인스턴스의 식별자로, 다른 인스턴스가 같은 키를
// 실수로 해제하거나 연장하는 것을 막는다.
type RedisLock struct {
	client *redis.Client
	key    string
	owner  string
	ttl    time.Duration
}

// RedisLockManager 인스턴스 간 상호 배제가 필요한 작업
// (매칭 사이클 등)을 직렬화하는 분산 락 관리자.
type RedisLockManager struct {
	client *redis.Client
}

func NewRedisLockManager(client *redis.Client) *RedisLockManager {
	return &RedisLockManager{client: client}
}

// AcquireLock SET NX로 락 획득을 한 번 시도한다.
// 다른 소유자가 점유 중이면 ErrLockNotAcquired.
// TTL은 보유자가 죽었을 때의 안전망이므로 작업 시간보다 넉넉히 잡고,
// 오래 걸리는 작업은 중간에 Extend로 연장한다.
func (m *RedisLockManager) AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (*RedisLock, error) {
	acquired, err := m.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrLockNotAcquired
	}

	return &RedisLock{
		client: m.client,
		key:    key,
		owner:  owner,
		ttl:    ttl,
	}, nil
}

// TryLockWithRetry 점유 중이면 retryInterval 간격으로 최대 maxRetries번
// 재시도한다. 컨텍스트가 취소되면 즉시 중단한다.
func (m *RedisLockManager) TryLockWithRetry(
	ctx context.Context,
	key, owner string,
	ttl time.Duration,
	maxRetries int,
	retryInterval time.Duration,
) (*RedisLock, error) {
	for attempt := 0; ; attempt++ {
		lock, err := m.AcquireLock(ctx, key, owner, ttl)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}
		if attempt >= maxRetries-1 {
			return nil, ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

// Release 자신이 소유한 락만 해제한다. 이미 만료됐거나 다른 소유자가
// 재획득한 상태면 ErrLockNotHeld.
func (l *RedisLock) Release(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Int()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Extend 자신이 소유한 락의 TTL을 연장한다.
func (l *RedisLock) Extend(ctx context.Context, extension time.Duration) error {
	extended, err := extendScript.Run(ctx, l.client, []string{l.key}, l.owner, extension.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if extended == 0 {
		return ErrLockNotHeld
	}

	l.ttl = extension
	return nil
}

// IsHeld 락이 아직 자신의 소유인지 확인한다. 만료되어 키가 사라졌거나
// 다른 소유자로 바뀌었으면 false.
func (l *RedisLock) IsHeld(ctx context.Context) (bool, error) {
	current, err := l.client.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return current == l.owner, nil
}
