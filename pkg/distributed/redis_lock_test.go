package distributed

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // 테스트용 DB
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available:", err)
	}

	// 테스트 전 DB 초기화
	client.FlushDB(ctx)

	return client
}

func TestRedisLock_AcquireAndRelease(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	manager := NewRedisLockManager(client)
	ctx := context.Background()

	// Lock 획득
	lock, err := manager.AcquireLock(ctx, "test:lock", "instance1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, lock)

	// 동일한 키로 다시 Lock 획득 시도 (실패해야 함)
	lock2, err := manager.AcquireLock(ctx, "test:lock", "instance2", 5*time.Second)
	assert.Error(t, err)
	assert.Equal(t, ErrLockNotAcquired, err)
	assert.Nil(t, lock2)

	// Lock 해제
	err = lock.Release(ctx)
	assert.NoError(t, err)

	// 해제 후 다시 획득 가능
	lock3, err := manager.AcquireLock(ctx, "test:lock", "instance3", 5*time.Second)
	assert.NoError(t, err)
	assert.NotNil(t, lock3)
	defer lock3.Release(ctx)
}

func TestRedisLock_AutoExpire(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	manager := NewRedisLockManager(client)
	ctx := context.Background()

	// 1초 TTL로 Lock 획득
	lock, err := manager.AcquireLock(ctx, "test:expire", "instance1", 1*time.Second)
	require.NoError(t, err)
	require.NotNil(t, lock)

	// TTL 만료 대기
	time.Sleep(1500 * time.Millisecond)

	held, err := lock.IsHeld(ctx)
	require.NoError(t, err)
	assert.False(t, held)

	// 만료 후 다른 인스턴스가 획득 가능
	lock2, err := manager.AcquireLock(ctx, "test:expire", "instance2", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, lock2)
	defer lock2.Release(ctx)
}

func TestRedisLock_ReleaseOnlyOwnLock(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	manager := NewRedisLockManager(client)
	ctx := context.Background()

	lock, err := manager.AcquireLock(ctx, "test:owner", "instance1", 5*time.Second)
	require.NoError(t, err)

	// 다른 소유자로 만든 락 객체로는 해제할 수 없다
	impostor := &RedisLock{client: client, key: "test:owner", owner: "instance2"}
	err = impostor.Release(ctx)
	assert.Equal(t, ErrLockNotHeld, err)

	// 원래 소유자는 여전히 보유 중
	held, err := lock.IsHeld(ctx)
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, lock.Release(ctx))
}

func TestRedisLock_Extend(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	manager := NewRedisLockManager(client)
	ctx := context.Background()

	lock, err := manager.AcquireLock(ctx, "test:extend", "instance1", 1*time.Second)
	require.NoError(t, err)

	// TTL 연장
	err = lock.Extend(ctx, 5*time.Second)
	require.NoError(t, err)

	// 원래 TTL이 지나도 여전히 보유 중이어야 한다
	time.Sleep(1500 * time.Millisecond)
	held, err := lock.IsHeld(ctx)
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, lock.Release(ctx))
}

func TestRedisLock_TryLockWithRetry(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	manager := NewRedisLockManager(client)
	ctx := context.Background()

	// 짧은 TTL로 선점
	_, err := manager.AcquireLock(ctx, "test:retry", "instance1", 500*time.Millisecond)
	require.NoError(t, err)

	// 재시도로 TTL 만료 후 획득 성공
	lock, err := manager.TryLockWithRetry(ctx, "test:retry", "instance2", 5*time.Second, 5, 300*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, lock)
	defer lock.Release(ctx)
}
