package service

import (
	"context"
	"io"
	"testing"
	"time"

	"procedure-scheduler/internal/domain/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

var testSlot = entity.NewSlot(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), 9, "tomografia")

func TestSlotLockKey(t *testing.T) {
	assert.Equal(t, "slot:lock:2024-06-03-9:tomografia", SlotLockKey(testSlot))
}

func newRedisLocker(t *testing.T, ttl time.Duration) (*RedisSlotLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSlotLocker(client, ttl, quietLogger()), mr
}

func TestRedisSlotLocker_LockUnlock(t *testing.T) {
	locker, mr := newRedisLocker(t, 5*time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, testSlot)
	require.NoError(t, err)
	assert.True(t, mr.Exists(SlotLockKey(testSlot)))

	_, err = locker.Lock(ctx, testSlot)
	assert.ErrorIs(t, err, ErrSlotLocked)

	other := entity.NewSlot(testSlot.Day, 10, testSlot.Room)
	unlockOther, err := locker.Lock(ctx, other)
	require.NoError(t, err)
	unlockOther()

	unlock()
	assert.False(t, mr.Exists(SlotLockKey(testSlot)))

	unlock, err = locker.Lock(ctx, testSlot)
	require.NoError(t, err)
	unlock()
}

func TestRedisSlotLocker_ExpiredLockNotReleasedByOldOwner(t *testing.T) {
	locker, mr := newRedisLocker(t, time.Second)
	ctx := context.Background()

	staleUnlock, err := locker.Lock(ctx, testSlot)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	unlock, err := locker.Lock(ctx, testSlot)
	require.NoError(t, err)

	staleUnlock()
	assert.True(t, mr.Exists(SlotLockKey(testSlot)))

	unlock()
	assert.False(t, mr.Exists(SlotLockKey(testSlot)))
}

func TestRedisSlotLocker_RedisDown(t *testing.T) {
	locker, mr := newRedisLocker(t, time.Second)
	mr.Close()

	_, err := locker.Lock(context.Background(), testSlot)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotLocked)
}

func TestLocalSlotLocker(t *testing.T) {
	locker := NewLocalSlotLocker(quietLogger())
	defer locker.Stop()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, testSlot)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, testSlot)
	assert.ErrorIs(t, err, ErrSlotLocked)

	unlock()
	unlock()

	unlock, err = locker.Lock(ctx, testSlot)
	require.NoError(t, err)
	unlock()
}

func TestLocalSlotLocker_CancelledContext(t *testing.T) {
	locker := NewLocalSlotLocker(quietLogger())
	defer locker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := locker.Lock(ctx, testSlot)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalSlotLocker_CleanupSkipsHeldMutexes(t *testing.T) {
	locker := NewLocalSlotLocker(quietLogger())
	defer locker.Stop()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, testSlot)
	require.NoError(t, err)
	free, err := locker.Lock(ctx, entity.NewSlot(testSlot.Day, 11, testSlot.Room))
	require.NoError(t, err)
	free()

	cleaned := locker.cleanupStaleMutexes(time.Now().Add(time.Hour))
	assert.Equal(t, 1, cleaned)

	unlock()
	locker.Stop()
	locker.Stop()
}
