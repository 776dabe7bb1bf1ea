package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"procedure-scheduler/internal/domain/entity"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrSlotLocked is returned when another request is writing the same slot
var ErrSlotLocked = errors.New("slot is being scheduled by another request")

// releaseLockScript deletes the lock only if it still holds our token, so an
// expired lock taken over by another instance is never released by us.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

const (
	// Redis key prefix for slot locks
	RedisSlotLockKeyPrefix = "slot:lock:"

	// Timeout for releasing a lock
	redisUnlockTimeout = 2 * time.Second

	// Interval for cleaning up stale mutexes
	mutexCleanupInterval = 10 * time.Minute

	// How long a mutex must be unused before cleanup
	mutexStaleThreshold = 10 * time.Minute
)

// SlotLocker serializes writers of a single (day, hour, room) slot.
// Lock fails fast with ErrSlotLocked instead of waiting.
type SlotLocker interface {
	Lock(ctx context.Context, slot entity.Slot) (unlock func(), err error)
	Stop()
}

// SlotLockKey is the lock key of a slot, e.g. "slot:lock:2024-06-03-9:tomografia"
func SlotLockKey(slot entity.Slot) string {
	return fmt.Sprintf("%s%s:%s", RedisSlotLockKeyPrefix, slot.Time(), slot.Room)
}

// =============================================================================
// Redis
// =============================================================================

// RedisSlotLocker locks slots across instances with SET NX PX.
type RedisSlotLocker struct {
	redisClient *redis.Client
	ttl         time.Duration
	log         *logrus.Logger
}

func NewRedisSlotLocker(redisClient *redis.Client, ttl time.Duration, log *logrus.Logger) *RedisSlotLocker {
	return &RedisSlotLocker{
		redisClient: redisClient,
		ttl:         ttl,
		log:         log,
	}
}

func (l *RedisSlotLocker) Lock(ctx context.Context, slot entity.Slot) (func(), error) {
	key := SlotLockKey(slot)
	token, err := newLockToken()
	if err != nil {
		return nil, err
	}

	ok, err := l.redisClient.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		l.log.Warnf("Failed to acquire slot lock %s: %+v", key, err)
		return nil, fmt.Errorf("acquire slot lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrSlotLocked
	}

	unlock := func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), redisUnlockTimeout)
		defer cancel()
		if err := releaseLockScript.Run(unlockCtx, l.redisClient, []string{key}, token).Err(); err != nil {
			l.log.Warnf("Failed to release slot lock %s: %+v", key, err)
		}
	}

	l.log.Debugf("Acquired slot lock %s", key)
	return unlock, nil
}

// Stop is a no-op; the Redis client is closed by its owner
func (l *RedisSlotLocker) Stop() {}

func newLockToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// =============================================================================
// In-process
// =============================================================================

// LocalSlotLocker locks slots within one process using per-slot mutexes.
//
// Starts background goroutine for mutex cleanup.
// Call Stop() during graceful shutdown.
type LocalSlotLocker struct {
	log *logrus.Logger

	// Per-slot mutex
	slotMu sync.Map // map[string]*mutexWithTimestamp

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// mutexWithTimestamp tracks mutex usage for cleanup
type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
}

func NewLocalSlotLocker(log *logrus.Logger) *LocalSlotLocker {
	l := &LocalSlotLocker{
		log:      log,
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupMutexMapLoop()

	return l
}

func (l *LocalSlotLocker) Lock(ctx context.Context, slot entity.Slot) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mt := l.getSlotMutex(SlotLockKey(slot))
	if !mt.mu.TryLock() {
		return nil, ErrSlotLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			mt.lastUsed.Store(time.Now().Unix())
			mt.mu.Unlock()
		})
	}, nil
}

// Stop gracefully shuts down the cleanup goroutine.
// Safe to call multiple times.
func (l *LocalSlotLocker) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stopChan)
		l.wg.Wait()
		l.log.Info("LocalSlotLocker stopped")
	}
}

// getSlotMutex returns mutex for a specific slot key
func (l *LocalSlotLocker) getSlotMutex(key string) *mutexWithTimestamp {
	mt, _ := l.slotMu.LoadOrStore(key, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

// cleanupMutexMapLoop runs in background to clean stale mutexes
func (l *LocalSlotLocker) cleanupMutexMapLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			l.log.Debug("Mutex cleanup goroutine stopping")
			return
		case <-ticker.C:
			l.cleanupStaleMutexes(time.Now().Add(-mutexStaleThreshold))
		}
	}
}

// cleanupStaleMutexes removes mutexes unused since cutoff. TryLock skips the
// ones currently held; lastUsed is checked under the lock.
func (l *LocalSlotLocker) cleanupStaleMutexes(cutoff time.Time) int {
	var cleaned int

	l.slotMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}

		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoff.Unix() {
				l.slotMu.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		l.log.Debugf("Cleaned up %d stale mutexes", cleaned)
	}
	return cleaned
}
