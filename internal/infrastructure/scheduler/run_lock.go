package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/erp/woosync/internal/domain/woosync"
)

const runLockKeyPrefix = "woosync:run:"

// ReleaseFunc releases a held run lock
type ReleaseFunc func(ctx context.Context) error

// RunLock grants exclusive runs per configuration.
// Acquire fails with woosync.ErrRunInProgress when the configuration is already held.
type RunLock interface {
	Acquire(ctx context.Context, configID uuid.UUID) (ReleaseFunc, error)
}

// MemoryRunLock is a process-local RunLock
type MemoryRunLock struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

// NewMemoryRunLock creates an in-process run lock
func NewMemoryRunLock() *MemoryRunLock {
	return &MemoryRunLock{held: make(map[uuid.UUID]struct{})}
}

// Acquire implements RunLock
func (l *MemoryRunLock) Acquire(_ context.Context, configID uuid.UUID) (ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[configID]; ok {
		return nil, woosync.ErrRunInProgress
	}
	l.held[configID] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, configID)
			l.mu.Unlock()
		})
		return nil
	}, nil
}

// RedisRunLockConfig holds the Redis lock timings
type RedisRunLockConfig struct {
	// TTL is the lock lifetime; a crashed holder frees the configuration after TTL
	TTL time.Duration
	// RefreshInterval is how often a held lock is extended; it must be shorter than TTL
	RefreshInterval time.Duration
}

// RedisRunLock is a RunLock shared by every process using the same Redis
type RedisRunLock struct {
	locker *redislock.Client
	config RedisRunLockConfig
	logger *zap.Logger
}

// NewRedisRunLock creates a Redis-backed run lock
func NewRedisRunLock(client redis.UniversalClient, config RedisRunLockConfig, logger *zap.Logger) (*RedisRunLock, error) {
	if config.TTL <= 0 || config.RefreshInterval <= 0 || config.RefreshInterval >= config.TTL {
		return nil, fmt.Errorf("%w: lock refresh interval must be positive and shorter than the ttl", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRunLock{
		locker: redislock.New(client),
		config: config,
		logger: logger,
	}, nil
}

// Acquire implements RunLock. The lock is refreshed in the background until released.
func (l *RedisRunLock) Acquire(ctx context.Context, configID uuid.UUID) (ReleaseFunc, error) {
	key := runLockKeyPrefix + configID.String()
	lock, err := l.locker.Obtain(ctx, key, l.config.TTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, woosync.ErrRunInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("obtain run lock %s: %w", key, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(lock, key, stop, done)

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			close(stop)
			<-done
			err = lock.Release(ctx)
			if errors.Is(err, redislock.ErrLockNotHeld) {
				err = nil
			}
		})
		return err
	}, nil
}

func (l *RedisRunLock) keepAlive(lock *redislock.Lock, key string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.config.RefreshInterval)
			err := lock.Refresh(ctx, l.config.TTL, nil)
			cancel()
			if err != nil {
				l.logger.Warn("Failed to refresh run lock", zap.String("key", key), zap.Error(err))
			}
		}
	}
}
