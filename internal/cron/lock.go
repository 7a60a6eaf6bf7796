package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/doumai/doumai-backend/pkg/redis"
)

const defaultLockTTL = time.Minute

// Lock makes sure only one worker replica runs a cycle at a time.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// CycleLock holds a redislock-backed lock for the duration of one cycle.
type CycleLock struct {
	locker redis.Locker
	key    string
	ttl    time.Duration

	mu   sync.Mutex
	held redis.Lock
}

func NewCycleLock(locker redis.Locker, key string, ttl time.Duration) (*CycleLock, error) {
	if locker == nil {
		return nil, errors.New("locker required for cycle lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &CycleLock{locker: locker, key: key, ttl: ttl}, nil
}

// Acquire reports false without error when another replica holds the lock.
func (l *CycleLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held != nil {
		return false, nil
	}
	lock, err := l.locker.Obtain(ctx, l.key, l.ttl)
	if err != nil {
		if errors.Is(err, redis.ErrLockNotObtained) {
			return false, nil
		}
		return false, fmt.Errorf("obtain %s: %w", l.key, err)
	}
	l.held = lock
	return true, nil
}

func (l *CycleLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		return nil
	}
	err := l.held.Release(ctx)
	l.held = nil
	if err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
