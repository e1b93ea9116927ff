package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
)

var ErrNotObtained = errors.New("lock is held by another request")

type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out short-lived named locks.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

type redisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(client *redislock.Client) Locker {
	return &redisLocker{client: client}
}

func (l *redisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lk, err := l.client.Obtain(ctx, "lock:"+key, ttl, nil)
	if err == redislock.ErrNotObtained {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return lk, nil
}

// localLocker serializes within one process when redis is not configured.
type localLocker struct {
	mu   sync.Mutex
	held map[string]*localLock
}

func NewLocalLocker() Locker {
	return &localLocker{held: make(map[string]*localLock)}
}

func (l *localLocker) Obtain(_ context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.held[key]; ok && time.Now().Before(cur.until) {
		return nil, ErrNotObtained
	}
	lk := &localLock{owner: l, key: key, until: time.Now().Add(ttl)}
	l.held[key] = lk
	return lk, nil
}

type localLock struct {
	owner *localLocker
	key   string
	until time.Time
}

// Release is a no-op when the lock expired and was taken by someone else.
func (k *localLock) Release(context.Context) error {
	k.owner.mu.Lock()
	defer k.owner.mu.Unlock()
	if k.owner.held[k.key] == k {
		delete(k.owner.held, k.key)
	}
	return nil
}
