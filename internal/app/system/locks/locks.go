// internal/app/system/locks/locks.go
package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Acquisition policy for all saga locks: bounded retry, then give up.
const (
	lockTries      = 5
	lockRetryDelay = 300 * time.Millisecond
	lockExpiry     = 30 * time.Second
)

// UserKey is the lock key serializing add/remove operations on one user.
func UserKey(username string) string {
	return "user:" + username
}

// CustomerScopeKey is the lock key serializing customer creation for one
// (organization, email-domain) scope.
func CustomerScopeKey(org, domain string) string {
	return "stripe:" + org + "#" + domain
}

// Service hands out Redis-backed distributed mutexes.
type Service struct {
	rs  *redsync.Redsync
	log *zap.Logger
}

// New creates a lock Service backed by the given Redis client.
func New(client redis.UniversalClient, logger *zap.Logger) *Service {
	pool := goredis.NewPool(client)
	return &Service{
		rs:  redsync.New(pool),
		log: logger,
	}
}

// WithLock runs fn while holding the mutex for key. The lock is released on
// every exit path, including panics in fn and fn returning an error. A
// release failure is logged but does not replace fn's result; the lock
// expires on its own after lockExpiry.
func (s *Service) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	m := s.rs.NewMutex("lock:"+key,
		redsync.WithTries(lockTries),
		redsync.WithRetryDelay(lockRetryDelay),
		redsync.WithExpiry(lockExpiry),
	)

	if err := m.LockContext(ctx); err != nil {
		return fmt.Errorf("acquire lock %q: %w", key, err)
	}
	defer func() {
		if _, err := m.UnlockContext(ctx); err != nil {
			s.log.Warn("lock release failed; relying on expiry",
				zap.String("key", key), zap.Error(err))
		}
	}()

	return fn(ctx)
}
