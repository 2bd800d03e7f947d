package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func jobLockKey(job string) string {
	return fmt.Sprintf("lock:job:%s", job)
}

// AcquireJobLock attempts to acquire the lock for a background job.
// Returns the holder token, or "" if the lock is already held.
func (s *LockStore) AcquireJobLock(ctx context.Context, job string, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, jobLockKey(job), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	return token, nil
}

// ReleaseJobLock releases the lock for a background job if token still holds it.
// A lock that expired and was taken by another holder is left alone.
func (s *LockStore) ReleaseJobLock(ctx context.Context, job, token string) error {
	return releaseScript.Run(ctx, s.client, []string{jobLockKey(job)}, token).Err()
}
