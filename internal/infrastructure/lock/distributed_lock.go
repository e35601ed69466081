package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrLockFailed = errors.New("failed to acquire distributed lock")

// DistributedLock is a redis SETNX lock with an expiry and an owner token.
// It only serializes well-behaved duplicate requests; the database constraints
// (unique transaction_id, conditional status update) remain the correctness
// guarantee for the ledger.
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock attempts the lock once. SET key value NX EX expiry: NX gives mutual
// exclusion, the expiry releases the lock if the holder dies.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock retries until acquired or maxRetries attempts are spent.
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock releases the lock only if the owner token still matches, via a Lua
// script so the check and delete are atomic. Without the token check a holder
// whose lock already expired would delete the next holder's lock.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// NewCandidateLock serializes ledger writes per candidate, so two concurrent
// payment submissions for the same candidate queue instead of colliding.
func NewCandidateLock(client *redis.Client, candidateID int64) *DistributedLock {
	key := fmt.Sprintf("ledger:lock:candidate:%d", candidateID)
	return NewDistributedLock(client, key, uuid.NewString(), 30*time.Second)
}

// NewCallbackLock serializes gateway callbacks per tran_id. Gateways retry
// webhooks, and the browser redirect and the IPN for the same transaction can
// land at the same time.
func NewCallbackLock(client *redis.Client, tranID string) *DistributedLock {
	key := fmt.Sprintf("ssl:lock:tran:%s", tranID)
	return NewDistributedLock(client, key, uuid.NewString(), 30*time.Second)
}
