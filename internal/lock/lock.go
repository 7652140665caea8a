// Package lock serializes sagas per account with a Redis lease. The
// lease keeps two concurrent creations on the same account from reading
// the same movement counter and losing an increment.
package lock

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/apperr"
)

const lockKeyPrefix = "saga:lock:"

// AccountLocker acquires short-lived per-account leases.
type AccountLocker struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewAccountLocker(client *goredis.Client, ttl time.Duration) *AccountLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &AccountLocker{client: client, ttl: ttl}
}

// Acquire takes the lease for an account. Returns ErrAccountBusy when
// another saga holds it. The returned release func is safe to call once
// the saga finishes, in any terminal state; the holder token guards
// against releasing a lease that has already expired and been re-taken.
func (l *AccountLocker) Acquire(ctx context.Context, accountNumber string) (func(), error) {
	key := lockKeyPrefix + accountNumber
	token := fmt.Sprintf("%d", time.Now().UnixNano())

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire account lock: %w", err)
	}
	if !ok {
		return nil, apperr.ErrAccountBusy
	}

	release := func() {
		// Delete only if we still hold the lease.
		const script = `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			end
			return 0
		`
		l.client.Eval(context.Background(), script, []string{key}, token)
	}
	return release, nil
}
