package redis

import (
	"context"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/utils"

	"github.com/go-redis/redis/v8"
)

const lockPollInterval = 20 * time.Millisecond

// ListingLock serializes writers on a single listing across instances.
// One key per listing, taken with SET NX and released with a
// compare-and-delete script so a lock holder can only release its own
// token. The TTL bounds how long a crashed holder can block others.
type ListingLock struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewListingLock(client *redis.Client, ttl, wait time.Duration) *ListingLock {
	return &ListingLock{
		client: client,
		ttl:    ttl,
		wait:   wait,
	}
}

// Acquire takes the lock for listingID, polling for at most the
// configured wait. Returns ErrBusy when the lock stays held.
func (l *ListingLock) Acquire(ctx context.Context, listingID string) (func(), error) {
	key := fmt.Sprintf("listing_lock:%s", listingID)
	token := utils.GenerateID("lock")
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("listing %s: %w", listingID, domain.ErrBusy)
		}

		select {
		case <-time.After(lockPollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *ListingLock) release(key, token string) {
	luaScript := `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("DEL", KEYS[1])
        else
            return 0
        end
    `

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l.client.Eval(ctx, luaScript, []string{key}, token)
}
