package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// WaitForRedis pings client until it answers, retrying up to maxRetries times
// with exponentially growing delays.
func WaitForRedis(ctx context.Context, client *redis.Client, maxRetries uint64) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 100 * time.Millisecond
	bctx := backoff.WithContext(backoff.WithMaxRetries(eb, maxRetries), ctx)

	err := backoff.Retry(func() error {
		return client.Ping(bctx.Context()).Err()
	}, bctx)
	if err != nil {
		return fmt.Errorf("redis at %v is unreachable: %w", client.Options().Addr, err)
	}
	return nil
}
