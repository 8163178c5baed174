package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitForRedis(t *testing.T) {
	server, client := newTestRedis(t)
	ctx := context.Background()

	assert.NoError(t, WaitForRedis(ctx, client, 0))

	server.Close()
	err := WaitForRedis(ctx, client, 0)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "is unreachable")
	}
}

func TestWaitForRedis_CanceledContext(t *testing.T) {
	server, client := newTestRedis(t)
	server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, WaitForRedis(ctx, client, 5))
}
