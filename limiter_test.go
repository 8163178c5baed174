package client_rate_limiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tt := []struct {
		desc    string
		cfg     Config
		wantErr error
	}{
		{
			desc: "valid leaky bucket",
			cfg:  Config{Algorithm: LeakyBucket, Interval: time.Second, Limit: 10},
		},
		{
			desc: "valid fixed window",
			cfg:  Config{Algorithm: FixedWindow, Interval: time.Minute, Limit: 5},
		},
		{
			desc:    "empty algorithm",
			cfg:     Config{Interval: time.Minute, Limit: 5},
			wantErr: ErrInvalidAlgorithm,
		},
		{
			desc:    "negative interval",
			cfg:     Config{Algorithm: SlidingWindow, Interval: -time.Second, Limit: 5},
			wantErr: ErrInvalidInterval,
		},
		{
			desc:    "zero limit",
			cfg:     Config{Algorithm: TokenBucket, Interval: time.Second},
			wantErr: ErrInvalidLimit,
		},
	}

	for _, ts := range tt {
		t.Run(ts.desc, func(t *testing.T) {
			err := ts.cfg.Validate()
			if ts.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ts.wantErr)
		})
	}
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "reject", Reject.String())
	assert.Equal(t, "decision(7)", Decision(7).String())
}
