package httpx_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shivanshkc/dagbench/pkg/httpx"
)

// TestRetry verifies the attempt accounting and the context-aware delay of Retry.
func TestRetry(t *testing.T) {
	type testCase struct {
		name         string
		maxAttempts  int
		delay        time.Duration
		failures     int // number of leading attempts that fail
		ctx          context.Context
		wantErr      string
		wantAttempts int
	}

	testCases := []testCase{
		{
			name:         "Success on First Attempt",
			maxAttempts:  3,
			delay:        10 * time.Millisecond,
			ctx:          context.Background(),
			wantAttempts: 1,
		},
		{
			name:         "Success on Second Attempt",
			maxAttempts:  3,
			delay:        10 * time.Millisecond,
			failures:     1,
			ctx:          context.Background(),
			wantAttempts: 2,
		},
		{
			name:         "Failure After All Attempts",
			maxAttempts:  3,
			delay:        10 * time.Millisecond,
			failures:     5,
			ctx:          context.Background(),
			wantErr:      "all 3 attempts failed",
			wantAttempts: 3,
		},
		{
			name:         "Zero Attempts Means One",
			maxAttempts:  0,
			failures:     5,
			ctx:          context.Background(),
			wantErr:      "all 1 attempts failed",
			wantAttempts: 1,
		},
		{
			name:        "Context Canceled During Delay",
			maxAttempts: 3,
			delay:       100 * time.Millisecond,
			failures:    5,
			ctx: func() context.Context {
				ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
				_ = cancel
				return ctx
			}(),
			wantErr:      "context deadline exceeded",
			wantAttempts: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			attempts := 0
			err := httpx.Retry(tc.ctx, tc.maxAttempts, tc.delay, func(context.Context) error {
				attempts++
				if attempts <= tc.failures {
					return errors.New("connection refused")
				}
				return nil
			})

			assert.Equal(t, tc.wantAttempts, attempts)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
