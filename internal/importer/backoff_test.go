package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsEventually(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	attempts := 0
	err := p.Retry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("contended")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryFailsAfterMaxAttempts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	attempts := 0
	err := p.Retry(context.Background(), func() error {
		attempts++
		return errors.New("contended")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryRespectsCancelledContext(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Retry(ctx, func() error { return errors.New("contended") })
	assert.ErrorIs(t, err, context.Canceled)
}
