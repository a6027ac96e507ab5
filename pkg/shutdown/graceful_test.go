package shutdown_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"notetaker/pkg/shutdown"
)

func TestWait_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	hook := func(context.Context) error {
		calls.Add(1)
		return nil
	}

	done := make(chan struct{})
	go func() {
		shutdown.Wait(ctx, time.Second, hook, hook)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after context cancel")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestRun(t *testing.T) {
	t.Run("hook errors do not stop others", func(t *testing.T) {
		var calls atomic.Int32

		shutdown.Run(context.Background(), time.Second,
			func(context.Context) error {
				calls.Add(1)
				return errors.New("boom")
			},
			func(context.Context) error {
				calls.Add(1)
				return nil
			},
		)

		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("slow hook is abandoned after timeout", func(t *testing.T) {
		start := time.Now()

		shutdown.Run(context.Background(), 50*time.Millisecond,
			func(ctx context.Context) error {
				select {
				case <-ctx.Done():
				case <-time.After(5 * time.Second):
				}
				time.Sleep(time.Second)
				return nil
			},
		)

		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("hooks receive live context", func(t *testing.T) {
		var seenErr error
		shutdown.Run(context.Background(), time.Second, func(ctx context.Context) error {
			seenErr = ctx.Err()
			return nil
		})

		assert.NoError(t, seenErr)
	})
}
