package gemini

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPoll(t *testing.T) {
	t.Run("finishes", func(t *testing.T) {
		calls := 0
		err := poll(context.Background(), time.Millisecond, 5, func(context.Context) (bool, error) {
			calls++
			return calls == 3, nil
		})
		if err != nil || calls != 3 {
			t.Errorf("expected success after 3 calls, got %d calls, err %v", calls, err)
		}
	})

	t.Run("attempt budget", func(t *testing.T) {
		calls := 0
		err := poll(context.Background(), time.Millisecond, 4, func(context.Context) (bool, error) {
			calls++
			return false, nil
		})
		if !errors.Is(err, ErrVideoTimeout) || calls != 4 {
			t.Errorf("expected timeout after 4 calls, got %d calls, err %v", calls, err)
		}
	})

	t.Run("check error stops", func(t *testing.T) {
		boom := errors.New("boom")
		err := poll(context.Background(), time.Millisecond, 5, func(context.Context) (bool, error) {
			return false, boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := poll(ctx, time.Hour, 36, func(context.Context) (bool, error) {
			t.Error("check must not run after cancellation")
			return false, nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
