package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDrain(t *testing.T) {
	t.Run("all waits finish", func(t *testing.T) {
		var order []int
		err := drain(context.Background(), func() { order = append(order, 1) }, func() { order = append(order, 2) })
		if err != nil {
			t.Fatalf("drain() error = %v", err)
		}
		if len(order) != 2 || order[0] != 1 || order[1] != 2 {
			t.Errorf("order = %v", order)
		}
	})

	t.Run("stuck pipeline is abandoned", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := drain(ctx, func() { <-release })
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("drain() error = %v, want deadline exceeded", err)
		}
		if time.Since(start) > time.Second {
			t.Errorf("drain did not honour the deadline")
		}
	})
}
