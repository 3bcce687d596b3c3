package dedup

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSeen(t *testing.T) {
	d, err := New(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("first sight then replay", func(t *testing.T) {
		if d.Seen("evt-1") {
			t.Fatalf("first call must report not seen")
		}
		for i := 0; i < 3; i++ {
			if !d.Seen("evt-1") {
				t.Fatalf("replay %d must report seen", i)
			}
		}
	})

	t.Run("empty id is never recorded", func(t *testing.T) {
		before := d.Len()
		if d.Seen("") || d.Seen("") {
			t.Errorf("empty id must always report not seen")
		}
		if d.Len() != before {
			t.Errorf("empty id must not be stored")
		}
	})
}

func TestSeenEvictsOldestInsertion(t *testing.T) {
	d, _ := New(3)
	for _, id := range []string{"a", "b", "c"} {
		d.Seen(id)
	}
	// Replays must not refresh "a".
	d.Seen("a")
	d.Seen("d")

	if d.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", d.Len())
	}
	if d.Seen("a") {
		t.Errorf("oldest insertion must be forgotten")
	}
}

func TestSeenDefaultCapacity(t *testing.T) {
	d, _ := New(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		d.Seen(fmt.Sprintf("evt-%d", i))
	}
	if d.Len() != DefaultCapacity {
		t.Errorf("expected %d entries, got %d", DefaultCapacity, d.Len())
	}
}

func TestSeenConcurrent(t *testing.T) {
	d, _ := New(100)
	var firsts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !d.Seen("same-event") {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	if firsts.Load() != 1 {
		t.Errorf("exactly one caller must see the event first, got %d", firsts.Load())
	}
}
