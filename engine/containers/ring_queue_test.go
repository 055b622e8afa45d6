package containers

import (
	"errors"
	"testing"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](2)
	if _, err := rq.Dequeue(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("Dequeue on empty queue: err = %v", err)
	}

	rq.Enqueue(1)
	rq.Enqueue(2)
	if v, _ := rq.Dequeue(); v != 1 {
		t.Fatalf("Dequeue() = %d, want 1", v)
	}
	// Wraps the write index, then forces a grow with a non-zero read index.
	rq.Enqueue(3)
	rq.Enqueue(4)
	rq.Enqueue(5)

	if rq.Cap() != 4 {
		t.Errorf("Cap() = %d, want 4", rq.Cap())
	}
	if v, _ := rq.Peek(); v != 2 {
		t.Errorf("Peek() = %d, want 2", v)
	}

	got := rq.Drain()
	want := []int{2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("Drain() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Drain() = %v, want %v", got, want)
		}
	}
	if !rq.IsEmpty() || rq.Len() != 0 {
		t.Error("queue not empty after Drain")
	}
}
