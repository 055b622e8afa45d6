package vulkan

import (
	"errors"
	"testing"
)

func TestRetireTableRunsOnlyTheRetiredSlot(t *testing.T) {
	rt := NewRetireTable(2)
	var released []string
	rt.Defer(0, func() error { released = append(released, "a"); return nil })
	rt.Defer(1, func() error { released = append(released, "b"); return nil })
	rt.Defer(0, func() error { released = append(released, "c"); return nil })

	if err := rt.Retire(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(released) != 2 || released[0] != "a" || released[1] != "c" {
		t.Fatalf("unexpected release order %v", released)
	}
	if rt.Pending(0) != 0 || rt.Pending(1) != 1 {
		t.Errorf("unexpected pending counts %d %d", rt.Pending(0), rt.Pending(1))
	}
}

func TestRetireTableDeferAllWaitsForEverySlot(t *testing.T) {
	rt := NewRetireTable(2)
	calls := 0
	rt.DeferAll(func() error { calls++; return nil })

	_ = rt.Retire(1)
	if calls != 0 {
		t.Fatalf("released before every slot retired")
	}
	_ = rt.Retire(0)
	if calls != 1 {
		t.Fatalf("expected exactly one release, got %d", calls)
	}
}

func TestRetireTableFlushJoinsErrors(t *testing.T) {
	rt := NewRetireTable(2)
	errA := errors.New("a")
	errB := errors.New("b")
	rt.Defer(0, func() error { return errA })
	rt.Defer(1, func() error { return errB })

	err := rt.Flush()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both errors, got %v", err)
	}
	if rt.Pending(0)+rt.Pending(1) != 0 {
		t.Errorf("flush should empty the table")
	}
}
