package vulkan

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spaghettifunk/volchara/engine/core"
)

// fakeFence holds a token while signaled.
type fakeFence struct {
	token chan struct{}
}

func newFakeFence(signaled bool) *fakeFence {
	f := &fakeFence{token: make(chan struct{}, 1)}
	if signaled {
		f.Signal()
	}
	return f
}

func (f *fakeFence) Wait(timeoutNs uint64) error {
	<-f.token
	f.token <- struct{}{}
	return nil
}

func (f *fakeFence) Reset() error {
	select {
	case <-f.token:
	default:
	}
	return nil
}

func (f *fakeFence) Signal() {
	select {
	case f.token <- struct{}{}:
	default:
	}
}

type fakeTarget struct {
	mu         sync.Mutex
	recorded   []uint32
	submitted  []uint32
	recreated  int
	acquireErr error
	presentErr error
	submitErr  error
}

func (ft *fakeTarget) Acquire(slot uint32) (uint32, error) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	err := ft.acquireErr
	ft.acquireErr = nil
	return slot, err
}

func (ft *fakeTarget) Record(slot, imageIndex uint32) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.recorded = append(ft.recorded, slot)
	return nil
}

func (ft *fakeTarget) Submit(slot, imageIndex uint32) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.submitted = append(ft.submitted, slot)
	return ft.submitErr
}

func (ft *fakeTarget) Present(slot, imageIndex uint32) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	err := ft.presentErr
	ft.presentErr = nil
	return err
}

func (ft *fakeTarget) Recreate() error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.recreated++
	return nil
}

func (ft *fakeTarget) recordCount() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.recorded)
}

func newTestScheduler(target FrameTarget) (*FrameScheduler, []*fakeFence) {
	fences := []*fakeFence{newFakeFence(true), newFakeFence(true)}
	fs := NewFrameScheduler(target, []Fence{fences[0], fences[1]}, nil, nil)
	return fs, fences
}

func TestFrameSchedulerRoundRobin(t *testing.T) {
	target := &fakeTarget{}
	fs, fences := newTestScheduler(target)

	for i := 0; i < 4; i++ {
		if err := fs.Frame(nil); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		// The GPU finishes right away.
		fences[i%2].Signal()
	}
	want := []uint32{0, 1, 0, 1}
	for i, slot := range target.recorded {
		if slot != want[i] {
			t.Fatalf("expected slots %v, got %v", want, target.recorded)
		}
	}
	if fs.Presented() != 4 || fs.Slot(0).State != FRAME_STATE_IDLE {
		t.Errorf("unexpected scheduler state: presented=%d state=%s", fs.Presented(), fs.Slot(0).State)
	}
}

func TestFrameSchedulerBlocksUntilFenceSignals(t *testing.T) {
	target := &fakeTarget{}
	fs, fences := newTestScheduler(target)

	// Fill both slots; neither fence signals.
	for i := 0; i < 2; i++ {
		if err := fs.Frame(nil); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- fs.Frame(nil) }()

	select {
	case err := <-done:
		t.Fatalf("slot 0 was reused before its fence signaled (err=%v)", err)
	case <-time.After(50 * time.Millisecond):
	}
	if target.recordCount() != 2 {
		t.Fatalf("slot 0 re-recorded while in flight")
	}

	fences[0].Signal()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("frame did not resume after the fence signaled")
	}
	if target.recordCount() != 3 || target.recorded[2] != 0 {
		t.Errorf("expected slot 0 to be recorded again, got %v", target.recorded)
	}
}

func TestFrameSchedulerOutOfDateAcquireDropsFrame(t *testing.T) {
	target := &fakeTarget{acquireErr: core.ErrSwapchainOutOfDate}
	fs, _ := newTestScheduler(target)

	if err := fs.Frame(nil); err != nil {
		t.Fatalf("an out of date swapchain is not fatal: %v", err)
	}
	if target.recreated != 1 || target.recordCount() != 0 || fs.CurrentSlot() != 0 {
		t.Fatalf("expected a rebuild without recording: recreated=%d recorded=%d slot=%d",
			target.recreated, target.recordCount(), fs.CurrentSlot())
	}
	// The fence was not reset, so the retry does not deadlock.
	if err := fs.Frame(nil); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if target.recordCount() != 1 {
		t.Errorf("expected the retry to record")
	}
}

func TestFrameSchedulerResizeAndPresentFailure(t *testing.T) {
	target := &fakeTarget{presentErr: core.ErrSwapchainOutOfDate}
	fs, _ := newTestScheduler(target)

	if err := fs.Frame(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.recreated != 1 || fs.CurrentSlot() != 1 {
		t.Fatalf("a submitted frame advances the slot even if present fails")
	}

	fs.RequestResize()
	if err := fs.Frame(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.recreated != 2 || target.recordCount() != 1 {
		t.Errorf("resize should rebuild before acquiring: recreated=%d recorded=%d", target.recreated, target.recordCount())
	}
}

func TestFrameSchedulerFatalErrors(t *testing.T) {
	errLost := errors.New("lost")
	target := &fakeTarget{submitErr: errLost}
	fs, _ := newTestScheduler(target)

	if err := fs.Frame(nil); !errors.Is(err, errLost) {
		t.Fatalf("expected submit error to propagate, got %v", err)
	}

	target = &fakeTarget{acquireErr: errLost}
	fs, _ = newTestScheduler(target)
	if err := fs.Frame(nil); !errors.Is(err, errLost) {
		t.Fatalf("expected acquire error to propagate, got %v", err)
	}
}

func TestFrameSchedulerFrameCap(t *testing.T) {
	target := &fakeTarget{}
	fences := []Fence{newFakeFence(true), newFakeFence(true)}
	fs := NewFrameScheduler(target, fences, core.NewFrameLimiter(1), nil)

	called := false
	err := fs.Frame(func(float64) error { called = true; return nil })
	if !errors.Is(err, core.ErrFrameSkipped) || called {
		t.Fatalf("expected the frame to be skipped, got %v (update called: %t)", err, called)
	}
	if target.recordCount() != 0 {
		t.Errorf("a skipped frame must not record")
	}
}

func TestFrameSchedulerRetiresAfterFence(t *testing.T) {
	target := &fakeTarget{}
	fs, _ := newTestScheduler(target)
	released := false
	fs.Retire().Defer(0, func() error { released = true; return nil })

	if err := fs.Frame(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !released {
		t.Errorf("slot 0 resources should be released once its fence was waited on")
	}
}
