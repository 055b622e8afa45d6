package core

import (
	"testing"
	"time"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time          { return f.t }
func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestClockElapsed(t *testing.T) {
	fn := &fakeNow{t: time.Unix(100, 0)}
	c := &Clock{now: fn.now}

	c.Update()
	if c.Elapsed() != 0 {
		t.Fatalf("unstarted clock elapsed = %v, want 0", c.Elapsed())
	}

	c.Start()
	fn.advance(1500 * time.Millisecond)
	c.Update()
	if got := c.Elapsed(); got != 1.5 {
		t.Errorf("Elapsed() = %v, want 1.5", got)
	}

	c.Stop()
	fn.advance(time.Second)
	c.Update()
	if got := c.Elapsed(); got != 1.5 {
		t.Errorf("stopped clock Elapsed() = %v, want 1.5", got)
	}
}

func TestFrameLimiter(t *testing.T) {
	fn := &fakeNow{t: time.Unix(0, 0)}
	fl := &FrameLimiter{interval: time.Second / 60, now: fn.now, lastFrame: fn.t}

	fn.advance(5 * time.Millisecond)
	if ok, _ := fl.Ready(); ok {
		t.Fatal("limiter allowed a frame before the interval elapsed")
	}

	fn.advance(15 * time.Millisecond)
	ok, passed := fl.Ready()
	if !ok {
		t.Fatal("limiter blocked a frame after the interval elapsed")
	}
	if passed < 0.019 || passed > 0.021 {
		t.Errorf("passed = %v, want ~0.02", passed)
	}

	fl.Mark()
	if ok, _ := fl.Ready(); ok {
		t.Error("limiter allowed a frame right after Mark")
	}
}

func TestFrameLimiterUncapped(t *testing.T) {
	fl := NewFrameLimiter(0)
	if ok, _ := fl.Ready(); !ok {
		t.Error("uncapped limiter should always be ready")
	}
}
