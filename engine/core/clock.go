package core

import "time"

type Clock struct {
	startTime time.Time
	elapsed   time.Duration
	now       func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if !c.startTime.IsZero() {
		c.elapsed = c.now().Sub(c.startTime)
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.now()
	c.elapsed = 0
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.startTime = time.Time{}
}

// Elapsed returns the seconds between Start and the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed.Seconds()
}

// FrameLimiter decides whether enough time has passed since the previous frame began.
type FrameLimiter struct {
	interval  time.Duration
	lastFrame time.Time
	now       func() time.Time
}

func NewFrameLimiter(maxFramerate int) *FrameLimiter {
	fl := &FrameLimiter{now: time.Now}
	if maxFramerate > 0 {
		fl.interval = time.Second / time.Duration(maxFramerate)
	}
	fl.lastFrame = fl.now()
	return fl
}

// Ready reports whether a new frame may begin and, if so, the seconds since the previous one.
func (fl *FrameLimiter) Ready() (bool, float64) {
	now := fl.now()
	passed := now.Sub(fl.lastFrame)
	if passed < fl.interval {
		return false, 0
	}
	return true, passed.Seconds()
}

// Mark records the start of a frame.
func (fl *FrameLimiter) Mark() {
	fl.lastFrame = fl.now()
}
