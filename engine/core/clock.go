package core

import "time"

// Clock measures wall-clock time in seconds since it was started.
type Clock struct {
	now       func() time.Time
	startTime time.Time
	running   bool
	elapsed   float64
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockWithSource builds a clock reading time from the given source.
func NewClockWithSource(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.running {
		c.elapsed = c.now().Sub(c.startTime).Seconds()
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.now()
	c.running = true
	c.elapsed = 0
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

// Elapsed returns the seconds between Start and the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}

// DeltaTimer reports the time between consecutive calls. The first call reports zero.
type DeltaTimer struct {
	now  func() time.Time
	last time.Time
	set  bool
}

func NewDeltaTimer(now func() time.Time) *DeltaTimer {
	if now == nil {
		now = time.Now
	}
	return &DeltaTimer{now: now}
}

// Tick returns the seconds elapsed since the previous Tick.
func (d *DeltaTimer) Tick() float32 {
	t := d.now()
	if !d.set {
		d.last = t
		d.set = true
		return 0
	}
	dt := t.Sub(d.last).Seconds()
	d.last = t
	return float32(dt)
}
