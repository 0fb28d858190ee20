package cpu

import "time"

// DefaultTimerRate is the nominal decrement rate of both timers in Hz.
const DefaultTimerRate = 60

// Timer is a countdown register that decays at a fixed real-time rate,
// independent of how fast instructions execute.
type Timer struct {
	value   uint8
	active  bool
	elapsed time.Duration // time accumulated towards the next decrement
	period  time.Duration
}

// NewTimer returns an inactive timer decrementing rate times per second.
// A non-positive rate falls back to DefaultTimerRate and rates above
// MaxRate are clamped.
func NewTimer(rate int) *Timer {
	if rate <= 0 {
		rate = DefaultTimerRate
	}
	rate = min(rate, MaxRate)
	return &Timer{period: time.Second / time.Duration(rate)}
}

// Set loads a new count. The timer only runs for a non-zero count.
func (t *Timer) Set(value uint8) {
	t.value = value
	t.active = value != 0
	if !t.active {
		t.elapsed = 0
	}
}

func (t *Timer) Get() uint8 {
	return t.value
}

func (t *Timer) Active() bool {
	return t.active
}

func (t *Timer) Period() time.Duration {
	return t.period
}

// Tick adds elapsed real time and decrements the count once for every whole
// period accumulated. Leftover time is kept for the next call. Time passed
// while the timer is inactive is not accumulated.
func (t *Timer) Tick(elapsed time.Duration) {
	if !t.active || elapsed <= 0 {
		return
	}

	t.elapsed += elapsed
	for t.active && t.elapsed >= t.period {
		t.elapsed -= t.period
		t.value--
		if t.value == 0 {
			t.active = false
			t.elapsed = 0
		}
	}
}

func (t *Timer) Reset() {
	t.value = 0
	t.active = false
	t.elapsed = 0
}
