package cpu

import (
	"errors"
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func TestDriverPacesInstructions(t *testing.T) {
	c := newTestCPU(t, 0x1200) // jump to self
	d := NewDriver(c, 1000, log.NewTestLogger(t))
	assert.Equal(t, time.Millisecond, d.Period())

	state, err := d.Advance(10*time.Millisecond, NoKey)
	assert.NoError(t, err)
	assert.Equal(t, Running, state)
	assert.Equal(t, uint64(10), d.Cycles())

	_, err = d.Advance(500*time.Microsecond, NoKey)
	assert.NoError(t, err)
	assert.Equal(t, uint64(10), d.Cycles())

	_, err = d.Advance(500*time.Microsecond, NoKey)
	assert.NoError(t, err)
	assert.Equal(t, uint64(11), d.Cycles())
}

func TestDriverCatchUpLimit(t *testing.T) {
	c := newTestCPU(t, 0x1200)
	d := NewDriver(c, 1000, log.NewTestLogger(t))

	_, err := d.Advance(5*time.Second, NoKey)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1000), d.Cycles())
}

func TestDriverDefaultRate(t *testing.T) {
	c := newTestCPU(t, 0x1200)
	d := NewDriver(c, 0, nil)
	assert.Equal(t, time.Second/DefaultInstructionsPerSecond, d.Period())
}

func TestDriverClampsRate(t *testing.T) {
	c := newTestCPU(t, 0x1200)
	d := NewDriver(c, 2_000_000_000, log.NewTestLogger(t))
	assert.Equal(t, time.Nanosecond, d.Period())

	_, err := d.Advance(time.Microsecond, NoKey)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1000), d.Cycles())
}

func TestDriverReset(t *testing.T) {
	c := newTestCPU(t, 0x1200)
	d := NewDriver(c, 1000, log.NewTestLogger(t))

	_, err := d.Advance(5*time.Millisecond+500*time.Microsecond, NoKey)
	assert.NoError(t, err)
	assert.Equal(t, uint64(5), d.Cycles())

	c.Reset()
	d.Reset()
	assert.Equal(t, uint64(0), d.Cycles())

	// the half period left before the reset is gone
	_, err = d.Advance(500*time.Microsecond, NoKey)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), d.Cycles())
}

func TestDriverStopsOnHalt(t *testing.T) {
	c := newTestCPU(t, 0x00E0)
	d := NewDriver(c, 1000, log.NewTestLogger(t))

	state, err := d.Advance(10*time.Millisecond, NoKey)
	assert.NoError(t, err)
	assert.Equal(t, Halted, state)
	assert.Equal(t, uint64(1), d.Cycles())

	state, err = d.Advance(10*time.Millisecond, NoKey)
	assert.NoError(t, err)
	assert.Equal(t, Halted, state)
	assert.Equal(t, uint64(1), d.Cycles())
}

func TestDriverReportsFault(t *testing.T) {
	c := newTestCPU(t, 0x6001, 0x00EE, 0x6002)
	d := NewDriver(c, 1000, log.NewTestLogger(t))
	d.SetTrace(true)

	state, err := d.Advance(10*time.Millisecond, NoKey)
	assert.True(t, errors.Is(err, ErrEmptyStack))
	assert.Equal(t, Halted, state)
	assert.Equal(t, uint64(1), d.Cycles())
	assert.Equal(t, uint8(1), c.V[0])
}

func TestDriverTimersFollowInstructionTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DelayRate = 50
	c, err := NewCPU(cfg)
	assert.NoError(t, err)
	assert.NoError(t, c.LoadProgram(encodeWords(
		0x6064, // LD V0, 100
		0xF015, // LD DT, V0
		0x1204, // JP self
	)))

	d := NewDriver(c, 1000, log.NewTestLogger(t))
	_, err = d.Advance(time.Second, NoKey)
	assert.NoError(t, err)

	// the timer is armed during the second cycle and sees 998ms
	assert.Equal(t, uint8(51), c.Delay.Get())
}

func TestDriverWaitForKey(t *testing.T) {
	c := newTestCPU(t, 0xF50A, 0x1202)
	d := NewDriver(c, 1000, log.NewTestLogger(t))

	state, err := d.Advance(5*time.Millisecond, NoKey)
	assert.NoError(t, err)
	assert.Equal(t, WaitingForKey, state)
	assert.Equal(t, uint16(0x200), c.PC)

	state, err = d.Advance(2*time.Millisecond, 0xA)
	assert.NoError(t, err)
	assert.Equal(t, Running, state)
	assert.Equal(t, uint8(0xA), c.V[5])
}
