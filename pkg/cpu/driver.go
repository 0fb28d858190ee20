package cpu

import (
	"time"

	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/disasm"
)

const (
	DefaultInstructionsPerSecond = 700

	// maxCatchUp bounds how much wall-clock time one Advance call replays
	// after the host stalled (debugger, window drag, suspended terminal).
	maxCatchUp = time.Second
)

// Driver paces a CPU at a fixed instruction rate from externally measured
// elapsed time. Each executed instruction accounts for exactly one
// instruction period of timer decay.
type Driver struct {
	cpu    *CPU
	logger *log.Logger

	period  time.Duration
	pending time.Duration
	trace   bool
	cycles  uint64
}

// NewDriver returns a driver running c at instructionsPerSecond. A
// non-positive rate falls back to DefaultInstructionsPerSecond and rates
// above MaxRate are clamped.
func NewDriver(c *CPU, instructionsPerSecond int, logger *log.Logger) *Driver {
	if instructionsPerSecond <= 0 {
		instructionsPerSecond = DefaultInstructionsPerSecond
	}
	instructionsPerSecond = min(instructionsPerSecond, MaxRate)
	if logger == nil {
		logger = log.NewWithConfig(log.DefaultConfig())
	}
	return &Driver{
		cpu:    c,
		logger: logger,
		period: time.Second / time.Duration(instructionsPerSecond),
	}
}

// SetTrace enables logging of every executed instruction at debug level.
func (d *Driver) SetTrace(enabled bool) {
	d.trace = enabled
}

func (d *Driver) Period() time.Duration {
	return d.period
}

// Reset drops pending time and the instruction count, for use after the
// CPU itself was reset.
func (d *Driver) Reset() {
	d.pending = 0
	d.cycles = 0
}

// Cycles returns the number of instructions executed so far.
func (d *Driver) Cycles() uint64 {
	return d.cycles
}

// Advance accounts elapsed wall-clock time and runs one cycle for every
// whole instruction period accumulated, with key held throughout. The
// remainder carries over to the next call. It stops early when the machine
// halts or an instruction fails.
func (d *Driver) Advance(elapsed time.Duration, key Key) (State, error) {
	if d.cpu.Halted {
		return Halted, nil
	}

	d.pending += elapsed
	if d.pending > maxCatchUp {
		d.logger.Debug("Dropping cycles after stall",
			log.String("behind", d.pending.String()))
		d.pending = maxCatchUp
	}

	state := d.cpu.State()
	for d.pending >= d.period {
		d.pending -= d.period

		var err error
		state, err = d.step(key)
		if err != nil {
			d.pending = 0
			return state, err
		}
		if state == Halted {
			d.pending = 0
			d.logger.Debug("Program halted",
				log.Hex("pc", d.cpu.PC),
				log.Int("cycles", int(d.cycles)))
			break
		}
	}
	return state, nil
}

func (d *Driver) step(key Key) (State, error) {
	pc := d.cpu.PC
	if d.trace && int(pc)+1 < MemorySize {
		word := uint16(d.cpu.Memory[pc])<<8 | uint16(d.cpu.Memory[pc+1])
		d.logger.Debug("Step",
			log.Hex("pc", pc),
			log.Hex("opcode", word),
			log.String("instruction", disasm.Format(word)))
	}

	state, err := d.cpu.Cycle(d.period, key)
	if err != nil {
		return state, err
	}
	if state != Halted {
		d.cycles++
	}
	return state, nil
}
