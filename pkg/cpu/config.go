package cpu

import (
	"fmt"
	"time"
)

const (
	// DefaultLoadOffset is where programs are conventionally loaded.
	DefaultLoadOffset = 0x200
	// MinLoadOffset is the lowest supported load offset; it bounds the
	// largest program to MemorySize-MinLoadOffset bytes.
	MinLoadOffset = 0x200

	MaxProgramSize = MemorySize - MinLoadOffset

	// MaxRate is the highest rate, in events per second, that still has a
	// non-zero period.
	MaxRate = int(time.Second)
)

// Config holds the construction-time settings of the machine.
type Config struct {
	LoadOffset uint16
	DelayRate  int // delay timer decrements per second
	SoundRate  int // sound timer decrements per second
}

func DefaultConfig() Config {
	return Config{
		LoadOffset: DefaultLoadOffset,
		DelayRate:  DefaultTimerRate,
		SoundRate:  DefaultTimerRate,
	}
}

func (c Config) Validate() error {
	if c.LoadOffset < MinLoadOffset || int(c.LoadOffset) >= MemorySize {
		return fmt.Errorf("%w: load offset $%04X outside $%04X-$%04X",
			ErrInvalidConfig, c.LoadOffset, MinLoadOffset, MemorySize-1)
	}
	if c.DelayRate <= 0 || c.DelayRate > MaxRate {
		return fmt.Errorf("%w: delay timer rate %d", ErrInvalidConfig, c.DelayRate)
	}
	if c.SoundRate <= 0 || c.SoundRate > MaxRate {
		return fmt.Errorf("%w: sound timer rate %d", ErrInvalidConfig, c.SoundRate)
	}
	return nil
}
