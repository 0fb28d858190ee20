// Package config holds the front-end options shared by the command line tools.
package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/cpu"
)

const (
	DefaultScale = 10
	maxScale     = 40
)

// Options contains the settings a front end needs to run a program.
type Options struct {
	ROM string

	InstructionsPerSecond int
	LoadOffset            uint
	DelayRate             int
	SoundRate             int

	Scale int
	Trace bool
	Debug bool
	Quiet bool
}

func Default() Options {
	cfg := cpu.DefaultConfig()
	return Options{
		InstructionsPerSecond: cpu.DefaultInstructionsPerSecond,
		LoadOffset:            uint(cfg.LoadOffset),
		DelayRate:             cfg.DelayRate,
		SoundRate:             cfg.SoundRate,
		Scale:                 DefaultScale,
	}
}

// RegisterFlags binds the options to flags of fs, using the current field
// values as defaults.
func (o *Options) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.ROM, "rom", o.ROM, "program image to run")
	fs.IntVar(&o.InstructionsPerSecond, "ips", o.InstructionsPerSecond, "instructions executed per second")
	fs.UintVar(&o.LoadOffset, "offset", o.LoadOffset, "memory address the program is loaded at")
	fs.IntVar(&o.DelayRate, "delay-rate", o.DelayRate, "delay timer decrements per second")
	fs.IntVar(&o.SoundRate, "sound-rate", o.SoundRate, "sound timer decrements per second")
	fs.IntVar(&o.Scale, "scale", o.Scale, "window pixels per display pixel")
	fs.BoolVar(&o.Trace, "trace", o.Trace, "log every executed instruction (implies -debug)")
	fs.BoolVar(&o.Debug, "debug", o.Debug, "enable debug logging")
	fs.BoolVar(&o.Quiet, "q", o.Quiet, "only log errors")
}

// Validate checks the options and the engine configuration derived from them.
func (o Options) Validate() error {
	if o.InstructionsPerSecond <= 0 || o.InstructionsPerSecond > cpu.MaxRate {
		return fmt.Errorf("instructions per second must be between 1 and %d, got %d",
			cpu.MaxRate, o.InstructionsPerSecond)
	}
	if o.Scale < 1 || o.Scale > maxScale {
		return fmt.Errorf("scale must be between 1 and %d, got %d", maxScale, o.Scale)
	}
	if o.LoadOffset >= cpu.MemorySize {
		return fmt.Errorf("%w: load offset $%X outside memory", cpu.ErrInvalidConfig, o.LoadOffset)
	}
	if o.Debug && o.Quiet {
		return errors.New("debug and quiet are mutually exclusive")
	}
	return o.CPUConfig().Validate()
}

// CPUConfig returns the engine configuration.
func (o Options) CPUConfig() cpu.Config {
	return cpu.Config{
		LoadOffset: uint16(o.LoadOffset),
		DelayRate:  o.DelayRate,
		SoundRate:  o.SoundRate,
	}
}

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// Logger creates the logger for these options.
func (o Options) Logger() *log.Logger {
	return CreateLogger(o.Debug || o.Trace, o.Quiet)
}
