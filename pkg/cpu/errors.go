package cpu

import (
	"errors"
	"fmt"

	"gochip8/pkg/disasm"
)

var (
	ErrStackOverflow     = errors.New("stack overflow")
	ErrEmptyStack        = errors.New("return with empty stack")
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrAddressOutOfRange = errors.New("address out of range")
	ErrInvalidKey        = errors.New("invalid key code")

	ErrEmptyProgram    = errors.New("program is empty")
	ErrProgramTooLarge = errors.New("program too large for memory")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// Fault is returned for every condition that stops a running program.
// It records where the machine was when the condition was raised.
type Fault struct {
	PC     uint16 // address of the faulting instruction
	Opcode uint16
	Err    error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s at $%03X (%04X %s)", f.Err, f.PC, f.Opcode, disasm.Format(f.Opcode))
}

func (f *Fault) Unwrap() error {
	return f.Err
}
