package cpu

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	MemorySize    = 4096
	RegisterCount = 16

	// RegF doubles as the carry, borrow and collision flag.
	RegF = 0xF

	InstructionSize = 2
	KeyCount        = 16
)

// Key is a logical keypad code 0-15.
type Key uint8

// NoKey means no key is held during a cycle.
const NoKey Key = 0xFF

// State is the execution state visible to the caller after a cycle.
type State uint8

const (
	Running State = iota
	WaitingForKey
	Halted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case WaitingForKey:
		return "waiting for key"
	case Halted:
		return "halted"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

type CPU struct {
	V  [RegisterCount]uint8
	I  uint16
	PC uint16

	Memory [MemorySize]byte

	Stack   Stack
	Delay   *Timer
	Sound   *Timer
	Display Display

	// Halted is set once the program ran off the end of memory, fetched the
	// zero word or faulted.
	Halted bool
	// Waiting is set while a key-wait instruction is blocking.
	Waiting bool

	config         Config
	program        []byte
	rng            *rand.Rand
	displayChanged bool
}

// NewCPU creates a machine with the given configuration. The machine has no
// program until LoadProgram is called.
func NewCPU(cfg Config) (*CPU, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &CPU{
		config: cfg,
		Delay:  NewTimer(cfg.DelayRate),
		Sound:  NewTimer(cfg.SoundRate),
	}
	c.Reset()
	return c, nil
}

// LoadProgram copies program into memory at the configured load offset and
// resets the machine. The image is kept for later resets.
func (c *CPU) LoadProgram(program []byte) error {
	if len(program) == 0 {
		return ErrEmptyProgram
	}
	if space := MemorySize - int(c.config.LoadOffset); len(program) > space {
		return fmt.Errorf("%w: %d bytes > %d bytes", ErrProgramTooLarge, len(program), space)
	}
	c.program = append([]byte(nil), program...)
	c.Reset()
	return nil
}

// Reset restores the power-on state and reloads the current program.
func (c *CPU) Reset() {
	c.V = [RegisterCount]uint8{}
	c.I = 0
	c.PC = c.config.LoadOffset
	c.Memory = [MemorySize]byte{}
	copy(c.Memory[:], glyphs[:])
	copy(c.Memory[c.config.LoadOffset:], c.program)

	c.Stack.Reset()
	c.Delay.Reset()
	c.Sound.Reset()
	c.Display.Clear()

	c.Halted = false
	c.Waiting = false
	c.displayChanged = true
}

// SetRandSource replaces the generator used by the random instruction.
func (c *CPU) SetRandSource(src rand.Source) {
	c.rng = rand.New(src)
}

func (c *CPU) Config() Config {
	return c.config
}

func (c *CPU) State() State {
	switch {
	case c.Halted:
		return Halted
	case c.Waiting:
		return WaitingForKey
	}
	return Running
}

// DisplayChanged reports whether the display was cleared or drawn to since
// the previous call.
func (c *CPU) DisplayChanged() bool {
	changed := c.displayChanged
	c.displayChanged = false
	return changed
}

// Cycle services both timers for elapsed real time and then executes one
// instruction with key as the currently held key.
func (c *CPU) Cycle(elapsed time.Duration, key Key) (State, error) {
	if c.Halted {
		return Halted, nil
	}
	if err := checkKey(key); err != nil {
		return c.State(), err
	}
	c.Delay.Tick(elapsed)
	c.Sound.Tick(elapsed)

	err := c.Step(key)
	return c.State(), err
}

// Step fetches, decodes and executes the instruction at PC. Fetching past
// the end of memory or fetching the zero word halts the machine without an
// error. Any other stop is reported as a *Fault.
func (c *CPU) Step(key Key) error {
	if c.Halted {
		return nil
	}
	if err := checkKey(key); err != nil {
		return err
	}

	pc := c.PC
	if int(pc) >= MemorySize {
		c.halt()
		return nil
	}
	if int(pc)+1 >= MemorySize {
		return c.fault(pc, uint16(c.Memory[pc])<<8, ErrAddressOutOfRange)
	}

	word := uint16(c.Memory[pc])<<8 | uint16(c.Memory[pc+1])
	if word == 0 {
		c.halt()
		return nil
	}
	c.PC += InstructionSize

	ins, err := Decode(word)
	if err != nil {
		return c.fault(pc, word, err)
	}
	if err := c.execute(ins, key); err != nil {
		return c.fault(pc, word, err)
	}
	return nil
}

// Run steps until the machine halts or faults, without a held key and
// without timer decay. It is meant for tests and headless tools.
func (c *CPU) Run() error {
	for !c.Halted {
		if err := c.Step(NoKey); err != nil {
			return err
		}
		if c.Waiting {
			return nil
		}
	}
	return nil
}

func checkKey(key Key) error {
	if key != NoKey && key >= KeyCount {
		return fmt.Errorf("%w: %d", ErrInvalidKey, key)
	}
	return nil
}

func (c *CPU) halt() {
	c.Halted = true
	c.Waiting = false
}

func (c *CPU) fault(pc, word uint16, err error) error {
	c.halt()
	return &Fault{PC: pc, Opcode: word, Err: err}
}

func (c *CPU) execute(ins Instruction, key Key) error {
	x, y := ins.X, ins.Y
	c.Waiting = false

	switch ins.Kind {
	case KindClear:
		c.Display.Clear()
		c.displayChanged = true

	case KindReturn:
		addr, err := c.Stack.Pop()
		if err != nil {
			return err
		}
		c.PC = addr

	case KindJump:
		c.PC = ins.NNN

	case KindCall:
		if err := c.Stack.Push(c.PC); err != nil {
			return err
		}
		c.PC = ins.NNN

	case KindSkipEqualImm:
		c.skipIf(c.V[x] == ins.NN)

	case KindSkipNotEqualImm:
		c.skipIf(c.V[x] != ins.NN)

	case KindSkipEqualReg:
		c.skipIf(c.V[x] == c.V[y])

	case KindSkipNotEqualReg:
		c.skipIf(c.V[x] != c.V[y])

	case KindLoadImm:
		c.V[x] = ins.NN

	case KindAddImm:
		c.V[x] += ins.NN

	case KindMove:
		c.V[x] = c.V[y]

	case KindOr:
		c.V[x] |= c.V[y]

	case KindAnd:
		c.V[x] &= c.V[y]

	case KindXor:
		c.V[x] ^= c.V[y]

	case KindAddReg:
		sum := uint16(c.V[x]) + uint16(c.V[y])
		c.V[x] = uint8(sum)
		c.V[RegF] = flag(sum > 0xFF)

	case KindSub:
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vx - vy
		c.V[RegF] = flag(vx >= vy)

	case KindSubReversed:
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vy - vx
		c.V[RegF] = flag(vy >= vx)

	// The shifts read the first named register and store into the second.
	case KindShiftRight:
		v := c.V[x]
		c.V[y] = v >> 1
		c.V[RegF] = v & 0x01

	case KindShiftLeft:
		v := c.V[x]
		c.V[y] = v << 1
		c.V[RegF] = v >> 7

	case KindLoadIndex:
		c.I = ins.NNN

	case KindJumpOffset:
		target := ins.NNN + uint16(c.V[0])
		if int(target) >= MemorySize {
			return fmt.Errorf("%w: jump to $%04X", ErrAddressOutOfRange, target)
		}
		c.PC = target

	case KindRandom:
		c.V[x] = c.randomByte() & ins.NN

	case KindDraw:
		sprite, err := c.memoryRange(c.I, int(ins.N))
		if err != nil {
			return err
		}
		collision := c.Display.DrawSprite(int(c.V[x]), int(c.V[y]), sprite)
		c.V[RegF] = flag(collision)
		c.displayChanged = true

	case KindSkipKey:
		c.skipIf(key != NoKey && uint8(key) == c.V[x])

	case KindSkipNotKey:
		c.skipIf(key != NoKey && uint8(key) != c.V[x])

	case KindLoadDelay:
		c.V[x] = c.Delay.Get()

	case KindWaitKey:
		if key == NoKey {
			c.PC -= InstructionSize
			c.Waiting = true
			return nil
		}
		c.V[x] = uint8(key)

	case KindSetDelay:
		c.Delay.Set(c.V[x])

	case KindSetSound:
		c.Sound.Set(c.V[x])

	case KindAddIndex:
		c.I += uint16(c.V[x])

	case KindLoadGlyph:
		c.I = GlyphAddress(c.V[x])

	case KindStoreBCD:
		mem, err := c.memoryRange(c.I, 3)
		if err != nil {
			return err
		}
		v := c.V[x]
		mem[0] = v / 100
		mem[1] = v / 10 % 10
		mem[2] = v % 10

	case KindStoreRegs:
		mem, err := c.memoryRange(c.I, int(x)+1)
		if err != nil {
			return err
		}
		copy(mem, c.V[:x+1])

	case KindLoadRegs:
		mem, err := c.memoryRange(c.I, int(x)+1)
		if err != nil {
			return err
		}
		copy(c.V[:x+1], mem)

	default:
		return ErrUnknownOpcode
	}

	return nil
}

func (c *CPU) skipIf(cond bool) {
	if cond {
		c.PC += InstructionSize
	}
}

// memoryRange returns the n bytes starting at addr, failing instead of
// wrapping when the range crosses the end of memory.
func (c *CPU) memoryRange(addr uint16, n int) ([]byte, error) {
	if int(addr)+n > MemorySize {
		return nil, fmt.Errorf("%w: $%04X+%d", ErrAddressOutOfRange, addr, n)
	}
	return c.Memory[addr : int(addr)+n], nil
}

func (c *CPU) randomByte() uint8 {
	if c.rng != nil {
		return uint8(c.rng.UintN(256))
	}
	return uint8(rand.UintN(256))
}

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
