package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"

	"gochip8/pkg/config"
	"gochip8/pkg/cpu"
	"gochip8/pkg/keypad"
	"gochip8/pkg/rom"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

const (
	frameInterval = time.Second / 60

	// Terminals only report key presses, so a key counts as held for this
	// long after its last repeat.
	keyLatch = 150 * time.Millisecond

	keyCtrlC = 0x03
	keyEsc   = 0x1B
)

var errQuit = errors.New("quit requested")

// latch remembers the most recently typed logical key.
type latch struct {
	key     cpu.Key
	pressed time.Time
}

func (l *latch) press(key cpu.Key, now time.Time) {
	l.key = key
	l.pressed = now
}

func (l *latch) current(now time.Time) cpu.Key {
	if l.pressed.IsZero() || now.Sub(l.pressed) > keyLatch {
		return cpu.NoKey
	}
	return l.key
}

// render draws the display with half-block characters, two display rows per
// text line, followed by a status line. Lines end in CRLF for raw terminals.
func render(w io.Writer, d *cpu.Display, status string) error {
	bw := bufio.NewWriter(w)
	_, _ = bw.WriteString("\x1b[H")

	for y := 0; y < cpu.DisplayHeight; y += 2 {
		for x := 0; x < cpu.DisplayWidth; x++ {
			top, bottom := d.Pixel(x, y), d.Pixel(x, y+1)
			switch {
			case top && bottom:
				_, _ = bw.WriteRune('█')
			case top:
				_, _ = bw.WriteRune('▀')
			case bottom:
				_, _ = bw.WriteRune('▄')
			default:
				_ = bw.WriteByte(' ')
			}
		}
		_, _ = bw.WriteString("\r\n")
	}

	_, _ = bw.WriteString(status)
	_, _ = bw.WriteString("\x1b[K\r\n")
	return bw.Flush()
}

func statusLine(vm *cpu.CPU, key cpu.Key) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-15s PC=$%03X I=$%03X DT=%3d ST=%3d", vm.State(), vm.PC, vm.I, vm.Delay.Get(), vm.Sound.Get())
	if key != cpu.NoKey {
		fmt.Fprintf(&sb, " key=%X", uint8(key))
	}
	if vm.Sound.Active() {
		sb.WriteString(" [sound]")
	}
	return sb.String()
}

// readKeys forwards bytes read from r to keys until reading fails or ctx is
// done. A Read that is already blocked finishes before the context is seen.
func readKeys(ctx context.Context, r io.Reader, keys chan<- byte) {
	defer close(keys)

	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			select {
			case keys <- b:
			case <-ctx.Done():
				return
			}
		}
		if err != nil || ctx.Err() != nil {
			return
		}
	}
}

func run(ctx context.Context, vm *cpu.CPU, driver *cpu.Driver, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make(chan byte, 64)
	go readKeys(ctx, in, keys)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	var held latch
	last := time.Now()

	_, _ = io.WriteString(out, "\x1b[2J\x1b[?25l")
	defer func() { _, _ = io.WriteString(out, "\x1b[?25h") }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case b, ok := <-keys:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return io.EOF
			}
			if b == keyCtrlC || b == keyEsc {
				return errQuit
			}
			if key, ok := keypad.FromRune(rune(b)); ok {
				held.press(key, time.Now())
			}

		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			key := held.current(now)
			state, err := driver.Advance(elapsed, key)
			if vm.DisplayChanged() || err != nil || state != cpu.Running {
				if rerr := render(out, &vm.Display, statusLine(vm, key)); rerr != nil {
					return rerr
				}
			}
			if err != nil {
				return err
			}
			if state == cpu.Halted {
				return nil
			}
		}
	}
}

func main() {
	ctx := app.Context()

	opts := config.Default()
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	opts.RegisterFlags(flags)
	showVersion := flags.Bool("version", false, "print version and exit")
	_ = flags.Parse(os.Args[1:])

	if opts.ROM == "" && flags.NArg() > 0 {
		opts.ROM = flags.Arg(0)
	}
	if *showVersion {
		fmt.Printf("version: %s\n", buildinfo.Version(version, commit, date))
		return
	}

	logger := opts.Logger()
	if opts.ROM == "" {
		fmt.Fprintf(os.Stderr, "usage: %s [options] <program.ch8>\n\n", filepath.Base(os.Args[0]))
		flags.PrintDefaults()
		os.Exit(2)
	}
	if err := opts.Validate(); err != nil {
		logger.Fatal(err.Error())
	}

	program, err := rom.Load(opts.ROM)
	if err != nil {
		logger.Fatal(err.Error())
	}
	vm, err := cpu.NewCPU(opts.CPUConfig())
	if err != nil {
		logger.Fatal(err.Error())
	}
	if err := vm.LoadProgram(program); err != nil {
		logger.Fatal(err.Error())
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		logger.Fatal("Standard input is not a terminal")
	}
	if cols, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil &&
		(cols < cpu.DisplayWidth || rows < cpu.DisplayHeight/2+1) {
		logger.Warn("Terminal is smaller than the display",
			log.Int("columns", cols),
			log.Int("rows", rows))
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		logger.Fatal("Failed to set raw mode", log.Err(err))
	}

	// The driver stays quiet while the terminal is raw; run returns any
	// fault and it is logged after the terminal is restored.
	driver := cpu.NewDriver(vm, opts.InstructionsPerSecond, config.CreateLogger(false, true))
	err = run(ctx, vm, driver, os.Stdin, os.Stdout)
	_ = term.Restore(fd, oldState)

	switch {
	case err == nil:
		logger.Info("Program halted", log.Hex("pc", vm.PC))
	case errors.Is(err, errQuit), errors.Is(err, context.Canceled):
	default:
		logger.Error("Execution stopped", log.Err(err))
		os.Exit(1)
	}
}
