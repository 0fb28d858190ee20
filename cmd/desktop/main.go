package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/image/font/basicfont"

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

const statusHeight = 18

var (
	onColor  = color.RGBA{0x33, 0xFF, 0x66, 0xFF}
	offColor = color.RGBA{0x10, 0x18, 0x10, 0xFF}
)

// physicalKeys holds the ebiten key for every rune of keypad.Layout.
var physicalKeys = map[rune]ebiten.Key{
	'1': ebiten.Key1, '2': ebiten.Key2, '3': ebiten.Key3, '4': ebiten.Key4,
	'q': ebiten.KeyQ, 'w': ebiten.KeyW, 'e': ebiten.KeyE, 'r': ebiten.KeyR,
	'a': ebiten.KeyA, 's': ebiten.KeyS, 'd': ebiten.KeyD, 'f': ebiten.KeyF,
	'z': ebiten.KeyZ, 'x': ebiten.KeyX, 'c': ebiten.KeyC, 'v': ebiten.KeyV,
}

type Game struct {
	vm     *cpu.CPU
	driver *cpu.Driver
	logger *log.Logger

	romPath string
	scale   int

	displayImg *ebiten.Image // reused 64×32 bitmap canvas
	paused     bool
	fault      error
	message    string
}

func newGame(opts config.Options, program []byte, logger *log.Logger) (*Game, error) {
	vm, err := cpu.NewCPU(opts.CPUConfig())
	if err != nil {
		return nil, err
	}
	if err := vm.LoadProgram(program); err != nil {
		return nil, err
	}

	driver := cpu.NewDriver(vm, opts.InstructionsPerSecond, logger)
	driver.SetTrace(opts.Trace)

	return &Game{
		vm:      vm,
		driver:  driver,
		logger:  logger,
		romPath: opts.ROM,
		scale:   opts.Scale,
	}, nil
}

// heldKey returns the lowest logical key currently held down.
func heldKey(pressed func(ebiten.Key) bool) cpu.Key {
	return keypad.First(func(k cpu.Key) bool {
		return pressed(physicalKeys[keypad.Rune(k)])
	})
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		g.screenshot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.reset()
	}

	if g.paused || g.fault != nil {
		return nil
	}

	elapsed := time.Second / time.Duration(ebiten.TPS())
	if _, err := g.driver.Advance(elapsed, heldKey(ebiten.IsKeyPressed)); err != nil {
		g.fault = err
	}
	return nil
}

// reset restarts the loaded program from a clean machine.
func (g *Game) reset() {
	g.vm.Reset()
	g.driver.Reset()
	g.fault = nil
	g.message = "reset"
}

func (g *Game) screenshot() {
	base := strings.TrimSuffix(filepath.Base(g.romPath), filepath.Ext(g.romPath))
	name := fmt.Sprintf("%s-%s.png", base, time.Now().Format("20060102-150405"))
	if err := g.vm.SaveScreenshot(name); err != nil {
		g.logger.Error("Saving screenshot failed", log.Err(err))
		g.message = "screenshot failed"
		return
	}
	g.logger.Info("Saved screenshot", log.String("file", name))
	g.message = "saved " + name
}

func (g *Game) drawBitmap(screen *ebiten.Image) {
	if g.displayImg == nil {
		g.displayImg = ebiten.NewImage(cpu.DisplayWidth, cpu.DisplayHeight)
		g.displayImg.WritePixels(g.vm.FramebufferRGBA(onColor, offColor))
	}
	if g.vm.DisplayChanged() {
		g.displayImg.WritePixels(g.vm.FramebufferRGBA(onColor, offColor))
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.displayImg, op)
}

type statusToken struct {
	name    string
	enabled bool
}

func (g *Game) statusTokens() []statusToken {
	state := g.vm.State()
	return []statusToken{
		{"RUN", state == cpu.Running && !g.paused},
		{"WAIT", state == cpu.WaitingForKey},
		{"HALT", state == cpu.Halted},
		{"PAUSE", g.paused},
		{"SOUND", g.vm.Sound.Active()},
	}
}

func drawStatusLine(screen *ebiten.Image, x, baselineY int, label string, tokens []statusToken) {
	face := basicfont.Face7x13
	labelColor := color.RGBA{190, 190, 190, 255}
	tokenOff := color.RGBA{90, 90, 90, 255}
	tokenOn := color.RGBA{0, 220, 90, 255}

	text.Draw(screen, label, face, x, baselineY, labelColor)
	cursorX := x + text.BoundString(face, label).Dx() + 6

	for _, token := range tokens {
		c := tokenOff
		if token.enabled {
			c = tokenOn
		}
		text.Draw(screen, token.name, face, cursorX, baselineY, c)
		cursorX += text.BoundString(face, token.name).Dx() + 8
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.drawBitmap(screen)

	baseline := cpu.DisplayHeight*g.scale + statusHeight - 5
	drawStatusLine(screen, 4, baseline, filepath.Base(g.romPath), g.statusTokens())

	msg := g.message
	if g.fault != nil {
		msg = g.fault.Error()
	}
	if msg != "" {
		w := text.BoundString(basicfont.Face7x13, msg).Dx()
		text.Draw(screen, msg, basicfont.Face7x13, cpu.DisplayWidth*g.scale-w-4, baseline,
			color.RGBA{230, 90, 90, 255})
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cpu.DisplayWidth * g.scale, cpu.DisplayHeight*g.scale + statusHeight
}

func main() {
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

	fullPath, _, err := rom.ResolvePath(opts.ROM)
	if err != nil {
		logger.Fatal(err.Error())
	}
	program, err := rom.Load(fullPath)
	if err != nil {
		logger.Fatal(err.Error())
	}

	game, err := newGame(opts, program, logger)
	if err != nil {
		logger.Fatal(err.Error())
	}
	logger.Info("Loaded program",
		log.String("file", fullPath),
		log.Int("size", len(program)),
		log.Int("ips", opts.InstructionsPerSecond))

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(game.Layout(0, 0))
	ebiten.SetWindowTitle("gochip8 - " + filepath.Base(fullPath))

	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal(err.Error())
	}
}
