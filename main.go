package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/buildinfo"

	"gochip8/pkg/asm"
	"gochip8/pkg/cpu"
	"gochip8/pkg/disasm"
	"gochip8/pkg/rom"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

const defaultCycleLimit = 1_000_000

func main() {
	inPath := flag.String("in", "", "input assembly file path")
	outPath := flag.String("out", "", "output program file path (default: input with .ch8 extension)")
	runProgram := flag.Bool("run", false, "run the generated program headless")
	runBinPath := flag.String("run-bin", "", "run an existing program image headless")
	disasmPath := flag.String("disasm", "", "print a listing of an existing program image")
	maxCycles := flag.Int("cycles", defaultCycleLimit, "maximum instructions to execute when running")
	screenshotPath := flag.String("screenshot", "", "save the final display as a PNG file after running")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", buildinfo.Version(version, commit, date))
		return
	}

	if *runProgram && *runBinPath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-bin, not both")
		os.Exit(2)
	}

	if *disasmPath != "" {
		if err := listProgram(os.Stdout, *disasmPath); err != nil {
			fmt.Fprintf(os.Stderr, "disassembly failed for %q: %v\n", *disasmPath, err)
			os.Exit(1)
		}
	}

	assembledOutput := ""
	if *inPath != "" {
		source, err := os.ReadFile(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read input file %q: %v\n", *inPath, err)
			os.Exit(1)
		}

		code, _, err := asm.Assemble(string(source))
		if err != nil {
			fmt.Fprintf(os.Stderr, "assembly failed: %v\n", err)
			os.Exit(1)
		}

		output := *outPath
		if output == "" {
			output = defaultOutputPath(*inPath)
		}

		if err := writeBinary(output, code); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write program file %q: %v\n", output, err)
			os.Exit(1)
		}

		fmt.Printf("assembled %d bytes -> %s\n", len(code), output)
		assembledOutput = output
	}

	if *inPath == "" && *runBinPath == "" && !*runProgram && *disasmPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to assemble, -run to run assembled output, -run-bin <file> to run an existing program or -disasm <file> to list one")
		flag.Usage()
		os.Exit(2)
	}

	runTarget := ""
	switch {
	case *runBinPath != "":
		runTarget = *runBinPath
	case *runProgram:
		if assembledOutput == "" {
			fmt.Fprintln(os.Stderr, "-run requires -in, or use -run-bin <file>")
			os.Exit(2)
		}
		runTarget = assembledOutput
	default:
		return
	}

	vm, err := runBinary(runTarget, *maxCycles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", runTarget, err)
		os.Exit(1)
	}
	printSummary(os.Stdout, runTarget, vm)

	if *screenshotPath != "" {
		if err := vm.SaveScreenshot(*screenshotPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to save screenshot %q: %v\n", *screenshotPath, err)
			os.Exit(1)
		}
	}
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".ch8"
	}
	return strings.TrimSuffix(inPath, ext) + ".ch8"
}

func writeBinary(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func listProgram(w io.Writer, path string) error {
	program, err := rom.Load(path)
	if err != nil {
		return err
	}
	return disasm.Listing(w, program, cpu.DefaultLoadOffset)
}

// runBinary executes the program at path without input until it halts,
// waits for a key or reaches maxCycles instructions.
func runBinary(path string, maxCycles int) (*cpu.CPU, error) {
	program, err := rom.Load(path)
	if err != nil {
		return nil, err
	}

	vm, err := cpu.NewCPU(cpu.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := vm.LoadProgram(program); err != nil {
		return nil, err
	}

	for range maxCycles {
		if err := vm.Step(cpu.NoKey); err != nil {
			return vm, err
		}
		if vm.Halted || vm.Waiting {
			break
		}
	}
	return vm, nil
}

func printSummary(w io.Writer, path string, vm *cpu.CPU) {
	fmt.Fprintf(w,
		"run complete (%s): state=%s PC=$%03X I=$%03X V0=$%02X V1=$%02X V2=$%02X VF=$%02X\n",
		path,
		vm.State(),
		vm.PC,
		vm.I,
		vm.V[0],
		vm.V[1],
		vm.V[2],
		vm.V[cpu.RegF],
	)
}
