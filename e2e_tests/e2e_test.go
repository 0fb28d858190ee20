package main

import (
	"testing"

	"gochip8/pkg/asm"
	"gochip8/pkg/cpu"
	"gochip8/pkg/disasm"
)

const fibSource = `
; V0 = fib(12), then its decimal digits are stored at $300
; and the leading digit is drawn in the top-left corner.
        LD V0, 0
        LD V1, 1
        LD V2, 12
loop:   SE V2, 0
        JP body
        JP done
body:   LD V3, V0
        ADD V3, V1
        LD V0, V1
        LD V1, V3
        ADD V2, $FF
        JP loop
done:   LD I, $300
        LD B, V0
        LD V2, [I]
        LD F, V0
        LD V3, 0
        LD V4, 0
        DRW V3, V4, 5
        .WORD 0
`

func TestAssembleAndRun(t *testing.T) {
	// 1. Assemble
	program, sourceMap, err := asm.Assemble(fibSource)
	if err != nil {
		t.Fatalf("Assembly failed: %v", err)
	}
	if line, ok := sourceMap[cpu.DefaultLoadOffset]; !ok || line != 4 {
		t.Errorf("Expected $200 to map to line 4, got %d (ok=%v)", line, ok)
	}

	// 2. Instantiate CPU and load code
	vm, err := cpu.NewCPU(cpu.DefaultConfig())
	if err != nil {
		t.Fatalf("NewCPU failed: %v", err)
	}
	if err := vm.LoadProgram(program); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}

	// 3. Run until halted
	if err := vm.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if vm.State() != cpu.Halted {
		t.Fatalf("Expected machine to be halted, got %s", vm.State())
	}

	// 4. Assertions

	// BCD of 144 loaded back into V0..V2
	if vm.V[0] != 1 || vm.V[1] != 4 || vm.V[2] != 4 {
		t.Errorf("Expected V0..V2 = 1 4 4, got %d %d %d", vm.V[0], vm.V[1], vm.V[2])
	}
	if got := vm.Memory[0x300:0x303]; got[0] != 1 || got[1] != 4 || got[2] != 4 {
		t.Errorf("Expected memory $300 = 01 04 04, got % X", got)
	}

	// Glyph "1" drawn at the origin without a collision
	want := []uint64{0x20, 0x60, 0x20, 0x20, 0x70}
	for y, row := range want {
		if got := vm.Display.Row(y); got != row<<56 {
			t.Errorf("Row %d = %016X; want %016X", y, got, row<<56)
		}
	}
	if vm.V[cpu.RegF] != 0 {
		t.Errorf("Expected VF to be 0, got %d", vm.V[cpu.RegF])
	}

	// Stack fully unwound
	if vm.Stack.Len() != 0 {
		t.Errorf("Expected empty stack, got depth %d", vm.Stack.Len())
	}
}

func TestDisassembleAssembled(t *testing.T) {
	program, _, err := asm.Assemble(fibSource)
	if err != nil {
		t.Fatalf("Assembly failed: %v", err)
	}

	want := []string{"ld V0, $00", "ld V1, $01", "ld V2, $0C", "se V2, $00"}
	for i, w := range want {
		word := uint16(program[i*2])<<8 | uint16(program[i*2+1])
		if got := disasm.Format(word); got != w {
			t.Errorf("word %d: Format(%04X) = %q; want %q", i, word, got, w)
		}
	}
}
