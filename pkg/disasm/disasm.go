// Package disasm renders instruction words as assembly text.
package disasm

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Mnemonic returns the lower-case instruction name for word, or an empty
// string when the word is not a known instruction.
func Mnemonic(word uint16) string {
	op, ok := lookup(word)
	if !ok {
		return ""
	}
	return op.Instruction.Name
}

// Format returns the full assembly text for word, such as "ld V1, $2A".
// Unknown words are rendered as a data directive.
func Format(word uint16) string {
	op, ok := lookup(word)
	if !ok {
		return fmt.Sprintf(".word $%04X", word)
	}
	name := op.Instruction.Name
	params := operands(name, word)
	if params == "" {
		return name
	}
	return name + " " + params
}

// Listing writes one line per instruction word of program, which is assumed
// to be loaded at origin. A trailing odd byte is listed as a byte directive.
func Listing(w io.Writer, program []byte, origin uint16) error {
	for i := 0; i < len(program); i += 2 {
		addr := int(origin) + i
		if i+1 >= len(program) {
			if _, err := fmt.Fprintf(w, "$%03X  %02X    .byte $%02X\n", addr, program[i], program[i]); err != nil {
				return err
			}
			break
		}

		word := uint16(program[i])<<8 | uint16(program[i+1])
		if _, err := fmt.Fprintf(w, "$%03X  %04X  %s\n", addr, word, Format(word)); err != nil {
			return err
		}
	}
	return nil
}

// lookup finds the table entry matching word. When several entries of the
// nibble group match, the one with the most specific mask wins.
func lookup(word uint16) (chip8.Opcode, bool) {
	var (
		best  chip8.Opcode
		found bool
		width int
	)
	for _, op := range chip8.Opcodes[int(word>>12)] {
		if op.Instruction == nil || op.Info.Mask&word != op.Info.Value {
			continue
		}
		if w := bits.OnesCount16(op.Info.Mask); !found || w > width {
			best, found, width = op, true, w
		}
	}
	return best, found
}

func operands(name string, word uint16) string {
	x := (word >> 8) & 0x0F
	y := (word >> 4) & 0x0F
	n := word & 0x000F
	nn := word & 0x00FF
	nnn := word & 0x0FFF

	switch name {
	case chip8.ClsInst.Name, chip8.RetInst.Name:
		return ""

	case chip8.JpInst.Name:
		if word&0xF000 == 0xB000 {
			return fmt.Sprintf("V0, $%03X", nnn)
		}
		return fmt.Sprintf("$%03X", nnn)

	case chip8.CallInst.Name:
		return fmt.Sprintf("$%03X", nnn)

	case chip8.SeInst.Name, chip8.SneInst.Name:
		switch word & 0xF000 {
		case 0x5000, 0x9000:
			return fmt.Sprintf("V%X, V%X", x, y)
		}
		return fmt.Sprintf("V%X, $%02X", x, nn)

	case chip8.LdInst.Name:
		return loadOperands(word, x, y, nn, nnn)

	case chip8.AddInst.Name:
		switch word & 0xF000 {
		case 0x7000:
			return fmt.Sprintf("V%X, $%02X", x, nn)
		case 0xF000:
			return fmt.Sprintf("I, V%X", x)
		}
		return fmt.Sprintf("V%X, V%X", x, y)

	case chip8.OrInst.Name, chip8.AndInst.Name, chip8.XorInst.Name, chip8.SubInst.Name, chip8.SubnInst.Name:
		return fmt.Sprintf("V%X, V%X", x, y)

	case chip8.ShrInst.Name, chip8.ShlInst.Name:
		return fmt.Sprintf("V%X, V%X", x, y)

	case chip8.RndInst.Name:
		return fmt.Sprintf("V%X, $%02X", x, nn)

	case chip8.DrwInst.Name:
		return fmt.Sprintf("V%X, V%X, $%X", x, y, n)

	case chip8.SkpInst.Name, chip8.SknpInst.Name:
		return fmt.Sprintf("V%X", x)
	}
	return ""
}

func loadOperands(word, x, y, nn, nnn uint16) string {
	switch word & 0xF000 {
	case 0x6000:
		return fmt.Sprintf("V%X, $%02X", x, nn)
	case 0x8000:
		return fmt.Sprintf("V%X, V%X", x, y)
	case 0xA000:
		return fmt.Sprintf("I, $%03X", nnn)
	}

	switch nn {
	case 0x07:
		return fmt.Sprintf("V%X, DT", x)
	case 0x0A:
		return fmt.Sprintf("V%X, K", x)
	case 0x15:
		return fmt.Sprintf("DT, V%X", x)
	case 0x18:
		return fmt.Sprintf("ST, V%X", x)
	case 0x29:
		return fmt.Sprintf("F, V%X", x)
	case 0x33:
		return fmt.Sprintf("B, V%X", x)
	case 0x55:
		return fmt.Sprintf("[I], V%X", x)
	case 0x65:
		return fmt.Sprintf("V%X, [I]", x)
	}
	return ""
}
