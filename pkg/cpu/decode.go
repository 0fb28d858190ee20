package cpu

import "fmt"

// Kind identifies the operation of a decoded instruction.
type Kind uint8

const (
	KindInvalid Kind = iota

	KindClear  // 00E0
	KindReturn // 00EE
	KindJump   // 1NNN
	KindCall   // 2NNN

	KindSkipEqualImm    // 3XNN
	KindSkipNotEqualImm // 4XNN
	KindSkipEqualReg    // 5XY0
	KindLoadImm         // 6XNN
	KindAddImm          // 7XNN

	KindMove        // 8XY0
	KindOr          // 8XY1
	KindAnd         // 8XY2
	KindXor         // 8XY3
	KindAddReg      // 8XY4
	KindSub         // 8XY5
	KindShiftRight  // 8XY6
	KindSubReversed // 8XY7
	KindShiftLeft   // 8XYE

	KindSkipNotEqualReg // 9XY0
	KindLoadIndex       // ANNN
	KindJumpOffset      // BNNN
	KindRandom          // CXNN
	KindDraw            // DXYN

	KindSkipKey    // EX9E
	KindSkipNotKey // EXA1

	KindLoadDelay  // FX07
	KindWaitKey    // FX0A
	KindSetDelay   // FX15
	KindSetSound   // FX18
	KindAddIndex   // FX1E
	KindLoadGlyph  // FX29
	KindStoreBCD   // FX33
	KindStoreRegs  // FX55
	KindLoadRegs   // FX65
)

var kindNames = [...]string{
	KindInvalid:         "invalid",
	KindClear:           "clear",
	KindReturn:          "return",
	KindJump:            "jump",
	KindCall:            "call",
	KindSkipEqualImm:    "skip-equal-imm",
	KindSkipNotEqualImm: "skip-not-equal-imm",
	KindSkipEqualReg:    "skip-equal-reg",
	KindLoadImm:         "load-imm",
	KindAddImm:          "add-imm",
	KindMove:            "move",
	KindOr:              "or",
	KindAnd:             "and",
	KindXor:             "xor",
	KindAddReg:          "add-reg",
	KindSub:             "sub",
	KindShiftRight:      "shift-right",
	KindSubReversed:     "sub-reversed",
	KindShiftLeft:       "shift-left",
	KindSkipNotEqualReg: "skip-not-equal-reg",
	KindLoadIndex:       "load-index",
	KindJumpOffset:      "jump-offset",
	KindRandom:          "random",
	KindDraw:            "draw",
	KindSkipKey:         "skip-key",
	KindSkipNotKey:      "skip-not-key",
	KindLoadDelay:       "load-delay",
	KindWaitKey:         "wait-key",
	KindSetDelay:        "set-delay",
	KindSetSound:        "set-sound",
	KindAddIndex:        "add-index",
	KindLoadGlyph:       "load-glyph",
	KindStoreBCD:        "store-bcd",
	KindStoreRegs:       "store-regs",
	KindLoadRegs:        "load-regs",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Instruction is a decoded instruction word. Which operand fields are
// meaningful depends on Kind.
type Instruction struct {
	Kind Kind
	Word uint16

	X   uint8  // bits 8-11
	Y   uint8  // bits 4-7
	N   uint8  // bits 0-3
	NN  uint8  // bits 0-7
	NNN uint16 // bits 0-11
}

// Decode splits an instruction word into its operation and operand fields.
// Words outside the instruction set return ErrUnknownOpcode.
func Decode(word uint16) (Instruction, error) {
	ins := Instruction{
		Word: word,
		X:    uint8(word >> 8 & 0x0F),
		Y:    uint8(word >> 4 & 0x0F),
		N:    uint8(word & 0x0F),
		NN:   uint8(word & 0xFF),
		NNN:  word & 0x0FFF,
	}

	switch word >> 12 {
	case 0x0:
		switch word {
		case 0x00E0:
			ins.Kind = KindClear
		case 0x00EE:
			ins.Kind = KindReturn
		}
	case 0x1:
		ins.Kind = KindJump
	case 0x2:
		ins.Kind = KindCall
	case 0x3:
		ins.Kind = KindSkipEqualImm
	case 0x4:
		ins.Kind = KindSkipNotEqualImm
	case 0x5:
		if ins.N == 0 {
			ins.Kind = KindSkipEqualReg
		}
	case 0x6:
		ins.Kind = KindLoadImm
	case 0x7:
		ins.Kind = KindAddImm
	case 0x8:
		ins.Kind = decodeALU(ins.N)
	case 0x9:
		if ins.N == 0 {
			ins.Kind = KindSkipNotEqualReg
		}
	case 0xA:
		ins.Kind = KindLoadIndex
	case 0xB:
		ins.Kind = KindJumpOffset
	case 0xC:
		ins.Kind = KindRandom
	case 0xD:
		ins.Kind = KindDraw
	case 0xE:
		switch ins.NN {
		case 0x9E:
			ins.Kind = KindSkipKey
		case 0xA1:
			ins.Kind = KindSkipNotKey
		}
	case 0xF:
		ins.Kind = decodeMisc(ins.NN)
	}

	if ins.Kind == KindInvalid {
		return ins, ErrUnknownOpcode
	}
	return ins, nil
}

func decodeALU(n uint8) Kind {
	switch n {
	case 0x0:
		return KindMove
	case 0x1:
		return KindOr
	case 0x2:
		return KindAnd
	case 0x3:
		return KindXor
	case 0x4:
		return KindAddReg
	case 0x5:
		return KindSub
	case 0x6:
		return KindShiftRight
	case 0x7:
		return KindSubReversed
	case 0xE:
		return KindShiftLeft
	}
	return KindInvalid
}

func decodeMisc(nn uint8) Kind {
	switch nn {
	case 0x07:
		return KindLoadDelay
	case 0x0A:
		return KindWaitKey
	case 0x15:
		return KindSetDelay
	case 0x18:
		return KindSetSound
	case 0x1E:
		return KindAddIndex
	case 0x29:
		return KindLoadGlyph
	case 0x33:
		return KindStoreBCD
	case 0x55:
		return KindStoreRegs
	case 0x65:
		return KindLoadRegs
	}
	return KindInvalid
}
