package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// DefaultOrigin is the address the first assembled byte is loaded at.
const DefaultOrigin = 0x200

const maxAddress = 0x1000

var zeroOperandOps = map[string]uint16{
	"CLS": 0x00E0,
	"RET": 0x00EE,
}

// register-register operations of the 8XYN group
var aluOps = map[string]uint16{
	"OR":   0x8001,
	"AND":  0x8002,
	"XOR":  0x8003,
	"SUB":  0x8005,
	"SUBN": 0x8007,
}

var shiftOps = map[string]uint16{
	"SHR": 0x8006,
	"SHL": 0x800E,
}

var keyOps = map[string]uint16{
	"SKP":  0xE09E,
	"SKNP": 0xE0A1,
}

var otherOps = map[string]bool{
	"JP":   true,
	"CALL": true,
	"SE":   true,
	"SNE":  true,
	"LD":   true,
	"ADD":  true,
	"RND":  true,
	"DRW":  true,
}

type Assembler struct {
	Origin uint16
	labels map[string]uint16
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		Origin: DefaultOrigin,
		labels: make(map[string]uint16),
	}
}

// Assemble translates source into a program image loaded at DefaultOrigin.
// The returned source map is keyed by absolute address.
func Assemble(code string) ([]byte, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]byte, map[uint16]int, error) {
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}

	return a.pass2(lines)
}

func (a *Assembler) pass1(lines []string) error {
	address := uint32(a.Origin)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		for _, lbl := range p.labels {
			if address >= maxAddress {
				return fmt.Errorf("label '%s' on line %d points past addressable memory", lbl, lineNo)
			}
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[key] = uint16(address)
		}

		if p.mnemonic == "" {
			continue
		}

		var length uint32
		switch p.mnemonic {
		case ".ORG":
			target, err := parseNumber(p.operands[0])
			if err != nil || target >= maxAddress {
				return fmt.Errorf("invalid .ORG value on line %d: %s", lineNo, p.operands[0])
			}
			if target < address {
				return fmt.Errorf("cannot move origin backward on line %d", lineNo)
			}
			address = target
			continue

		case ".BYTE":
			if len(p.operands) == 0 {
				return fmt.Errorf(".BYTE expects at least one operand on line %d", lineNo)
			}
			length = uint32(len(p.operands))

		case ".WORD":
			if len(p.operands) == 0 {
				return fmt.Errorf(".WORD expects at least one operand on line %d", lineNo)
			}
			length = 2 * uint32(len(p.operands))

		default:
			if !isInstruction(p.mnemonic) {
				return fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
			}
			length = 2
		}

		if address+length > maxAddress {
			return fmt.Errorf("program too large near line %d", lineNo)
		}
		address += length
	}

	return nil
}

func (a *Assembler) pass2(lines []string) ([]byte, map[uint16]int, error) {
	program := make([]byte, 0)
	sourceMap := make(map[uint16]int)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		address := a.Origin + uint16(len(program))
		mnemonic := p.mnemonic
		ops := p.operands

		switch mnemonic {
		case ".ORG":
			target, _ := parseNumber(ops[0])
			program = append(program, make([]byte, int(target)-int(address))...)
			continue

		case ".BYTE":
			sourceMap[address] = lineNo
			for _, op := range ops {
				val, err := a.parseValue(op, 0xFF, lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, byte(val))
			}
			continue

		case ".WORD":
			sourceMap[address] = lineNo
			for _, op := range ops {
				val, err := a.parseValue(op, 0xFFFF, lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, byte(val>>8), byte(val))
			}
			continue
		}

		instr, err := a.encode(mnemonic, ops, lineNo)
		if err != nil {
			return nil, nil, err
		}
		sourceMap[address] = lineNo
		program = append(program, byte(instr>>8), byte(instr))
	}

	return program, sourceMap, nil
}

// encode returns the instruction word for one source line.
func (a *Assembler) encode(mnemonic string, ops []string, lineNo int) (uint16, error) {
	if opcode, ok := zeroOperandOps[mnemonic]; ok {
		if len(ops) != 0 {
			return 0, fmt.Errorf("%s expects 0 operands on line %d", mnemonic, lineNo)
		}
		return opcode, nil
	}

	if opcode, ok := aluOps[mnemonic]; ok {
		x, y, err := twoRegisters(mnemonic, ops, lineNo)
		if err != nil {
			return 0, err
		}
		return opcode | x<<8 | y<<4, nil
	}

	if opcode, ok := shiftOps[mnemonic]; ok {
		if len(ops) == 1 {
			x, err := parseRegister(ops[0], lineNo)
			if err != nil {
				return 0, err
			}
			return opcode | x<<8 | x<<4, nil
		}
		x, y, err := twoRegisters(mnemonic, ops, lineNo)
		if err != nil {
			return 0, err
		}
		return opcode | x<<8 | y<<4, nil
	}

	if opcode, ok := keyOps[mnemonic]; ok {
		if len(ops) != 1 {
			return 0, fmt.Errorf("%s expects 1 operand on line %d", mnemonic, lineNo)
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		return opcode | x<<8, nil
	}

	switch mnemonic {
	case "JP":
		return a.encodeJump(ops, lineNo)
	case "CALL":
		if len(ops) != 1 {
			return 0, fmt.Errorf("CALL expects 1 operand on line %d", lineNo)
		}
		addr, err := a.parseValue(ops[0], 0xFFF, lineNo)
		if err != nil {
			return 0, err
		}
		return 0x2000 | addr, nil
	case "SE":
		return a.encodeSkip(0x3000, 0x5000, mnemonic, ops, lineNo)
	case "SNE":
		return a.encodeSkip(0x4000, 0x9000, mnemonic, ops, lineNo)
	case "LD":
		return a.encodeLoad(ops, lineNo)
	case "ADD":
		return a.encodeAdd(ops, lineNo)
	case "RND":
		if len(ops) != 2 {
			return 0, fmt.Errorf("RND expects 2 operands on line %d", lineNo)
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		nn, err := a.parseValue(ops[1], 0xFF, lineNo)
		if err != nil {
			return 0, err
		}
		return 0xC000 | x<<8 | nn, nil
	case "DRW":
		if len(ops) != 3 {
			return 0, fmt.Errorf("DRW expects 3 operands on line %d", lineNo)
		}
		x, y, err := twoRegisters(mnemonic, ops[:2], lineNo)
		if err != nil {
			return 0, err
		}
		n, err := a.parseValue(ops[2], 0xF, lineNo)
		if err != nil {
			return 0, err
		}
		return 0xD000 | x<<8 | y<<4 | n, nil
	}

	return 0, fmt.Errorf("unknown instruction on line %d: %s", lineNo, mnemonic)
}

func (a *Assembler) encodeJump(ops []string, lineNo int) (uint16, error) {
	switch len(ops) {
	case 1:
		addr, err := a.parseValue(ops[0], 0xFFF, lineNo)
		if err != nil {
			return 0, err
		}
		return 0x1000 | addr, nil
	case 2:
		if reg, err := parseRegister(ops[0], lineNo); err != nil || reg != 0 {
			return 0, fmt.Errorf("JP offset must use V0 on line %d", lineNo)
		}
		addr, err := a.parseValue(ops[1], 0xFFF, lineNo)
		if err != nil {
			return 0, err
		}
		return 0xB000 | addr, nil
	}
	return 0, fmt.Errorf("JP expects 1 or 2 operands on line %d", lineNo)
}

func (a *Assembler) encodeSkip(immOp, regOp uint16, mnemonic string, ops []string, lineNo int) (uint16, error) {
	if len(ops) != 2 {
		return 0, fmt.Errorf("%s expects 2 operands on line %d", mnemonic, lineNo)
	}
	x, err := parseRegister(ops[0], lineNo)
	if err != nil {
		return 0, err
	}
	if isRegister(ops[1]) {
		y, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		return regOp | x<<8 | y<<4, nil
	}
	nn, err := a.parseValue(ops[1], 0xFF, lineNo)
	if err != nil {
		return 0, err
	}
	return immOp | x<<8 | nn, nil
}

func (a *Assembler) encodeLoad(ops []string, lineNo int) (uint16, error) {
	if len(ops) != 2 {
		return 0, fmt.Errorf("LD expects 2 operands on line %d", lineNo)
	}
	dst, src := strings.ToUpper(ops[0]), strings.ToUpper(ops[1])

	if !isRegister(dst) {
		x, err := parseRegister(src, lineNo)
		switch dst {
		case "I":
			addr, err := a.parseValue(ops[1], 0xFFF, lineNo)
			if err != nil {
				return 0, err
			}
			return 0xA000 | addr, nil
		case "DT", "ST", "F", "B", "[I]":
			if err != nil {
				return 0, err
			}
		default:
			return 0, fmt.Errorf("invalid LD destination '%s' on line %d", ops[0], lineNo)
		}
		switch dst {
		case "DT":
			return 0xF015 | x<<8, nil
		case "ST":
			return 0xF018 | x<<8, nil
		case "F":
			return 0xF029 | x<<8, nil
		case "B":
			return 0xF033 | x<<8, nil
		default:
			return 0xF055 | x<<8, nil
		}
	}

	x, err := parseRegister(dst, lineNo)
	if err != nil {
		return 0, err
	}
	switch {
	case isRegister(src):
		y, err := parseRegister(src, lineNo)
		if err != nil {
			return 0, err
		}
		return 0x8000 | x<<8 | y<<4, nil
	case src == "DT":
		return 0xF007 | x<<8, nil
	case src == "K":
		return 0xF00A | x<<8, nil
	case src == "[I]":
		return 0xF065 | x<<8, nil
	}
	nn, err := a.parseValue(ops[1], 0xFF, lineNo)
	if err != nil {
		return 0, err
	}
	return 0x6000 | x<<8 | nn, nil
}

func (a *Assembler) encodeAdd(ops []string, lineNo int) (uint16, error) {
	if len(ops) != 2 {
		return 0, fmt.Errorf("ADD expects 2 operands on line %d", lineNo)
	}
	if strings.EqualFold(ops[0], "I") {
		x, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		return 0xF01E | x<<8, nil
	}
	x, err := parseRegister(ops[0], lineNo)
	if err != nil {
		return 0, err
	}
	if isRegister(ops[1]) {
		y, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		return 0x8004 | x<<8 | y<<4, nil
	}
	nn, err := a.parseValue(ops[1], 0xFF, lineNo)
	if err != nil {
		return 0, err
	}
	return 0x7000 | x<<8 | nn, nil
}

func twoRegisters(mnemonic string, ops []string, lineNo int) (uint16, uint16, error) {
	if len(ops) != 2 {
		return 0, 0, fmt.Errorf("%s expects 2 operands on line %d", mnemonic, lineNo)
	}
	x, err := parseRegister(ops[0], lineNo)
	if err != nil {
		return 0, 0, err
	}
	y, err := parseRegister(ops[1], lineNo)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if beforeColon == "" {
			return p, fmt.Errorf("invalid label on line %d", lineNo)
		}

		if strings.ContainsAny(beforeColon, " \t") {
			break
		}

		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) == 0 {
		return p, nil
	}

	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}

	if p.mnemonic == ".ORG" && len(p.operands) != 1 {
		return p, fmt.Errorf(".ORG expects exactly one operand on line %d", lineNo)
	}

	return p, nil
}

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

func isInstruction(mnemonic string) bool {
	if _, ok := zeroOperandOps[mnemonic]; ok {
		return true
	}
	if _, ok := aluOps[mnemonic]; ok {
		return true
	}
	if _, ok := shiftOps[mnemonic]; ok {
		return true
	}
	if _, ok := keyOps[mnemonic]; ok {
		return true
	}
	return otherOps[mnemonic]
}

func isRegister(token string) bool {
	return len(token) == 2 && (token[0] == 'V' || token[0] == 'v') &&
		strings.ContainsRune("0123456789ABCDEFabcdef", rune(token[1]))
}

func parseRegister(token string, lineNo int) (uint16, error) {
	if !isRegister(token) {
		return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
	}
	reg, _ := strconv.ParseUint(token[1:], 16, 8)
	return uint16(reg), nil
}

// parseNumber accepts Go integer literals and $-prefixed hexadecimal.
func parseNumber(token string) (uint32, error) {
	if hex, ok := strings.CutPrefix(token, "$"); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		return uint32(v), err
	}
	v, err := strconv.ParseUint(token, 0, 32)
	return uint32(v), err
}

// parseValue resolves a number or label and checks it against limit.
func (a *Assembler) parseValue(token string, limit uint16, lineNo int) (uint16, error) {
	if value, err := parseNumber(token); err == nil {
		if value > uint32(limit) {
			return 0, fmt.Errorf("immediate out of range on line %d: %s", lineNo, token)
		}
		return uint16(value), nil
	}

	label := normalizeLabel(token)
	if addr, ok := a.labels[label]; ok {
		if addr > limit {
			return 0, fmt.Errorf("label '%s' out of range on line %d", token, lineNo)
		}
		return addr, nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid immediate '%s' on line %d", token, lineNo)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}
