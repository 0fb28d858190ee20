// Package keypad maps a physical QWERTY keyboard block onto the sixteen
// logical key codes.
package keypad

import (
	"unicode"

	"gochip8/pkg/cpu"
)

// Layout lists the physical key for every logical code, in code order:
//
//	1 2 3 4
//	Q W E R
//	A S D F
//	Z X C V
var Layout = [cpu.KeyCount]rune{
	'1', '2', '3', '4',
	'q', 'w', 'e', 'r',
	'a', 's', 'd', 'f',
	'z', 'x', 'c', 'v',
}

var byRune = func() map[rune]cpu.Key {
	m := make(map[rune]cpu.Key, len(Layout))
	for code, r := range Layout {
		m[r] = cpu.Key(code)
	}
	return m
}()

// FromRune returns the logical code for a typed character. Letters match
// in either case.
func FromRune(r rune) (cpu.Key, bool) {
	key, ok := byRune[unicode.ToLower(r)]
	return key, ok
}

// Rune returns the physical key for a logical code.
func Rune(key cpu.Key) rune {
	if int(key) >= len(Layout) {
		return 0
	}
	return Layout[key]
}

// First returns the lowest logical code for which held reports true, or
// cpu.NoKey when nothing is held.
func First(held func(cpu.Key) bool) cpu.Key {
	for code := range cpu.KeyCount {
		if held(cpu.Key(code)) {
			return cpu.Key(code)
		}
	}
	return cpu.NoKey
}
