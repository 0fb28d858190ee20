package cpu

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestStackPushPop(t *testing.T) {
	var s Stack

	for i := range StackSize {
		assert.NoError(t, s.Push(uint16(0x200+i*2)))
	}
	assert.Equal(t, StackSize, s.Len())

	err := s.Push(0x300)
	assert.True(t, errors.Is(err, ErrStackOverflow))
	assert.Equal(t, StackSize, s.Len())

	for i := StackSize - 1; i >= 0; i-- {
		addr, err := s.Pop()
		assert.NoError(t, err)
		assert.Equal(t, uint16(0x200+i*2), addr)
	}
	assert.Equal(t, 0, s.Len())

	_, err = s.Pop()
	assert.True(t, errors.Is(err, ErrEmptyStack))
}

func TestStackPeek(t *testing.T) {
	var s Stack
	assert.Empty(t, s.Peek())

	assert.NoError(t, s.Push(0x202))
	assert.NoError(t, s.Push(0x30A))
	assert.Equal(t, []uint16{0x202, 0x30A}, s.Peek())

	s.Reset()
	assert.Equal(t, 0, s.Len())
	_, err := s.Pop()
	assert.True(t, errors.Is(err, ErrEmptyStack))
}
