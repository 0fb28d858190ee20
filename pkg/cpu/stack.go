package cpu

// StackSize is the maximum subroutine nesting depth.
const StackSize = 16

// Stack holds return addresses for CALL/RET.
type Stack struct {
	entries [StackSize]uint16
	length  int
}

// Push stores a return address. It fails with ErrStackOverflow when all
// StackSize entries are in use.
func (s *Stack) Push(addr uint16) error {
	if s.length == StackSize {
		return ErrStackOverflow
	}
	s.entries[s.length] = addr
	s.length++
	return nil
}

// Pop removes and returns the most recently pushed address.
func (s *Stack) Pop() (uint16, error) {
	if s.length == 0 {
		return 0, ErrEmptyStack
	}
	s.length--
	addr := s.entries[s.length]
	s.entries[s.length] = 0
	return addr, nil
}

func (s *Stack) Len() int {
	return s.length
}

// Peek returns the pending return addresses, oldest first.
func (s *Stack) Peek() []uint16 {
	out := make([]uint16, s.length)
	copy(out, s.entries[:s.length])
	return out
}

func (s *Stack) Reset() {
	*s = Stack{}
}
