package frame

import "errors"

// ErrEmptyStack is returned when a Stack is read before Reset
var ErrEmptyStack = errors.New("frame stack is empty")

// Stack is a fixed-size window over the most recent frames. After Reset it
// always holds exactly Size frames: every Push evicts the oldest.
type Stack struct {
	size   int
	frames []*Frame
}

// NewStack creates a window of size frames
func NewStack(size int) *Stack {
	if size <= 0 {
		panic("frame stack size must be positive")
	}
	return &Stack{size: size}
}

// Reset fills the window with first
func (s *Stack) Reset(first *Frame) {
	s.frames = make([]*Frame, s.size)
	for i := range s.frames {
		s.frames[i] = first
	}
}

// Push evicts the oldest frame and appends f as the newest
func (s *Stack) Push(f *Frame) error {
	if len(s.frames) == 0 {
		return ErrEmptyStack
	}
	copy(s.frames, s.frames[1:])
	s.frames[len(s.frames)-1] = f
	return nil
}

// Newest returns the most recently pushed frame
func (s *Stack) Newest() (*Frame, error) {
	if len(s.frames) == 0 {
		return nil, ErrEmptyStack
	}
	return s.frames[len(s.frames)-1], nil
}

// Len returns the number of frames held
func (s *Stack) Len() int {
	return len(s.frames)
}

// Size returns the configured window size
func (s *Stack) Size() int {
	return s.size
}

// Frames returns the window from oldest to newest
func (s *Stack) Frames() []*Frame {
	out := make([]*Frame, len(s.frames))
	copy(out, s.frames)
	return out
}
