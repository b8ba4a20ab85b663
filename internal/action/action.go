// Package action defines the discrete action set the gatherer samples from
// and the one-hot tensor recorded with every transition.
package action

import (
	"errors"
	"fmt"

	"github.com/mitchelldurbincs/DoomGatherer/internal/engine"
)

var (
	// ErrEmptySet is returned when an action set has no actions
	ErrEmptySet = errors.New("action set is empty")
	// ErrUnknownAction is returned for names outside the known actions
	ErrUnknownAction = errors.New("unknown action")
)

// buttonsFor maps action names to the engine button they press
var buttonsFor = map[string]engine.Button{
	"shoot": engine.ButtonAttack,
	"left":  engine.ButtonMoveLeft,
	"right": engine.ButtonMoveRight,
}

// Action is one member of a Set
type Action struct {
	Name   string
	Index  int
	Button engine.Button

	setSize int
}

// Set is an ordered, immutable list of actions
type Set struct {
	actions []Action
}

// NewSet builds a Set from action names. Order is preserved and decides the
// one-hot index of every action.
func NewSet(names []string) (*Set, error) {
	if len(names) == 0 {
		return nil, ErrEmptySet
	}

	actions := make([]Action, len(names))
	for i, name := range names {
		button, ok := buttonsFor[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
		}
		actions[i] = Action{
			Name:    name,
			Index:   i,
			Button:  button,
			setSize: len(names),
		}
	}

	return &Set{actions: actions}, nil
}

// Len returns the number of actions in the set
func (s *Set) Len() int {
	return len(s.actions)
}

// At returns the action with the given index
func (s *Set) At(i int) Action {
	return s.actions[i]
}

// Actions returns a copy of the actions in order
func (s *Set) Actions() []Action {
	out := make([]Action, len(s.actions))
	copy(out, s.actions)
	return out
}

// OneHot returns the one-hot vector of a over its set
func (a Action) OneHot() []float32 {
	v := make([]float32, a.setSize)
	v[a.Index] = 1
	return v
}

// Buttons returns the engine button vector pressing only a's button, laid out
// in the order of available.
func (a Action) Buttons(available []engine.Button) []float64 {
	v := make([]float64, len(available))
	for i, b := range available {
		if b == a.Button {
			v[i] = 1
		}
	}
	return v
}

// Tensor returns the one-hot vector reshaped to [1, 1, |set|]
func (a Action) Tensor() *Tensor {
	return &Tensor{
		Shape: [3]int{1, 1, a.setSize},
		Data:  a.OneHot(),
	}
}
