// Package experience records (state, action, next_state) transitions and
// persists them as one binary object file.
package experience

import (
	"errors"
	"fmt"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"

	"github.com/mitchelldurbincs/DoomGatherer/internal/action"
	"github.com/mitchelldurbincs/DoomGatherer/internal/frame"
)

// ErrIncompleteTransition is returned when a transition misses a component
var ErrIncompleteTransition = errors.New("transition is missing state, action or next state")

func init() {
	var t Transition
	serializer.RegisterTypedDeserializer(t.SerializerType(), DeserializeTransition)
	var m Memory
	serializer.RegisterTypedDeserializer(m.SerializerType(), DeserializeMemory)
}

// Transition is one recorded step. It is not modified after creation.
type Transition struct {
	State     *frame.Frame
	Action    *action.Tensor
	NextState *frame.Frame
}

// NewTransition checks that every component is present
func NewTransition(state *frame.Frame, act *action.Tensor, next *frame.Frame) (*Transition, error) {
	if state == nil || act == nil || next == nil {
		return nil, ErrIncompleteTransition
	}
	if state.Shape() != next.Shape() {
		return nil, fmt.Errorf("state shape %v differs from next state shape %v",
			state.Shape(), next.Shape())
	}
	return &Transition{State: state, Action: act, NextState: next}, nil
}

// DeserializeTransition deserializes a Transition.
func DeserializeTransition(d []byte) (*Transition, error) {
	var res Transition
	if err := serializer.DeserializeAny(d, &res.State, &res.Action, &res.NextState); err != nil {
		return nil, essentials.AddCtx("deserialize Transition", err)
	}
	return &res, nil
}

// SerializerType returns the unique ID used to serialize a Transition with
// the serializer package.
func (t *Transition) SerializerType() string {
	return "github.com/mitchelldurbincs/DoomGatherer/internal/experience.Transition"
}

// Serialize serializes the Transition.
func (t *Transition) Serialize() ([]byte, error) {
	return serializer.SerializeAny(t.State, t.Action, t.NextState)
}
