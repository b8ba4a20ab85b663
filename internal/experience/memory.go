package experience

import (
	"fmt"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

// Memory is the flat, append-only list of transitions gathered over every
// episode of a run. It grows without bound.
type Memory struct {
	transitions []*Transition
}

// NewMemory creates an empty memory
func NewMemory() *Memory {
	return &Memory{}
}

// Add appends t
func (m *Memory) Add(t *Transition) {
	m.transitions = append(m.transitions, t)
}

// Len returns the number of transitions recorded
func (m *Memory) Len() int {
	return len(m.transitions)
}

// At returns the i-th transition in recording order
func (m *Memory) At(i int) *Transition {
	return m.transitions[i]
}

// Transitions returns the recorded transitions in order
func (m *Memory) Transitions() []*Transition {
	out := make([]*Transition, len(m.transitions))
	copy(out, m.transitions)
	return out
}

// DeserializeMemory deserializes a Memory.
func DeserializeMemory(d []byte) (*Memory, error) {
	objs, err := serializer.DeserializeSlice(d)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Memory", err)
	}
	res := &Memory{transitions: make([]*Transition, len(objs))}
	for i, obj := range objs {
		t, ok := obj.(*Transition)
		if !ok {
			return nil, fmt.Errorf("deserialize Memory: entry %d is %T, not a transition", i, obj)
		}
		res.transitions[i] = t
	}
	return res, nil
}

// SerializerType returns the unique ID used to serialize a Memory with the
// serializer package.
func (m *Memory) SerializerType() string {
	return "github.com/mitchelldurbincs/DoomGatherer/internal/experience.Memory"
}

// Serialize serializes the Memory.
func (m *Memory) Serialize() ([]byte, error) {
	objs := make([]serializer.Serializer, len(m.transitions))
	for i, t := range m.transitions {
		objs[i] = t
	}
	return serializer.SerializeSlice(objs)
}
