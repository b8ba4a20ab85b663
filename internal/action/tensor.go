package action

import (
	"fmt"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var t Tensor
	serializer.RegisterTypedDeserializer(t.SerializerType(), DeserializeTensor)
}

// Tensor is an action encoded for the learner: a one-hot float32 vector with
// shape [1, 1, n].
type Tensor struct {
	Shape [3]int
	Data  []float32
}

// DeserializeTensor deserializes a Tensor.
func DeserializeTensor(d []byte) (*Tensor, error) {
	var res Tensor
	var data serializer.Float32Slice
	if err := serializer.DeserializeAny(d, &res.Shape[0], &res.Shape[1], &res.Shape[2], &data); err != nil {
		return nil, essentials.AddCtx("deserialize action Tensor", err)
	}
	res.Data = []float32(data)
	if res.Shape[0]*res.Shape[1]*res.Shape[2] != len(res.Data) {
		return nil, fmt.Errorf("deserialize action Tensor: shape %v does not hold %d values",
			res.Shape, len(res.Data))
	}
	return &res, nil
}

// Index returns the position of the hot entry, or -1 if t is not one-hot.
func (t *Tensor) Index() int {
	idx := -1
	for i, x := range t.Data {
		switch x {
		case 0:
		case 1:
			if idx != -1 {
				return -1
			}
			idx = i
		default:
			return -1
		}
	}
	return idx
}

// SerializerType returns the unique ID used to serialize a Tensor with the
// serializer package.
func (t *Tensor) SerializerType() string {
	return "github.com/mitchelldurbincs/DoomGatherer/internal/action.Tensor"
}

// Serialize serializes the Tensor.
func (t *Tensor) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		t.Shape[0], t.Shape[1], t.Shape[2],
		serializer.Float32Slice(t.Data),
	)
}
