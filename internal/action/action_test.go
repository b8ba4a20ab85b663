package action

import (
	"testing"

	"github.com/mitchelldurbincs/DoomGatherer/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/serializer"
)

func TestNewSet(t *testing.T) {
	set, err := NewSet([]string{"shoot", "left", "right"})
	require.NoError(t, err)
	require.Equal(t, 3, set.Len())

	assert.Equal(t, "shoot", set.At(0).Name)
	assert.Equal(t, engine.ButtonAttack, set.At(0).Button)
	assert.Equal(t, engine.ButtonMoveLeft, set.At(1).Button)
	assert.Equal(t, engine.ButtonMoveRight, set.At(2).Button)

	_, err = NewSet(nil)
	assert.ErrorIs(t, err, ErrEmptySet)

	_, err = NewSet([]string{"jump"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestTensorIsOneHot(t *testing.T) {
	set, err := NewSet([]string{"shoot", "left", "right"})
	require.NoError(t, err)

	for i, a := range set.Actions() {
		tensor := a.Tensor()
		assert.Equal(t, [3]int{1, 1, set.Len()}, tensor.Shape)
		require.Len(t, tensor.Data, set.Len())
		assert.Equal(t, i, tensor.Index())

		var sum float32
		for _, x := range tensor.Data {
			sum += x
		}
		assert.Equal(t, float32(1), sum)
	}
}

func TestTensorShapeFollowsSetSize(t *testing.T) {
	set, err := NewSet([]string{"left", "right"})
	require.NoError(t, err)

	tensor := set.At(1).Tensor()
	assert.Equal(t, [3]int{1, 1, 2}, tensor.Shape)
	assert.Equal(t, []float32{0, 1}, tensor.Data)
}

func TestButtons(t *testing.T) {
	set, err := NewSet([]string{"shoot", "left", "right"})
	require.NoError(t, err)

	available := engine.BasicScenario().Buttons
	assert.Equal(t, []float64{0, 0, 1}, set.At(0).Buttons(available), "shoot presses ATTACK")
	assert.Equal(t, []float64{1, 0, 0}, set.At(1).Buttons(available), "left presses MOVE_LEFT")
	assert.Equal(t, []float64{0, 1, 0}, set.At(2).Buttons(available), "right presses MOVE_RIGHT")
}

func TestTensorIndexRejectsNonOneHot(t *testing.T) {
	assert.Equal(t, -1, (&Tensor{Data: []float32{0, 0, 0}}).Index())
	assert.Equal(t, -1, (&Tensor{Data: []float32{1, 1, 0}}).Index())
	assert.Equal(t, -1, (&Tensor{Data: []float32{0.5, 0, 0}}).Index())
}

func TestTensorSerialize(t *testing.T) {
	set, err := NewSet([]string{"shoot", "left", "right"})
	require.NoError(t, err)
	tensor := set.At(2).Tensor()

	data, err := serializer.SerializeAny(tensor)
	require.NoError(t, err)

	var tensor1 *Tensor
	require.NoError(t, serializer.DeserializeAny(data, &tensor1))
	assert.Equal(t, tensor, tensor1)
}
