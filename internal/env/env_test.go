package env

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/DoomGatherer/internal/action"
	"github.com/mitchelldurbincs/DoomGatherer/internal/engine"
	"github.com/mitchelldurbincs/DoomGatherer/internal/engine/synthetic"
)

// countingEngine records Close calls on top of the synthetic engine
type countingEngine struct {
	*synthetic.Engine
	initErr error
	closes  int
}

func (c *countingEngine) Init(cfg engine.Config) error {
	if c.initErr != nil {
		return c.initErr
	}
	return c.Engine.Init(cfg)
}

func (c *countingEngine) Close() error {
	c.closes++
	return c.Engine.Close()
}

func newCountingEngine() *countingEngine {
	return &countingEngine{Engine: synthetic.New(rand.New(rand.NewSource(7)), zerolog.Nop())}
}

func smallScenario() engine.Config {
	cfg := engine.BasicScenario()
	cfg.Resolution = engine.Res160x120
	return cfg
}

func TestOpenAndStep(t *testing.T) {
	eng := newCountingEngine()
	e, err := Open(eng, smallScenario(), zerolog.Nop())
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.StartEpisode())
	assert.False(t, e.IsFinished())

	img, err := e.CurrentFrame()
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())

	set, err := action.NewSet([]string{"left", "right", "shoot"})
	require.NoError(t, err)
	reward, err := e.Step(set.At(0), 3)
	require.NoError(t, err)
	assert.Equal(t, -3.0, reward)
}

func TestCurrentFrameNilAtEpisodeEnd(t *testing.T) {
	e, err := Open(newCountingEngine(), smallScenario(), zerolog.Nop())
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.StartEpisode())
	set, err := action.NewSet([]string{"left"})
	require.NoError(t, err)
	for !e.IsFinished() {
		_, err := e.Step(set.At(0), 5)
		require.NoError(t, err)
	}

	img, err := e.CurrentFrame()
	require.NoError(t, err)
	assert.Nil(t, img)

	_, err = e.Step(set.At(0), 1)
	assert.ErrorIs(t, err, engine.ErrEpisodeFinished)
}

func TestOpenClosesOnInitFailure(t *testing.T) {
	eng := newCountingEngine()
	eng.initErr = errors.New("no wad")

	_, err := Open(eng, smallScenario(), zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no wad")
	assert.Equal(t, 1, eng.closes)
}

func TestCloseIsIdempotent(t *testing.T) {
	eng := newCountingEngine()
	e, err := Open(eng, smallScenario(), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.Equal(t, 1, eng.closes)
}

func TestWithReleasesOnEveryPath(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		eng := newCountingEngine()
		err := With(eng, smallScenario(), zerolog.Nop(), func(e *Env) error {
			return e.StartEpisode()
		})
		require.NoError(t, err)
		assert.Equal(t, 1, eng.closes)
	})

	t.Run("error", func(t *testing.T) {
		eng := newCountingEngine()
		boom := errors.New("boom")
		err := With(eng, smallScenario(), zerolog.Nop(), func(*Env) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, eng.closes)
	})

	t.Run("panic", func(t *testing.T) {
		eng := newCountingEngine()
		assert.Panics(t, func() {
			_ = With(eng, smallScenario(), zerolog.Nop(), func(*Env) error {
				panic("preprocessing blew up")
			})
		})
		assert.Equal(t, 1, eng.closes)
	})
}
