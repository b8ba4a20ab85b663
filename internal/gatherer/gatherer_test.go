package gatherer

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/DoomGatherer/internal/action"
	"github.com/mitchelldurbincs/DoomGatherer/internal/env"
	"github.com/mitchelldurbincs/DoomGatherer/internal/policy"
	"github.com/mitchelldurbincs/DoomGatherer/internal/preprocess"
	"github.com/mitchelldurbincs/DoomGatherer/internal/testutil"
)

// countingEnv counts Step calls on the wrapped environment
type countingEnv struct {
	Environment
	steps int
}

func (c *countingEnv) Step(a action.Action, repeat int) (float64, error) {
	c.steps++
	return c.Environment.Step(a, repeat)
}

// scriptedEnv serves a fixed number of steps. frameAt decides whether a
// frame is visible after the given number of steps.
type scriptedEnv struct {
	length   int
	frameAt  func(step int) bool
	stepErr  error
	startErr error

	step    int
	repeats []int
}

func (s *scriptedEnv) StartEpisode() error {
	s.step = 0
	return s.startErr
}

func (s *scriptedEnv) IsFinished() bool {
	return s.step >= s.length
}

func (s *scriptedEnv) CurrentFrame() (image.Image, error) {
	if s.IsFinished() || (s.frameAt != nil && !s.frameAt(s.step)) {
		return nil, nil
	}
	return testutil.StripedImage(64, 48), nil
}

func (s *scriptedEnv) Step(a action.Action, repeat int) (float64, error) {
	if s.stepErr != nil {
		return 0, s.stepErr
	}
	s.step++
	s.repeats = append(s.repeats, repeat)
	return -1, nil
}

func newPolicy(t *testing.T, names ...string) *policy.RandomPolicy {
	t.Helper()
	set, err := action.NewSet(names)
	require.NoError(t, err)
	p, err := policy.NewRandom(set, testutil.NewTestRNG(3))
	require.NoError(t, err)
	return p
}

func newPipeline(t *testing.T, h, w, c int) *preprocess.Pipeline {
	t.Helper()
	p, err := preprocess.New(preprocess.NewConfig(h, w, c))
	require.NoError(t, err)
	return p
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Episodes: 1, SkipRate: 3, NumFrames: 4}.Validate())
	assert.NoError(t, Config{Episodes: 0, SkipRate: 1, NumFrames: 1}.Validate())
	assert.Error(t, Config{Episodes: -1, SkipRate: 3, NumFrames: 4}.Validate())
	assert.Error(t, Config{Episodes: 1, SkipRate: 0, NumFrames: 4}.Validate())
	assert.Error(t, Config{Episodes: 1, SkipRate: 3, NumFrames: 0}.Validate())
}

func TestEndToEndSyntheticEpisode(t *testing.T) {
	eng := testutil.NewSyntheticEngine(11)
	e, err := env.Open(eng, testutil.SmallScenario(), testutil.NopLogger())
	require.NoError(t, err)
	defer e.Close()

	counter := &countingEnv{Environment: e}
	g, err := New(Config{Episodes: 1, SkipRate: 3, NumFrames: 4}, counter,
		newPipeline(t, 84, 84, 1), newPolicy(t, "shoot", "left", "right"), testutil.NopLogger())
	require.NoError(t, err)

	mem, err := g.Run(context.Background())
	require.NoError(t, err)

	require.Positive(t, mem.Len())
	assert.Equal(t, counter.steps, mem.Len(), "one transition per step call")
	for i, tr := range mem.Transitions() {
		assert.Equal(t, [3]int{84, 84, 1}, tr.State.Shape(), "transition %d", i)
		assert.Equal(t, [3]int{84, 84, 1}, tr.NextState.Shape(), "transition %d", i)
		assert.Equal(t, [3]int{1, 1, 3}, tr.Action.Shape)
		assert.GreaterOrEqual(t, tr.Action.Index(), 0)
	}

	last := mem.At(mem.Len() - 1)
	assert.True(t, last.NextState.IsZero(), "episode end records the terminal frame")
	assert.Equal(t, 4, g.Window().Len())
	assert.Equal(t, Stats{Episodes: 1, Transitions: mem.Len(), Duration: g.Stats().Duration}, g.Stats())
}

func TestTransitionsChainThroughWindow(t *testing.T) {
	script := &scriptedEnv{length: 5}
	g, err := New(Config{Episodes: 2, SkipRate: 3, NumFrames: 3}, script,
		newPipeline(t, 8, 8, 3), newPolicy(t, "left", "right"), testutil.NopLogger())
	require.NoError(t, err)

	mem, err := g.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, mem.Len())

	for i := 1; i < 5; i++ {
		assert.Same(t, mem.At(i-1).NextState, mem.At(i).State,
			"next state of one step is the state of the following step")
	}
	for _, r := range script.repeats {
		assert.Equal(t, 3, r)
	}
}

func TestTerminalFrameMidEpisode(t *testing.T) {
	// No frame is visible after the second step, then frames return
	script := &scriptedEnv{length: 4, frameAt: func(step int) bool { return step != 2 }}
	g, err := New(Config{Episodes: 1, SkipRate: 1, NumFrames: 2}, script,
		newPipeline(t, 10, 12, 1), newPolicy(t, "shoot"), testutil.NopLogger())
	require.NoError(t, err)

	mem, err := g.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, mem.Len())

	terminal := mem.At(1).NextState
	assert.Equal(t, [3]int{10, 12, 1}, terminal.Shape())
	assert.True(t, terminal.IsZero())
	assert.Same(t, terminal, mem.At(2).State)
	assert.False(t, mem.At(2).NextState.IsZero())
}

func TestWindowKeepsSizeThroughRun(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		script := &scriptedEnv{length: 7}
		g, err := New(Config{Episodes: 1, SkipRate: 2, NumFrames: n}, script,
			newPipeline(t, 6, 6, 1), newPolicy(t, "left"), testutil.NopLogger())
		require.NoError(t, err)

		_, err = g.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, n, g.Window().Len())
	}
}

func TestZeroEpisodes(t *testing.T) {
	script := &scriptedEnv{length: 3}
	g, err := New(Config{Episodes: 0, SkipRate: 1, NumFrames: 1}, script,
		newPipeline(t, 6, 6, 1), newPolicy(t, "left"), testutil.NopLogger())
	require.NoError(t, err)

	mem, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, mem.Len())
}

func TestErrorsAbortRun(t *testing.T) {
	boom := errors.New("engine crashed")

	t.Run("step error", func(t *testing.T) {
		script := &scriptedEnv{length: 3, stepErr: boom}
		g, err := New(Config{Episodes: 1, SkipRate: 1, NumFrames: 1}, script,
			newPipeline(t, 6, 6, 1), newPolicy(t, "left"), testutil.NopLogger())
		require.NoError(t, err)

		mem, err := g.Run(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, mem)
	})

	t.Run("start error", func(t *testing.T) {
		script := &scriptedEnv{length: 3, startErr: boom}
		g, err := New(Config{Episodes: 1, SkipRate: 1, NumFrames: 1}, script,
			newPipeline(t, 6, 6, 1), newPolicy(t, "left"), testutil.NopLogger())
		require.NoError(t, err)

		_, err = g.Run(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no first frame", func(t *testing.T) {
		script := &scriptedEnv{length: 3, frameAt: func(int) bool { return false }}
		g, err := New(Config{Episodes: 1, SkipRate: 1, NumFrames: 1}, script,
			newPipeline(t, 6, 6, 1), newPolicy(t, "left"), testutil.NopLogger())
		require.NoError(t, err)

		_, err = g.Run(context.Background())
		assert.ErrorIs(t, err, ErrNoFrame)
	})
}

func TestCancelledContext(t *testing.T) {
	script := &scriptedEnv{length: 3}
	g, err := New(Config{Episodes: 2, SkipRate: 1, NumFrames: 1}, script,
		newPipeline(t, 6, 6, 1), newPolicy(t, "left"), testutil.NopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mem, err := g.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, mem)
	assert.Empty(t, script.repeats)
}

func TestPhaseTransitions(t *testing.T) {
	assert.True(t, PhaseNotStarted.CanTransitionTo(PhaseRunning))
	assert.False(t, PhaseNotStarted.CanTransitionTo(PhaseFinished))
	assert.True(t, PhaseRunning.CanTransitionTo(PhaseRunning))
	assert.True(t, PhaseRunning.CanTransitionTo(PhaseFinished))
	assert.False(t, PhaseFinished.CanTransitionTo(PhaseRunning))
	assert.True(t, PhaseFinished.IsTerminal())
	assert.Equal(t, "Running", PhaseRunning.String())
	assert.Equal(t, "Unknown(9)", EpisodePhase(9).String())

	ep := &episode{index: 0}
	err := ep.transitionTo(PhaseFinished)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, PhaseNotStarted, ep.phase)
}
