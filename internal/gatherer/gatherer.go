// Package gatherer runs episodes with a random policy and records every
// step as a transition.
package gatherer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/DoomGatherer/internal/action"
	"github.com/mitchelldurbincs/DoomGatherer/internal/experience"
	"github.com/mitchelldurbincs/DoomGatherer/internal/frame"
	"github.com/mitchelldurbincs/DoomGatherer/internal/policy"
	"github.com/mitchelldurbincs/DoomGatherer/internal/preprocess"
)

// ErrNoFrame is returned when a freshly started episode has no observation
var ErrNoFrame = errors.New("episode started without a frame")

// Environment is the engine surface the gatherer drives. *env.Env
// implements it.
type Environment interface {
	StartEpisode() error
	IsFinished() bool
	// CurrentFrame returns nil once the simulation has no further state
	CurrentFrame() (image.Image, error)
	Step(a action.Action, repeat int) (float64, error)
}

// Config controls the gathering loop
type Config struct {
	// Episodes is the number of episodes to play
	Episodes int
	// SkipRate is the number of ticks each sampled action is held for
	SkipRate int
	// NumFrames is the size of the sliding frame window
	NumFrames int
}

// Validate checks the loop parameters
func (c Config) Validate() error {
	if c.Episodes < 0 {
		return fmt.Errorf("episode count must be non-negative, got %d", c.Episodes)
	}
	if c.SkipRate < 1 {
		return fmt.Errorf("skip rate must be positive, got %d", c.SkipRate)
	}
	if c.NumFrames < 1 {
		return fmt.Errorf("frame window must hold at least one frame, got %d", c.NumFrames)
	}
	return nil
}

// Stats summarizes a finished run
type Stats struct {
	Episodes    int
	Transitions int
	Duration    time.Duration
}

// Gatherer plays episodes and accumulates transitions in memory
type Gatherer struct {
	cfg      Config
	env      Environment
	pipeline *preprocess.Pipeline
	policy   policy.Policy
	logger   zerolog.Logger

	stack *frame.Stack
	stats Stats
}

// New creates a gatherer
func New(cfg Config, env Environment, pipeline *preprocess.Pipeline, p policy.Policy, logger zerolog.Logger) (*Gatherer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gatherer config: %w", err)
	}
	return &Gatherer{
		cfg:      cfg,
		env:      env,
		pipeline: pipeline,
		policy:   p,
		logger:   logger.With().Str("component", "gatherer").Logger(),
		stack:    frame.NewStack(cfg.NumFrames),
	}, nil
}

// Run plays every episode and returns the recorded transitions. Any error
// aborts the run and discards what was gathered.
func (g *Gatherer) Run(ctx context.Context) (*experience.Memory, error) {
	start := time.Now()
	mem := experience.NewMemory()
	g.stats = Stats{}

	g.logger.Info().
		Int("episodes", g.cfg.Episodes).
		Int("skip_rate", g.cfg.SkipRate).
		Int("num_frames", g.cfg.NumFrames).
		Msg("Starting gathering run")

	for i := 0; i < g.cfg.Episodes; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("gathering interrupted before episode %d: %w", i, err)
		}
		if err := g.runEpisode(ctx, i, mem); err != nil {
			return nil, err
		}
		g.stats.Episodes++
	}

	g.stats.Transitions = mem.Len()
	g.stats.Duration = time.Since(start)
	g.logger.Info().
		Int("episodes", g.stats.Episodes).
		Int("transitions", g.stats.Transitions).
		Dur("duration", g.stats.Duration).
		Msg("Gathering run complete")
	return mem, nil
}

// Stats returns the summary of the last Run
func (g *Gatherer) Stats() Stats {
	return g.stats
}

func (g *Gatherer) runEpisode(ctx context.Context, index int, mem *experience.Memory) error {
	ep := &episode{index: index, phase: PhaseNotStarted}

	if err := g.env.StartEpisode(); err != nil {
		return err
	}
	img, err := g.env.CurrentFrame()
	if err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("episode %d: %w", index, ErrNoFrame)
	}
	first, err := g.pipeline.Process(img)
	if err != nil {
		return fmt.Errorf("episode %d: failed to preprocess first frame: %w", index, err)
	}
	g.stack.Reset(first)
	if err := ep.transitionTo(PhaseRunning); err != nil {
		return err
	}

	for !g.env.IsFinished() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("gathering interrupted in episode %d: %w", index, err)
		}
		if err := g.step(ep, mem); err != nil {
			return err
		}
	}

	if err := ep.transitionTo(PhaseFinished); err != nil {
		return err
	}
	g.logger.Info().
		Int("episode", index+1).
		Int("of", g.cfg.Episodes).
		Int("steps", ep.steps).
		Float64("reward", ep.reward).
		Int("transitions", mem.Len()).
		Msg("Episode finished")
	return nil
}

// step records one transition: the newest frame before acting, the sampled
// action, and the newest frame after the window moved on.
func (g *Gatherer) step(ep *episode, mem *experience.Memory) error {
	state, err := g.stack.Newest()
	if err != nil {
		return err
	}
	act, err := g.policy.SelectAction(state)
	if err != nil {
		return fmt.Errorf("failed to select action: %w", err)
	}
	reward, err := g.env.Step(act, g.cfg.SkipRate)
	if err != nil {
		return err
	}

	next, err := g.observe()
	if err != nil {
		return fmt.Errorf("episode %d step %d: %w", ep.index, ep.steps, err)
	}
	if err := g.stack.Push(next); err != nil {
		return err
	}
	nextState, err := g.stack.Newest()
	if err != nil {
		return err
	}

	t, err := experience.NewTransition(state, act.Tensor(), nextState)
	if err != nil {
		return err
	}
	mem.Add(t)

	ep.steps++
	ep.reward += reward
	if ep.steps%100 == 0 {
		g.logger.Debug().Int("episode", ep.index+1).Int("steps", ep.steps).Msg("Episode progress")
	}
	return ep.transitionTo(PhaseRunning)
}

// observe preprocesses the current frame, or returns the zero terminal frame
// once the simulation has no further state
func (g *Gatherer) observe() (*frame.Frame, error) {
	img, err := g.env.CurrentFrame()
	if err != nil {
		return nil, err
	}
	if img == nil {
		cfg := g.pipeline.Config()
		return frame.Terminal(cfg.Height, cfg.Width, cfg.Channels), nil
	}
	f, err := g.pipeline.Process(img)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess frame: %w", err)
	}
	return f, nil
}

// Window exposes the frame window for inspection
func (g *Gatherer) Window() *frame.Stack {
	return g.stack
}
