// Package env wraps an engine session started with a fixed scenario and
// exposes the small surface the gatherer drives.
package env

import (
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/DoomGatherer/internal/action"
	"github.com/mitchelldurbincs/DoomGatherer/internal/engine"
	"github.com/mitchelldurbincs/DoomGatherer/internal/frame"
)

// Env is an initialized engine session. It is not safe for concurrent use.
type Env struct {
	eng      engine.Engine
	scenario engine.Config
	logger   zerolog.Logger
	closed   bool
}

// Open applies scenario to eng and starts the session. The engine is closed
// again if initialization fails.
func Open(eng engine.Engine, scenario engine.Config, logger zerolog.Logger) (*Env, error) {
	logger = logger.With().Str("component", "env").Logger()
	if err := eng.Init(scenario); err != nil {
		if cerr := eng.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close engine after init error")
		}
		return nil, fmt.Errorf("failed to start engine session: %w", err)
	}
	w, h := scenario.Resolution.Size()
	logger.Info().
		Str("scenario", scenario.ScenarioPath).
		Str("map", scenario.Map).
		Int("width", w).
		Int("height", h).
		Int("timeout", scenario.EpisodeTimeout).
		Msg("Engine session started")
	return &Env{eng: eng, scenario: scenario, logger: logger}, nil
}

// With opens a session, runs fn and closes the session on every exit path,
// including a panic inside fn.
func With(eng engine.Engine, scenario engine.Config, logger zerolog.Logger, fn func(*Env) error) (err error) {
	e, err := Open(eng, scenario, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close engine session: %w", cerr))
		}
	}()
	return fn(e)
}

// Scenario returns the parameter bundle the session was started with
func (e *Env) Scenario() engine.Config {
	return e.scenario
}

// StartEpisode resets the simulation
func (e *Env) StartEpisode() error {
	if err := e.eng.NewEpisode(); err != nil {
		return fmt.Errorf("failed to start episode: %w", err)
	}
	return nil
}

// IsFinished reports whether the current episode has ended
func (e *Env) IsFinished() bool {
	return e.eng.IsEpisodeFinished()
}

// CurrentFrame returns the current screen, or nil once the episode ended
func (e *Env) CurrentFrame() (image.Image, error) {
	state := e.eng.State()
	if state == nil {
		return nil, nil
	}
	img, err := frame.FromRGB24(state.ScreenBuffer, state.Width, state.Height)
	if err != nil {
		return nil, fmt.Errorf("invalid screen buffer at tic %d: %w", state.Tic, err)
	}
	return img, nil
}

// Step holds a for repeat ticks and returns the accumulated reward
func (e *Env) Step(a action.Action, repeat int) (float64, error) {
	reward, err := e.eng.MakeAction(a.Buttons(e.scenario.Buttons), repeat)
	if err != nil {
		return reward, fmt.Errorf("failed to apply action %s: %w", a.Name, err)
	}
	return reward, nil
}

// Close shuts the engine down. Calling Close again is a no-op.
func (e *Env) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.logger.Debug().Msg("Closing engine session")
	return e.eng.Close()
}
