// Package gymengine drives a remote simulator through a gym-socket-api
// server. The server owns rendering and episode logic; this side enforces
// the session parameters it can see (screen size, timeout).
package gymengine

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/unixpickle/essentials"
	gym "github.com/unixpickle/gym-socket-api/binding-go"

	"github.com/mitchelldurbincs/DoomGatherer/internal/engine"
)

// ErrNoButtonPressed is returned when an action vector presses nothing.
// Gym environments take a single discrete action per step.
var ErrNoButtonPressed = errors.New("gym backend needs one pressed button per action")

// session is the part of a gym environment the engine uses
type session interface {
	Reset() ([]uint8, error)
	Step(action int) (obs []uint8, reward float64, done bool, err error)
	Close() error
}

// dialer opens a session on a gym server
type dialer func(host, name string) (session, error)

// Engine implements engine.Engine on top of a gym-socket-api server
type Engine struct {
	host   string
	name   string
	dial   dialer
	logger zerolog.Logger

	cfg    engine.Config
	sess   session
	closed bool

	tic      int
	finished bool
	state    *engine.State
}

// New creates an engine that connects to the environment name on host
func New(host, name string, logger zerolog.Logger) *Engine {
	return newWithDialer(host, name, dialSocket, logger)
}

func newWithDialer(host, name string, dial dialer, logger zerolog.Logger) *Engine {
	return &Engine{
		host: host,
		name: name,
		dial: dial,
		logger: logger.With().
			Str("component", "gym_engine").
			Str("host", host).
			Str("env", name).
			Logger(),
		finished: true,
	}
}

// Init applies cfg and connects to the server
func (e *Engine) Init(cfg engine.Config) error {
	if e.closed {
		return engine.ErrClosed
	}
	if e.sess != nil {
		return engine.ErrAlreadyInitialized
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	sess, err := e.dial(e.host, e.name)
	if err != nil {
		return essentials.AddCtx("init gym engine", err)
	}
	e.cfg = cfg
	e.sess = sess
	e.logger.Info().Str("resolution", cfg.Resolution.String()).Msg("Connected to gym server")
	return nil
}

// NewEpisode resets the remote environment
func (e *Engine) NewEpisode() error {
	if err := e.usable(); err != nil {
		return err
	}
	obs, err := e.sess.Reset()
	if err != nil {
		return essentials.AddCtx("reset gym env", err)
	}
	e.tic = 0
	e.finished = false
	return e.observe(obs)
}

// IsEpisodeFinished reports whether the current episode has ended
func (e *Engine) IsEpisodeFinished() bool {
	return e.finished
}

// State returns the last observation, or nil once the episode ended
func (e *Engine) State() *engine.State {
	if e.finished {
		return nil
	}
	return e.state
}

// MakeAction sends the pressed button as a discrete action tics times.
// Reward is summed over the tics actually simulated.
func (e *Engine) MakeAction(buttons []float64, tics int) (float64, error) {
	if err := e.usable(); err != nil {
		return 0, err
	}
	if e.finished {
		return 0, engine.ErrEpisodeFinished
	}
	if len(buttons) != len(e.cfg.Buttons) {
		return 0, fmt.Errorf("got %d button values, session has %d buttons",
			len(buttons), len(e.cfg.Buttons))
	}
	if tics < 1 {
		return 0, fmt.Errorf("tics must be positive, got %d", tics)
	}
	action, err := discreteAction(buttons)
	if err != nil {
		return 0, err
	}

	var total float64
	for i := 0; i < tics && !e.finished; i++ {
		obs, reward, done, err := e.sess.Step(action)
		if err != nil {
			return total, essentials.AddCtx("step gym env", err)
		}
		total += reward
		e.tic++
		if done || (e.cfg.EpisodeTimeout > 0 && e.tic >= e.cfg.EpisodeTimeout) {
			e.finished = true
			e.state = nil
			break
		}
		if err := e.observe(obs); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Close disconnects from the server. Calling Close again is a no-op.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.finished = true
	e.state = nil
	if e.sess == nil {
		return nil
	}
	e.logger.Debug().Msg("Closing gym session")
	return e.sess.Close()
}

func (e *Engine) usable() error {
	if e.closed {
		return engine.ErrClosed
	}
	if e.sess == nil {
		return engine.ErrNotInitialized
	}
	return nil
}

func (e *Engine) observe(obs []uint8) error {
	w, h := e.cfg.Resolution.Size()
	if len(obs) != w*h*3 {
		return fmt.Errorf("gym observation has %d bytes, expected %dx%d RGB24", len(obs), w, h)
	}
	e.state = &engine.State{
		Tic:          e.tic,
		ScreenBuffer: obs,
		Width:        w,
		Height:       h,
	}
	return nil
}

// discreteAction returns the index of the strongest pressed button
func discreteAction(buttons []float64) (int, error) {
	best := -1
	for i, v := range buttons {
		if v > 0 && (best < 0 || v > buttons[best]) {
			best = i
		}
	}
	if best < 0 {
		return 0, ErrNoButtonPressed
	}
	return best, nil
}

// uint8Obs is implemented by gym observations carrying raw pixels
type uint8Obs interface {
	Uint8Obs() []uint8
}

type socketSession struct {
	env gym.Env
}

func dialSocket(host, name string) (session, error) {
	env, err := gym.Make(host, name)
	if err != nil {
		return nil, essentials.AddCtx("connect to "+host, err)
	}
	return &socketSession{env: env}, nil
}

func (s *socketSession) Reset() ([]uint8, error) {
	obs, err := s.env.Reset()
	if err != nil {
		return nil, err
	}
	return pixels(obs)
}

func (s *socketSession) Step(action int) ([]uint8, float64, bool, error) {
	obs, reward, done, _, err := s.env.Step(action)
	if err != nil {
		return nil, 0, false, err
	}
	if done {
		return nil, reward, true, nil
	}
	pix, err := pixels(obs)
	return pix, reward, false, err
}

func (s *socketSession) Close() error {
	return s.env.Close()
}

func pixels(obs interface{}) ([]uint8, error) {
	raw, ok := obs.(uint8Obs)
	if !ok {
		return nil, fmt.Errorf("gym observation %T is not an image", obs)
	}
	return raw.Uint8Obs(), nil
}
