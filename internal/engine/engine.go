// Package engine describes the simulation engine the gatherer drives and the
// fixed bundle of parameters a session is started with.
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when a session is used before Init
	ErrNotInitialized = errors.New("engine not initialized")
	// ErrAlreadyInitialized is returned when Init is called twice
	ErrAlreadyInitialized = errors.New("engine already initialized")
	// ErrEpisodeFinished is returned when acting in a finished episode
	ErrEpisodeFinished = errors.New("episode is finished")
	// ErrClosed is returned when a closed session is used
	ErrClosed = errors.New("engine closed")
)

// Engine is a simulation session. Implementations are not safe for
// concurrent use.
type Engine interface {
	// Init applies cfg and starts the session
	Init(cfg Config) error

	// NewEpisode resets the simulation to the start of a new episode
	NewEpisode() error

	// IsEpisodeFinished reports whether the current episode has ended
	IsEpisodeFinished() bool

	// State returns the current observation, or nil once the episode ended
	State() *State

	// MakeAction holds the button vector for tics ticks and returns the
	// accumulated reward
	MakeAction(buttons []float64, tics int) (float64, error)

	// Close shuts the session down
	Close() error
}

// State is one observation of the simulation
type State struct {
	// Tic is the simulation time of the observation
	Tic int
	// ScreenBuffer holds Height*Width*3 bytes of RGB24 pixels, row-major
	ScreenBuffer []uint8
	Width        int
	Height       int
	// GameVariables follows the order of Config.Variables
	GameVariables []float64
}

// Button is an input the agent can press
type Button int

const (
	ButtonAttack Button = iota
	ButtonMoveLeft
	ButtonMoveRight
)

func (b Button) String() string {
	switch b {
	case ButtonAttack:
		return "ATTACK"
	case ButtonMoveLeft:
		return "MOVE_LEFT"
	case ButtonMoveRight:
		return "MOVE_RIGHT"
	default:
		return fmt.Sprintf("Button(%d)", int(b))
	}
}

// GameVariable is a value reported with every State
type GameVariable int

const (
	VariableAmmo2 GameVariable = iota
)

func (v GameVariable) String() string {
	switch v {
	case VariableAmmo2:
		return "AMMO2"
	default:
		return fmt.Sprintf("GameVariable(%d)", int(v))
	}
}

// ScreenResolution is the size of the rendered screen
type ScreenResolution int

const (
	Res160x120 ScreenResolution = iota
	Res320x240
	Res640x480
	Res800x600
)

// Size returns the width and height in pixels
func (r ScreenResolution) Size() (width, height int) {
	switch r {
	case Res160x120:
		return 160, 120
	case Res320x240:
		return 320, 240
	case Res640x480:
		return 640, 480
	case Res800x600:
		return 800, 600
	default:
		return 0, 0
	}
}

func (r ScreenResolution) String() string {
	w, h := r.Size()
	return fmt.Sprintf("RES_%dX%d", w, h)
}

// ScreenFormat is the pixel layout of State.ScreenBuffer
type ScreenFormat int

const (
	FormatRGB24 ScreenFormat = iota
)

// Mode is the control mode of the agent
type Mode int

const (
	// ModePlayer lets the engine wait for the agent on every action
	ModePlayer Mode = iota
	// ModeSpectator lets a human play while the agent observes
	ModeSpectator
)

// RenderOptions toggles optional parts of the rendered frame
type RenderOptions struct {
	HUD           bool
	MinimalHUD    bool
	Crosshair     bool
	Weapon        bool
	Decals        bool
	Particles     bool
	EffectSprites bool
	Messages      bool
	Corpses       bool
	ScreenFlashes bool
}

// Config is the bundle of parameters a session is started with
type Config struct {
	ScenarioPath  string
	Map           string
	Resolution    ScreenResolution
	Format        ScreenFormat
	WindowVisible bool
	SoundEnabled  bool
	Render        RenderOptions
	Buttons       []Button
	Variables     []GameVariable
	// EpisodeStartTime is the number of tics simulated before the agent acts
	EpisodeStartTime int
	// EpisodeTimeout is the episode length limit in tics, 0 for none
	EpisodeTimeout int
	LivingReward   float64
	Skill          int
	Mode           Mode
}

// Validate checks that c can start a session
func (c Config) Validate() error {
	if w, h := c.Resolution.Size(); w == 0 || h == 0 {
		return fmt.Errorf("unsupported screen resolution %d", int(c.Resolution))
	}
	if c.Format != FormatRGB24 {
		return fmt.Errorf("unsupported screen format %d", int(c.Format))
	}
	if len(c.Buttons) == 0 {
		return fmt.Errorf("at least one button must be available")
	}
	if c.EpisodeStartTime < 0 {
		return fmt.Errorf("episode start time must be non-negative")
	}
	if c.EpisodeTimeout < 0 {
		return fmt.Errorf("episode timeout must be non-negative")
	}
	if c.Skill < 1 || c.Skill > 5 {
		return fmt.Errorf("skill must be between 1 and 5, got %d", c.Skill)
	}
	return nil
}

// ButtonIndex returns the position of b in c.Buttons, or -1
func (c Config) ButtonIndex(b Button) int {
	for i, x := range c.Buttons {
		if x == b {
			return i
		}
	}
	return -1
}
