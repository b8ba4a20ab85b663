// Package synthetic is a headless, in-process engine that plays the basic
// scenario: one stationary monster on the far wall, the agent strafing left
// and right and shooting. It renders real RGB24 frames, so the whole
// gathering pipeline can run without an external simulator.
package synthetic

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/DoomGatherer/internal/engine"
)

const (
	// World units are relative to the corridor half-width
	moveSpeed          = 0.02
	monsterHalfWidth   = 0.08
	monsterSpawnRange  = 0.6
	viewHalfWidth      = 0.8
	playerLimit        = 1.0
	attackCooldownTics = 8
	startingAmmo       = 50

	killReward  = 101.0
	shotPenalty = -5.0
)

// Engine implements engine.Engine
type Engine struct {
	cfg    engine.Config
	rng    *rand.Rand
	logger zerolog.Logger

	initialized bool
	closed      bool
	width       int
	height      int
	attackIdx   int
	leftIdx     int
	rightIdx    int

	tic          int
	finished     bool
	playerX      float64
	monsterX     float64
	monsterAlive bool
	ammo         int
	cooldown     int
	decals       []float64
	state        *engine.State
}

// New creates an engine. A nil rng is seeded from the clock.
func New(rng *rand.Rand, logger zerolog.Logger) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		rng:    rng,
		logger: logger.With().Str("component", "synthetic_engine").Logger(),
	}
}

// Init applies cfg and starts the session
func (e *Engine) Init(cfg engine.Config) error {
	if e.closed {
		return engine.ErrClosed
	}
	if e.initialized {
		return engine.ErrAlreadyInitialized
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}

	e.cfg = cfg
	e.width, e.height = cfg.Resolution.Size()
	e.attackIdx = cfg.ButtonIndex(engine.ButtonAttack)
	e.leftIdx = cfg.ButtonIndex(engine.ButtonMoveLeft)
	e.rightIdx = cfg.ButtonIndex(engine.ButtonMoveRight)
	e.initialized = true
	e.finished = true

	e.logger.Info().
		Str("scenario", cfg.ScenarioPath).
		Str("map", cfg.Map).
		Str("resolution", cfg.Resolution.String()).
		Int("skill", cfg.Skill).
		Bool("window_visible", cfg.WindowVisible).
		Bool("sound_enabled", cfg.SoundEnabled).
		Msg("Synthetic engine initialized (headless, no window or sound)")

	return nil
}

// NewEpisode places a fresh monster and runs the start-time tics
func (e *Engine) NewEpisode() error {
	if err := e.checkUsable(); err != nil {
		return err
	}

	e.tic = 0
	e.finished = false
	e.playerX = 0
	e.monsterX = (e.rng.Float64()*2 - 1) * monsterSpawnRange
	e.monsterAlive = true
	e.ammo = startingAmmo
	e.cooldown = 0
	e.decals = e.decals[:0]

	idle := make([]float64, len(e.cfg.Buttons))
	for i := 0; i < e.cfg.EpisodeStartTime && !e.finished; i++ {
		e.advance(idle)
	}
	e.render()

	e.logger.Debug().
		Float64("monster_x", e.monsterX).
		Int("tic", e.tic).
		Msg("Episode started")

	return nil
}

// IsEpisodeFinished reports whether the current episode has ended
func (e *Engine) IsEpisodeFinished() bool {
	return !e.initialized || e.closed || e.finished
}

// State returns the current observation, or nil once the episode ended
func (e *Engine) State() *engine.State {
	if e.IsEpisodeFinished() {
		return nil
	}
	return e.state
}

// MakeAction holds buttons for tics tics
func (e *Engine) MakeAction(buttons []float64, tics int) (float64, error) {
	if err := e.checkUsable(); err != nil {
		return 0, err
	}
	if e.finished {
		return 0, engine.ErrEpisodeFinished
	}
	if len(buttons) != len(e.cfg.Buttons) {
		return 0, fmt.Errorf("expected %d buttons, got %d", len(e.cfg.Buttons), len(buttons))
	}
	if tics < 1 {
		return 0, fmt.Errorf("tics must be positive, got %d", tics)
	}

	var reward float64
	for i := 0; i < tics && !e.finished; i++ {
		reward += e.advance(buttons)
	}
	if !e.finished {
		e.render()
	}
	return reward, nil
}

// Close shuts the session down
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.state = nil
	e.logger.Debug().Msg("Synthetic engine closed")
	return nil
}

func (e *Engine) checkUsable() error {
	if e.closed {
		return engine.ErrClosed
	}
	if !e.initialized {
		return engine.ErrNotInitialized
	}
	return nil
}

// advance simulates one tic and returns its reward
func (e *Engine) advance(buttons []float64) float64 {
	reward := e.cfg.LivingReward

	if pressed(buttons, e.leftIdx) {
		e.playerX = math.Max(-playerLimit, e.playerX-moveSpeed)
	}
	if pressed(buttons, e.rightIdx) {
		e.playerX = math.Min(playerLimit, e.playerX+moveSpeed)
	}

	if e.cooldown > 0 {
		e.cooldown--
	}
	if pressed(buttons, e.attackIdx) && e.cooldown == 0 && e.ammo > 0 {
		e.ammo--
		e.cooldown = attackCooldownTics
		reward += shotPenalty
		if e.monsterAlive && math.Abs(e.monsterX-e.playerX) <= monsterHalfWidth {
			e.monsterAlive = false
			reward += killReward
			e.finished = true
		} else {
			e.decals = append(e.decals, e.playerX)
		}
	}

	e.tic++
	if e.cfg.EpisodeTimeout > 0 && e.tic >= e.cfg.EpisodeTimeout {
		e.finished = true
	}

	return reward
}

func pressed(buttons []float64, idx int) bool {
	return idx >= 0 && idx < len(buttons) && buttons[idx] != 0
}
