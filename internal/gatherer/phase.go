package gatherer

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an episode moves between phases out
// of order
var ErrInvalidTransition = errors.New("invalid episode phase transition")

// EpisodePhase is the lifecycle position of one episode
type EpisodePhase int

const (
	// PhaseNotStarted - before the engine was reset
	PhaseNotStarted EpisodePhase = iota

	// PhaseRunning - the agent is acting and transitions are recorded
	PhaseRunning

	// PhaseFinished - the engine reported the episode over
	PhaseFinished
)

// String returns the string representation of an EpisodePhase
func (p EpisodePhase) String() string {
	switch p {
	case PhaseNotStarted:
		return "NotStarted"
	case PhaseRunning:
		return "Running"
	case PhaseFinished:
		return "Finished"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// IsTerminal returns true once no more transitions can be recorded
func (p EpisodePhase) IsTerminal() bool {
	return p == PhaseFinished
}

// AllowedTransitions returns the phases this phase can move to. Running
// loops onto itself once per step.
func (p EpisodePhase) AllowedTransitions() []EpisodePhase {
	switch p {
	case PhaseNotStarted:
		return []EpisodePhase{PhaseRunning}
	case PhaseRunning:
		return []EpisodePhase{PhaseRunning, PhaseFinished}
	default:
		return []EpisodePhase{}
	}
}

// CanTransitionTo checks if a transition to target is allowed
func (p EpisodePhase) CanTransitionTo(target EpisodePhase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}

// episode tracks the phase of the episode being gathered
type episode struct {
	index int
	phase EpisodePhase
	steps int
	// reward is summed for logging only
	reward float64
}

func (e *episode) transitionTo(target EpisodePhase) error {
	if !e.phase.CanTransitionTo(target) {
		return fmt.Errorf("%w: episode %d from %s to %s", ErrInvalidTransition, e.index, e.phase, target)
	}
	e.phase = target
	return nil
}
