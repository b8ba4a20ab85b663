package policy

import (
	"math/rand"
	"time"

	"github.com/mitchelldurbincs/DoomGatherer/internal/action"
	"github.com/mitchelldurbincs/DoomGatherer/internal/frame"
)

// RandomPolicy selects uniformly among the actions of a set, ignoring the
// observation
type RandomPolicy struct {
	rng     *rand.Rand
	actions *action.Set
}

// NewRandom creates a random policy over set. A nil rng is seeded from the
// clock.
func NewRandom(set *action.Set, rng *rand.Rand) (*RandomPolicy, error) {
	if set == nil || set.Len() == 0 {
		return nil, action.ErrEmptySet
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomPolicy{rng: rng, actions: set}, nil
}

// SelectAction implements Policy
func (p *RandomPolicy) SelectAction(_ *frame.Frame) (action.Action, error) {
	return p.actions.At(p.rng.Intn(p.actions.Len())), nil
}
