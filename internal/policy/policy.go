// Package policy provides action selection strategies for the gatherer
package policy

import (
	"github.com/mitchelldurbincs/DoomGatherer/internal/action"
	"github.com/mitchelldurbincs/DoomGatherer/internal/frame"
)

// Policy chooses the next action given the newest observed frame
type Policy interface {
	SelectAction(observation *frame.Frame) (action.Action, error)
}
