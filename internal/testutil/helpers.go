package testutil

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/DoomGatherer/internal/engine"
	"github.com/mitchelldurbincs/DoomGatherer/internal/engine/synthetic"
)

// NewTestRNG creates a deterministic random number generator for tests
func NewTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NopLogger returns a no-op logger for tests
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// TestLogger returns a logger writing through t.Log
func TestLogger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t))
}

// SmallScenario is the basic scenario at the lowest resolution, which keeps
// preprocessing cheap in tests
func SmallScenario() engine.Config {
	cfg := engine.BasicScenario()
	cfg.Resolution = engine.Res160x120
	return cfg
}

// NewSyntheticEngine creates a deterministic in-process engine
func NewSyntheticEngine(seed int64) *synthetic.Engine {
	return synthetic.New(NewTestRNG(seed), NopLogger())
}

// StripedImage returns a w x h image of vertical stripes cycling through
// a few colours
func StripedImage(w, h int) *image.NRGBA {
	colors := []color.NRGBA{
		{200, 30, 30, 255},
		{30, 200, 30, 255},
		{30, 30, 200, 255},
		{240, 240, 240, 255},
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, colors[(x*len(colors)/w)%len(colors)])
		}
	}
	return img
}
