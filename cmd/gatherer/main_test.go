package main

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/DoomGatherer/internal/config"
	"github.com/mitchelldurbincs/DoomGatherer/internal/engine"
	"github.com/mitchelldurbincs/DoomGatherer/internal/experience"
)

// useSmallScenario keeps preprocessing cheap for end-to-end runs
func useSmallScenario(t *testing.T) {
	t.Helper()
	orig := scenario
	scenario = func() engine.Config {
		cfg := engine.BasicScenario()
		cfg.Resolution = engine.Res160x120
		return cfg
	}
	t.Cleanup(func() { scenario = orig })
}

// forbidEngine fails the test if any engine is created
func forbidEngine(t *testing.T) {
	t.Helper()
	orig := newEngine
	newEngine = func(config.Settings, *rand.Rand, zerolog.Logger) (engine.Engine, error) {
		t.Fatal("engine created")
		return nil, nil
	}
	t.Cleanup(func() { newEngine = orig })
}

func TestUnknownFlagExitsBeforeEngineWork(t *testing.T) {
	forbidEngine(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"--no_such_flag"}, &stdout, &stderr)
	assert.NotEqual(t, 0, code)
	assert.Contains(t, stderr.String(), "unknown flag")
	assert.Contains(t, stdout.String()+stderr.String(), "Usage:")
}

func TestInvalidChoiceExitsBeforeEngineWork(t *testing.T) {
	forbidEngine(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"--model", "resnet"}, &stdout, &stderr)
	assert.NotEqual(t, 0, code)
	assert.Contains(t, stderr.String(), "invalid choice for model")
}

func TestPositionalArgumentRejected(t *testing.T) {
	forbidEngine(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"extra"}, &stdout, &stderr)
	assert.NotEqual(t, 0, code)
}

func TestGatherWritesDataAndManifest(t *testing.T) {
	useSmallScenario(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "out", "data.bin")
	var stdout, stderr bytes.Buffer

	code := run([]string{
		"--gather_episodes", "1",
		"--skiprate", "3",
		"--model", "atari",
		"--num_channels", "1",
		"--seed", "5",
		"--output", output,
		"--log_dir", filepath.Join(dir, "logs"),
		"--log_format", "json",
		"-f", "smoke",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	mem, err := experience.NewStore(zerolog.Nop()).Load(output)
	require.NoError(t, err)
	require.Positive(t, mem.Len())
	assert.Equal(t, [3]int{84, 84, 1}, mem.At(0).State.Shape())
	assert.Equal(t, [3]int{1, 1, 3}, mem.At(0).Action.Shape)

	mf, err := experience.ReadManifest(experience.ManifestPath(output))
	require.NoError(t, err)
	assert.Equal(t, "smoke", mf.Session)
	assert.Equal(t, 1, mf.Episodes)
	assert.Equal(t, mem.Len(), mf.Transitions)
	assert.NotEmpty(t, mf.RunID)

	_, err = os.Stat(filepath.Join(dir, "logs", "smoke.log"))
	assert.NoError(t, err)

	// inspect reads back what gather wrote
	stdout.Reset()
	code = run([]string{"inspect", output, "--limit", "2"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "session:     smoke")
	assert.Contains(t, stdout.String(), "frame shape: [84 84 1]")
	assert.Contains(t, stdout.String(), "[0] action=")
}

func TestInspectMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"inspect", filepath.Join(t.TempDir(), "nope.bin")}, &stdout, &stderr)
	assert.NotEqual(t, 0, code)
}

func TestSetupLogging(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	logger, closeLog, err := setupLogging(config.LoggingSettings{Level: "warn", Format: "json"}, dir, "run", &out)
	require.NoError(t, err)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	require.NoError(t, closeLog())

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"message":"shown"`)

	data, err := os.ReadFile(filepath.Join(dir, "run.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session":"run"`)

	_, _, err = setupLogging(config.LoggingSettings{Level: "loud"}, dir, "run", &out)
	assert.Error(t, err)
}
