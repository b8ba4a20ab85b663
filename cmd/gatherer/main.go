package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mitchelldurbincs/DoomGatherer/internal/action"
	"github.com/mitchelldurbincs/DoomGatherer/internal/config"
	"github.com/mitchelldurbincs/DoomGatherer/internal/engine"
	"github.com/mitchelldurbincs/DoomGatherer/internal/engine/gymengine"
	"github.com/mitchelldurbincs/DoomGatherer/internal/engine/synthetic"
	"github.com/mitchelldurbincs/DoomGatherer/internal/env"
	"github.com/mitchelldurbincs/DoomGatherer/internal/experience"
	"github.com/mitchelldurbincs/DoomGatherer/internal/gatherer"
	"github.com/mitchelldurbincs/DoomGatherer/internal/policy"
	"github.com/mitchelldurbincs/DoomGatherer/internal/preprocess"
)

var (
	// scenario is the fixed engine parameter bundle of every session
	scenario = engine.BasicScenario

	// newEngine creates the engine backend named in the settings
	newEngine = func(s config.Settings, rng *rand.Rand, logger zerolog.Logger) (engine.Engine, error) {
		switch s.Engine.Backend {
		case "synthetic":
			return synthetic.New(rng, logger), nil
		case "gym":
			return gymengine.New(s.Engine.GymHost, s.Engine.GymEnv, logger), nil
		default:
			return nil, fmt.Errorf("unknown engine backend %q", s.Engine.Backend)
		}
	}
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "gatherer",
		Short: "Gather (state, action, next_state) transitions from a Doom scenario",
		Long: `Gatherer plays episodes of the basic Doom scenario with a uniformly random
policy, preprocesses every frame and writes all recorded transitions to one
binary data file for an offline learner.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.New()
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			settings, err := config.Load(v)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return gather(cmd.Context(), settings, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	config.BindFlags(root.Flags())

	root.AddCommand(newInspectCmd())
	return root
}

// gather runs a complete session: engine, episodes, data file, manifest
func gather(ctx context.Context, s config.Settings, logOut io.Writer) error {
	runID := experience.NewRunID()
	session := s.SessionName(runID)

	logger, closeLog, err := setupLogging(s.Logging, s.Training.LogDir, session, logOut)
	if err != nil {
		return err
	}
	defer closeLog()

	seed := s.Gather.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	res := s.Resolution()
	logger.Info().
		Str("run_id", runID).
		Str("engine", s.Engine.Backend).
		Str("model", s.Model.Model).
		Int("height", res.Height).
		Int("width", res.Width).
		Int("channels", s.Model.NumChannels).
		Strs("actions", s.Model.Actions).
		Int64("seed", seed).
		Msg("Starting gatherer")

	set, err := action.NewSet(s.Model.Actions)
	if err != nil {
		return err
	}
	pol, err := policy.NewRandom(set, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}
	pipeline, err := preprocess.New(preprocess.NewConfig(res.Height, res.Width, s.Model.NumChannels))
	if err != nil {
		return err
	}
	eng, err := newEngine(s, rand.New(rand.NewSource(seed+1)), logger)
	if err != nil {
		return err
	}

	var (
		mem   *experience.Memory
		stats gatherer.Stats
	)
	err = env.With(eng, scenario(), logger, func(e *env.Env) error {
		g, err := gatherer.New(gatherer.Config{
			Episodes:  s.Gather.Episodes,
			SkipRate:  s.Model.SkipRate,
			NumFrames: s.Model.NumFrames,
		}, e, pipeline, pol, logger)
		if err != nil {
			return err
		}
		mem, err = g.Run(ctx)
		stats = g.Stats()
		return err
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn().Msg("Interrupted, no data written")
		}
		return err
	}

	if _, err := experience.NewStore(logger).Save(s.Gather.Output, mem); err != nil {
		return err
	}

	mf := experience.Manifest{
		RunID:     runID,
		Session:   session,
		CreatedAt: time.Now(),
		DataFile:  s.Gather.Output,
		Episodes:  stats.Episodes,
		Actions:   s.Model.Actions,
	}
	mf.Describe(mem)
	manifestPath := experience.ManifestPath(s.Gather.Output)
	if err := experience.WriteManifest(manifestPath, mf); err != nil {
		return err
	}

	logger.Info().
		Str("output", s.Gather.Output).
		Str("manifest", manifestPath).
		Int("transitions", mem.Len()).
		Dur("duration", stats.Duration).
		Msg("Gathering complete")
	return nil
}
