package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mitchelldurbincs/DoomGatherer/internal/experience"
)

func newInspectCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "inspect <data file>",
		Short: "Print the structure of a gathered data file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return inspect(cmd.OutOrStdout(), args[0], limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "Number of transitions to list")
	return cmd
}

func inspect(out io.Writer, path string, limit int) error {
	mem, err := experience.NewStore(zerolog.Nop()).Load(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "file:        %s\n", path)
	fmt.Fprintf(out, "transitions: %d\n", mem.Len())

	if mf, err := experience.ReadManifest(experience.ManifestPath(path)); err == nil {
		fmt.Fprintf(out, "run id:      %s\n", mf.RunID)
		fmt.Fprintf(out, "session:     %s\n", mf.Session)
		fmt.Fprintf(out, "episodes:    %d\n", mf.Episodes)
		fmt.Fprintf(out, "actions:     %v\n", mf.Actions)
	} else if !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(out, "manifest:    unreadable (%v)\n", err)
	}

	if mem.Len() == 0 {
		return nil
	}

	counts := map[int]int{}
	terminal := 0
	for _, t := range mem.Transitions() {
		counts[t.Action.Index()]++
		if t.NextState.IsZero() {
			terminal++
		}
	}
	first := mem.At(0)
	fmt.Fprintf(out, "frame shape: %v\n", first.State.Shape())
	fmt.Fprintf(out, "action shape: %v\n", first.Action.Shape)
	fmt.Fprintf(out, "terminal next states: %d\n", terminal)
	for i := 0; i < first.Action.Shape[2]; i++ {
		fmt.Fprintf(out, "action %d taken: %d\n", i, counts[i])
	}

	for i := 0; i < limit && i < mem.Len(); i++ {
		t := mem.At(i)
		fmt.Fprintf(out, "[%d] action=%d state=%v next=%v\n",
			i, t.Action.Index(), t.State.Shape(), t.NextState.Shape())
	}
	return nil
}
