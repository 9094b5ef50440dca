package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var debugSeed int64

var debugCmd = &cobra.Command{
	Use:   "debug <file>",
	Short: "Step through a program interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runDebug,
}

func init() {
	debugCmd.Flags().Int64Var(&debugSeed, "seed", 0, "measurement RNG seed (0 uses the configured seed; OS entropy if that is 0 too)")
}

func runDebug(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	seed := debugSeed
	if seed == 0 {
		seed = cfg.Simulation.Seed
	}

	m, err := newModel(string(src), seed)
	if err != nil {
		return fmt.Errorf("loading %s: %w", args[0], err)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
