package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hlalwani/qdbg/checker"
	"github.com/hlalwani/qdbg/ddadapter"
	"github.com/hlalwani/qdbg/diagnostics"
	"github.com/hlalwani/qdbg/engine"
)

var runSeed int64

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a program to completion and report any failed assertions",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "measurement RNG seed (0 uses the configured seed; OS entropy if that is 0 too)")
}

func runRun(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	seed := runSeed
	if seed == 0 {
		seed = cfg.Simulation.Seed
	}

	tracker := diagnostics.NewTracker()
	var e *engine.Engine
	if seed != 0 {
		e = engine.NewSeeded(ddadapter.NewDenseKernel(), tracker, seed)
	} else {
		e = engine.New(ddadapter.NewDenseKernel(), tracker)
	}
	e.SetChecker(checker.New())

	if err := e.LoadCode(string(src)); err != nil {
		return fmt.Errorf("loading %s: %w", args[0], err)
	}

	failures := 0
	for !e.IsFinished() {
		if err := e.RunSimulation(); err != nil {
			return err
		}
		if e.DidAssertionFail() {
			failures++
			failedID := e.GetCurrentInstruction()
			log.Error().Int("instruction", failedID).Msg("assertion failed")
			reportCauses(e, tracker, failedID)
			if err := e.StepForward(); err != nil {
				return err
			}
			continue
		}
		break
	}

	if failures == 0 {
		fmt.Println("all assertions passed")
		return nil
	}
	fmt.Printf("%d assertion(s) failed\n", failures)
	cmd.SilenceUsage = true
	return fmt.Errorf("%d assertion(s) failed", failures)
}

func reportCauses(e *engine.Engine, tracker *diagnostics.Tracker, failedID int) {
	causes, err := diagnostics.PotentialErrorCauses(e, tracker, failedID, cfg.Diagnostics.MaxErrorCauses)
	if err != nil {
		log.Warn().Err(err).Msg("could not diagnose assertion failure")
		return
	}
	for _, c := range causes {
		switch c.Kind {
		case diagnostics.ZeroControl:
			fmt.Printf("  possible cause: instruction %d's control qubit %d was always |0>\n", c.Instruction, c.Qubits[0])
		case diagnostics.MissingInteraction:
			fmt.Printf("  possible cause: qubits %d and %d never interacted before instruction %d\n", c.Qubits[0], c.Qubits[1], c.Instruction)
		}
	}
}
