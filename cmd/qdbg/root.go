package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hlalwani/qdbg/config"
	"github.com/hlalwani/qdbg/telemetry"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "qdbg",
	Short: "A time-travel debugger for quantum assembly programs",
	Long: `qdbg loads a quantum assembly program, runs it against a
decision-diagram-backed simulator, and lets you step through it forward
and backward the way a conventional debugger steps through source:
breakpoints, a call stack, a live state view, and an explanation of
why an assertion failed when one does.`,
}

// Execute runs the root command, exiting the process with status 1 on
// any error the way a CLI entry point is expected to.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default %s)", config.DefaultPath()))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (trace, debug, info, warn, error, disabled)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(debugCmd)
}

func initConfig() {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading config:", err)
		os.Exit(1)
	}
	cfg = loaded

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	telemetry.Init(cfg.Logging.Level, cfg.Logging.Pretty)
	log.Debug().Str("level", cfg.Logging.Level).Msg("telemetry initialized")
}
