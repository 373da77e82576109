package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/chk/pkg/config"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

var errTestsFailed = errors.New("tests failed")

func main() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "chk",
	Short:         "Assertion, mocking and snapshot testing engine",
	Long:          "chk runs YAML test suites, compares snapshots and reports results as a tree, markdown or JSON.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chk %s (%s)\n", version, commit)
	},
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config, or discovers .chk.yaml from the working
// directory.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.Discover(".")
}

// execute runs the root command and prints errors the way main does, so
// tests observe the same output.
func execute(args []string, stdout, stderr io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errTestsFailed) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to .chk.yaml (default: discovered from the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(validateCmd)
}
