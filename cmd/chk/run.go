package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/chk/pkg/config"
	"github.com/ormasoftchile/chk/pkg/declarative"
	"github.com/ormasoftchile/chk/pkg/live"
	"github.com/ormasoftchile/chk/pkg/prompt"
	"github.com/ormasoftchile/chk/pkg/report"
	"github.com/ormasoftchile/chk/pkg/snapshot"
	"github.com/ormasoftchile/chk/pkg/suite"
)

var (
	runInteractive bool
	runJSON        bool
	runFormat      string
	runHead        bool
	runNoLocation  bool
	runTimeout     time.Duration
	runLive        bool
	runSnapshots   string
	runBackend     string
)

var runCmd = &cobra.Command{
	Use:   "run [suite.yaml...]",
	Short: "Run YAML test suites and report the results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

// applyRunFlags overrides configuration values with flags given on the
// command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("interactive") {
		cfg.Interactive = runInteractive
	}
	if f.Changed("format") {
		cfg.Report.Format = runFormat
	}
	if runJSON {
		cfg.Report.Format = config.FormatJSON
	}
	if f.Changed("head") {
		cfg.Report.Head = runHead
	}
	if f.Changed("no-location") {
		v := runNoLocation
		cfg.Report.NoLocation = &v
	}
	if f.Changed("timeout") {
		cfg.Timeout = runTimeout
	}
	if f.Changed("live") {
		cfg.Live = runLive
	}
	if f.Changed("snapshots") {
		cfg.Snapshots.Dir = runSnapshots
	}
	if f.Changed("backend") {
		cfg.Snapshots.Backend = runBackend
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr())
	return runSuites(cmd, cfg, logger, args)
}

func runSuites(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, paths []string) error {
	out := cmd.OutOrStdout()

	store, closeStore, err := cfg.OpenStore(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	snapOpts := []snapshot.Option{snapshot.WithStore(store), snapshot.WithLogger(logger)}
	if cfg.Interactive {
		p := prompt.New(prompt.WithOutput(out))
		defer p.Close()
		snapOpts = append(snapOpts, snapshot.WithPrompter(p))
	}

	runnerOpts := []suite.RunnerOption{suite.WithLogger(logger)}
	var feed *live.Feed
	if cfg.Live && !cfg.Interactive {
		feed = live.NewFeed(256)
		runnerOpts = append(runnerOpts, suite.WithObserver(feed.Observe))
	}
	r := suite.NewRunner(runnerOpts...)

	for _, path := range paths {
		s, err := declarative.Load(path)
		if err != nil {
			return err
		}
		s.Register(r, declarative.WithSnapshotOptions(snapOpts...))
		logger.Debug("suite loaded", "path", path, "tests", len(s.Tests))
	}

	opts := suite.RunOptions{
		Head:        cfg.Report.Head,
		NoLocation:  cfg.NoLocation(),
		Interactive: cfg.Interactive,
		Timeout:     cfg.Timeout,
	}
	ctx := cmd.Context()
	var sum *suite.Summary
	if feed != nil {
		sum, err = live.Watch(ctx, feed, cmd.ErrOrStderr(), func() *suite.Summary {
			return r.Run(ctx, nil, opts)
		})
		if err != nil {
			return err
		}
	} else {
		sum = r.Run(ctx, nil, opts)
	}

	if err := render(out, cfg.Format(), r, sum, opts); err != nil {
		return err
	}
	if !sum.Result {
		return fmt.Errorf("%d of %d tests: %w", sum.TestsFailed, sum.Tests, errTestsFailed)
	}
	return nil
}

func render(out io.Writer, format string, r *suite.Runner, sum *suite.Summary, opts suite.RunOptions) error {
	ropts := suite.ReportOptions{Head: opts.Head, NoLocation: opts.NoLocation}
	switch format {
	case config.FormatJSON:
		data, err := json.MarshalIndent(report.NewDocument(r, sum), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case config.FormatMarkdown:
		md := report.NewMarkdown("chk run " + sum.RunID)
		r.Report(md, ropts)
		md.Summary(sum)
		fmt.Fprintln(out, md.String())
	default:
		con := report.NewConsole(out)
		r.Report(con, ropts)
		con.Summary(sum)
	}
	return nil
}

func init() {
	f := runCmd.Flags()
	f.BoolVarP(&runInteractive, "interactive", "i", false, "Run tests one at a time and prompt on snapshot mismatches")
	f.BoolVar(&runJSON, "json", false, "Output the report as JSON (same as --format json)")
	f.StringVar(&runFormat, "format", "", "Report format: console, json or markdown")
	f.BoolVar(&runHead, "head", false, "Report test nodes only")
	f.BoolVar(&runNoLocation, "no-location", true, "Hide locations of passing entries")
	f.DurationVar(&runTimeout, "timeout", 0, "Bound every test body (e.g. 30s); 0 means no bound")
	f.BoolVar(&runLive, "live", false, "Show progress while tests run")
	f.StringVar(&runSnapshots, "snapshots", "", "Snapshot directory")
	f.StringVar(&runBackend, "backend", "", "Snapshot backend: file, sqlite or memory")
}
