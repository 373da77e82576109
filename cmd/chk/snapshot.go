package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/chk/pkg/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect the configured snapshot store",
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshot ids",
	Args:  cobra.NoArgs,
	RunE: withStore(func(cmd *cobra.Command, store snapshot.Store, args []string) error {
		ids, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	}),
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the props and output of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, store snapshot.Store, args []string) error {
		id := snapshot.NormalizeID(args[0])
		rec, err := store.Load(cmd.Context(), id)
		if err != nil {
			if errors.Is(err, snapshot.ErrNotFound) {
				return fmt.Errorf("snapshot %q not found", id)
			}
			return err
		}
		var props bytes.Buffer
		if err := json.Indent(&props, rec.Props, "", "  "); err != nil {
			props.Reset()
			props.Write(rec.Props)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "id: %s\nprops:\n%s\noutput:\n%s\n", id, props.String(), rec.HTML)
		return nil
	}),
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: withStore(func(cmd *cobra.Command, store snapshot.Store, args []string) error {
		var errs []error
		for _, a := range args {
			id := snapshot.NormalizeID(a)
			if err := store.Delete(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		}
		return errors.Join(errs...)
	}),
}

var snapshotBackend string

// withStore opens the configured store around fn.
func withStore(fn func(cmd *cobra.Command, store snapshot.Store, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("backend") {
			cfg.Snapshots.Backend = snapshotBackend
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger := newLogger(cmd.ErrOrStderr())
		store, closeStore, err := cfg.OpenStore(logger)
		if err != nil {
			return err
		}
		defer closeStore()
		logger.Debug("snapshot store opened", "backend", cfg.Backend())
		return fn(cmd, store, args)
	}
}

func init() {
	snapshotCmd.PersistentFlags().StringVar(&snapshotBackend, "backend", "", "Snapshot backend: file or sqlite")
	snapshotCmd.AddCommand(snapshotListCmd, snapshotShowCmd, snapshotDeleteCmd)
}
