package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/chk/pkg/report"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of `chk run --json` reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := report.Schema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <report.json>",
	Short: "Validate a JSON report against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	err = report.Validate(data)
	var ve *report.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Validation failed: %d error(s)\n\n", len(ve.Violations))
		for i, v := range ve.Violations {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %d. %s\n     at: /%s\n", i+1, v.Message, v.Path)
		}
		return fmt.Errorf("%s: invalid report", args[0])
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", args[0])
	return nil
}
