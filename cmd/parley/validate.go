package main

import (
	"fmt"

	"github.com/aretw0/parley/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [routes-file]",
	Short: "Check a routing file for consistency",
	Long:  `Reports missing entry states, unknown filter references, bad filter parameters and dangling redirects or transitions.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("routes")
		if len(args) > 0 {
			path = args[0]
		}

		f, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := config.Validate(f); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d states, %d filters, entry %q\n", path, len(f.States), len(f.Filters), f.EntryState())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
