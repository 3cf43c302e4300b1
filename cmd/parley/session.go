package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/pkg/adapters/sqlite"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, remove and prune sessions kept in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		sessions, err := p.Manager.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the data of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		p, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		data, err := p.Manager.Load(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", sessionID, err)
		}

		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [session-id]...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("pass session ids or --all")
		}

		p, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		if all {
			if args, err = p.Manager.List(cmd.Context()); err != nil {
				return err
			}
		}

		var errs []error
		for _, sessionID := range args {
			if err := p.Manager.Delete(cmd.Context(), sessionID); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", sessionID, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

var sessionPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete sqlite sessions idle for longer than --older-than",
	RunE: func(cmd *cobra.Command, args []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		opts := storeOptions(cmd)
		if opts.Kind != cli.StoreSQLite {
			return fmt.Errorf("prune needs --store %s (redis expires sessions with --session-ttl)", cli.StoreSQLite)
		}

		p, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		pruner, ok := p.Backend.(*sqlite.Store)
		if !ok {
			return fmt.Errorf("store does not support pruning")
		}
		n, err := pruner.Prune(cmd.Context(), time.Now().Add(-olderThan))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d sessions\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionPruneCmd)
	sessionRmCmd.Flags().Bool("all", false, "Remove every stored session")
	sessionPruneCmd.Flags().Duration("older-than", 24*time.Hour, "Idle time after which a session is pruned")
}

func openStore(cmd *cobra.Command) (*cli.Persistence, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	return cli.OpenPersistence(cmd.Context(), storeOptions(cmd), logger)
}
