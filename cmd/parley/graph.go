package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/config"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [routes-file]",
	Short: "Export the dialog graph",
	Long: `Outputs a Mermaid diagram (graph TD) of the states, intent transitions and filter redirects.
With --session the session's current state is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("routes")
		if len(args) > 0 {
			path = args[0]
		}
		sessionID, _ := cmd.Flags().GetString("session")

		f, err := config.Load(path)
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if sessionID != "" {
			current, err := sessionState(cmd, sessionID, f)
			if err != nil {
				return err
			}
			overlay = &graph.GraphOverlay{CurrentState: current}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(f, overlay))
		return nil
	},
}

func sessionState(cmd *cobra.Command, sessionID string, f *config.File) (string, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return "", err
	}
	p, err := cli.OpenPersistence(cmd.Context(), storeOptions(cmd), logger)
	if err != nil {
		return "", err
	}
	defer p.Close()

	data, err := p.Manager.Load(cmd.Context(), sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return f.EntryState(), nil
	}
	if err != nil {
		return "", err
	}
	if current, ok := data[domain.KeyCurrentState]; ok {
		return current, nil
	}
	return f.EntryState(), nil
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the current state of this session")
}
