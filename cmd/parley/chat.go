package main

import (
	"os"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the dialog from the terminal",
	Long: `Reads one intent per line from stdin ("order pizza" sends intent "order" with
argument "pizza") and prints the replies. "exit" or "quit" stops.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		sessionID, _ := cmd.Flags().GetString("session")
		headless, _ := cmd.Flags().GetBool("headless")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		p, err := cli.OpenPersistence(ctx, storeOptions(cmd), logger)
		if err != nil {
			return err
		}
		defer p.Close()

		engine, _, err := cli.NewEngine(engineOptions(cmd, p), logger)
		if err != nil {
			return err
		}

		r := parley.NewRunner(os.Stdin, os.Stdout)
		r.SessionID = sessionID
		r.Headless = headless
		return r.Run(ctx, engine)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session id to resume (default: a new one)")
	chatCmd.Flags().Bool("headless", false, "Print replies only, without banner or prompt")
}
