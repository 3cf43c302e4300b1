package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// envPrefix namespaces environment overrides: --redis-addr reads PARLEY_REDIS_ADDR.
const envPrefix = "PARLEY_"

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a dialog state machine for voice assistants",
	Long: `Parley routes intents through filter-guarded dialog states and keeps
per-session data in a pluggable store (memory, file, redis or sqlite).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return applyEnv(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("env-file", ".env", "Dotenv file loaded before reading PARLEY_* variables")
	pf.StringP("routes", "r", "routes.yaml", "Routing file (YAML or JSON)")
	pf.String("dir", ".", "Project directory holding .parley/ session data")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")
	pf.Bool("debug", false, "Log every transition, filter and redirect")
	pf.Int("max-redirects", domain.DefaultMaxRedirects, "Maximum nested filter redirects per request")

	pf.String("store", cli.StoreMemory, "Session store (memory, file, redis, sqlite)")
	pf.String("redis-addr", "localhost:6379", "Redis address")
	pf.String("redis-password", "", "Redis password")
	pf.Int("redis-db", 0, "Redis database")
	pf.String("redis-prefix", "", "Redis key prefix")
	pf.Duration("session-ttl", 0, "Session expiry for the redis store (0 keeps sessions)")
	pf.String("sqlite-path", "", "SQLite database (default <dir>/.parley/sessions.db)")
	pf.String("encryption-key", "", "Base64 AES-256 key encrypting stored sessions")
	pf.StringSlice("fallback-keys", nil, "Older keys tried when decrypting")
	pf.StringSlice("pii-keys", nil, "Regular expressions of session keys masked before storage")
}

// applyEnv fills every flag the user did not set from its PARLEY_* variable.
func applyEnv(cmd *cobra.Command) error {
	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "env-file" {
			return
		}
		name := envPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if v, ok := os.LookupEnv(name); ok {
			if err := cmd.Flags().Set(f.Name, v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	})
	return errors.Join(errs...)
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.NewLogger(level, format, debug)
}

func storeOptions(cmd *cobra.Command) cli.StoreOptions {
	fl := cmd.Flags()
	var opts cli.StoreOptions
	opts.Kind, _ = fl.GetString("store")
	opts.Dir, _ = fl.GetString("dir")
	opts.RedisAddr, _ = fl.GetString("redis-addr")
	opts.RedisPassword, _ = fl.GetString("redis-password")
	opts.RedisDB, _ = fl.GetInt("redis-db")
	opts.RedisPrefix, _ = fl.GetString("redis-prefix")
	opts.SessionTTL, _ = fl.GetDuration("session-ttl")
	opts.SQLitePath, _ = fl.GetString("sqlite-path")
	opts.EncryptionKey, _ = fl.GetString("encryption-key")
	opts.FallbackKeys, _ = fl.GetStringSlice("fallback-keys")
	opts.PIIKeys, _ = fl.GetStringSlice("pii-keys")
	return opts
}

func engineOptions(cmd *cobra.Command, p *cli.Persistence) cli.EngineOptions {
	routes, _ := cmd.Flags().GetString("routes")
	debug, _ := cmd.Flags().GetBool("debug")
	maxRedirects, _ := cmd.Flags().GetInt("max-redirects")
	return cli.EngineOptions{
		RoutesPath:   routes,
		Persistence:  p,
		MaxRedirects: maxRedirects,
		Debug:        debug,
	}
}
