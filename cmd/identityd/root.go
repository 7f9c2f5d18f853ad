package main

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/goIdentity/internal/config"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// NewRootCmd creates the identityd command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "identityd",
		Short:        "Identity token service",
		Long:         `identityd registers users, authenticates them and issues RS256 identity tokens that downstream services verify with the published public key.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before IDENTITY_* variables")
	cmd.PersistentFlags().String("log-level", "info", "log level")
	cmd.PersistentFlags().String("log-format", "json", "log format: json or console")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewKeygenCmd())
	cmd.AddCommand(NewVerifyCmd())

	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.NewLoader(
		config.WithConfigFile(configFile),
		config.WithEnvFile(envFile),
		config.WithFlags(cmd.Flags()),
	).Load()
}

// newLogger builds the process logger. Unknown levels fall back to info.
func newLogger(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "identityd").Logger()
}
