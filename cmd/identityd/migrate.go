package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goIdentity/internal/config"
	"github.com/MrEthical07/goIdentity/store/postgres"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Manage the postgres schema",
		Long:      `Apply (up), roll back (down) or report (version) the embedded identities schema migrations. The default action is up.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE:      runMigrate,
	}
	cmd.Flags().String("dsn", "", "postgres DSN")
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Store.DSN == "" {
		return errors.New("store.dsn is required (IDENTITY_STORE_DSN or --dsn)")
	}
	if cfg.Store.Driver != config.StorePostgres {
		cmd.PrintErrf("note: store.driver is %q; migrating the postgres schema anyway\n", cfg.Store.Driver)
	}

	action := "up"
	if len(args) == 1 {
		action = args[0]
	}

	m, err := postgres.NewMigrator(cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	switch action {
	case "up":
		if err := m.Up(); err != nil {
			return err
		}
		cmd.Println("migrations applied")
	case "down":
		if err := m.Down(); err != nil {
			return err
		}
		cmd.Println("migrations rolled back")
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		cmd.Printf("version %d (dirty: %t)\n", version, dirty)
	}
	return nil
}
