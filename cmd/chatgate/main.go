package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	migrations "github.com/chatgatehq/chatgate/db"
	"github.com/chatgatehq/chatgate/internal/config"
	"github.com/chatgatehq/chatgate/internal/db"
	"github.com/chatgatehq/chatgate/internal/logger"
	"github.com/chatgatehq/chatgate/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:     "chatgate",
		Short:   "Multi-tenant chatbot gateway",
		Version: version.Info(),
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the gateway HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate [up|down|version|force N]",
		Short: "Run database migrations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)

			migrationsFS, err := fs.Sub(migrations.MigrationsFS, "migrations")
			if err != nil {
				return fmt.Errorf("migrations fs: %w", err)
			}
			return db.RunMigrate(logger.L, cfg.Postgres, migrationsFS, args[0], args[1:])
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
