package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/connectohq/connecto/internal/config"
	"github.com/connectohq/connecto/internal/db"
)

func main() {
	root := &cobra.Command{
		Use:   "connecto",
		Short: "Chat backend bridging email, SMS, and live websocket clients",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and live connection gateway",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := db.Migrate(cfg.Postgres); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Println("migrations applied")
			return nil
		},
	}

	root.AddCommand(serveCmd, migrateCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
