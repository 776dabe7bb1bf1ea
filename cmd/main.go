package main

import (
	"fmt"
	"os"

	"procedure-scheduler/cmd/bootstrap"
	"procedure-scheduler/config"
	"procedure-scheduler/internal/infrastructure/database"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "procedure-scheduler",
		Short: "Procedure scheduling API (rooms x working hours)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(envFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file; environment variables take precedence")

	rootCmd.AddCommand(serveCmd(&envFile))
	rootCmd.AddCommand(migrateCmd(&envFile))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(*envFile)
		},
	}
}

func runServer(envFile string) error {
	// Initialize application with all dependencies
	app, err := bootstrap.New(envFile)
	if err != nil {
		logrus.Errorf("Failed to initialize application: %v", err)
		return err
	}

	// Run the application
	app.Run()
	return nil
}

func migrateCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run PostgreSQL schema migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(*envFile, func(m *database.Migrator) error {
				return m.Up()
			})
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return withMigrator(*envFile, func(m *database.Migrator) error {
				return m.Down(steps)
			})
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(*envFile, func(m *database.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
				return nil
			})
		},
	}

	cmd.AddCommand(upCmd, downCmd, versionCmd)
	return cmd
}

func withMigrator(envFile string, fn func(m *database.Migrator) error) error {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return err
	}
	if cfg.DB.Driver != "postgres" {
		return fmt.Errorf("migrations only apply to DB_DRIVER=postgres (sqlite uses AutoMigrate on startup)")
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	db, err := bootstrap.OpenDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	migrator, err := database.NewMigrator(db, log)
	if err != nil {
		return err
	}
	return fn(migrator)
}
