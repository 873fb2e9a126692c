package cmd

import (
	"fmt"
	"log"

	"github.com/nerith/photofold/config"
	"github.com/nerith/photofold/internal/app"
	"github.com/spf13/cobra"
)

// migrateCmd runs schema migration without starting the server. Useful for
// init containers and deploy pipelines.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migration and exit",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMigrate(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate() error {
	config.InitConfig()
	cfg := config.Get()

	container := app.NewContainer(cfg)
	if err := container.InitDatabase(); err != nil {
		return err
	}
	defer container.Close()

	factory := container.DB()
	log.Printf("Migrating database, database type: %s", factory.GetProvider().Name())

	if err := factory.AutoMigrate(); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	password, err := container.AccountsRepo.CreateDefaultAdminUser()
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if password != "" {
		log.Printf("Created default admin user 'admin' with password: %s", password)
	}

	log.Println("Migration completed")
	return nil
}
