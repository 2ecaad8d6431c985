package main

import (
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"shop-assistant/internal/app/repositories"
	"shop-assistant/internal/pkg/storage"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the audit tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := storage.Init(); err != nil {
			return err
		}
		defer storage.Close()
		if storage.DB == nil {
			return errors.New("mysql is not configured")
		}
		if err := repositories.NewAuditRepository(storage.DB).Migrate(); err != nil {
			return err
		}
		log.Info("audit tables migrated")
		return nil
	},
}
