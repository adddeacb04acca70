package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/tutorbridge-backend/internal/app"
	"github.com/yungbote/tutorbridge-backend/internal/data/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := app.NewLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg := db.ConfigFromEnv()
		svc, err := app.OpenDB(log, cfg)
		if err != nil {
			return err
		}
		log.Info("Migration complete", "driver", svc.Driver())
		return svc.Close()
	},
}
