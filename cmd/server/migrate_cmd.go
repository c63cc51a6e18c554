package main

import (
	"github.com/spf13/cobra"
	"github.com/yukikurage/teamtask/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, clients, err := bootstrap()
			if err != nil {
				return err
			}
			defer clients.Close()

			return database.Migrate(clients.Service, log)
		},
	}
}
