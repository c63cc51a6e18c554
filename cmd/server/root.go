package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yukikurage/teamtask/internal/config"
	"github.com/yukikurage/teamtask/internal/database"
	"github.com/yukikurage/teamtask/internal/logging"
)

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Department-scoped task management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	cmd.AddCommand(serve)
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

// bootstrap loads the config, builds the logger and opens both database
// handles. The caller closes the clients.
func bootstrap() (*config.Config, *logrus.Logger, *database.Clients, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	format := cfg.LogFormat
	if cfg.IsProduction() {
		format = "json"
	}
	log := logging.New(cfg.LogLevel, format)
	log.WithField("config", cfg.String()).Info("Configuration loaded")

	clients, err := database.Connect(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, clients, nil
}
