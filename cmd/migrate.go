package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maquina-noticias/pipeline/internal/jobs"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the job store schema",
	Long:  "Creates or updates the sqlite job database at jobs.sqlite_path. The serve command migrates on startup; this exists for provisioning the file ahead of time.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Jobs.Backend != "sqlite" {
			return eris.New("migrate: requires jobs.backend=sqlite")
		}

		tracker, err := jobs.NewSQLite(cfg.Jobs.SQLitePath, cfg.Jobs.Retention())
		if err != nil {
			return err
		}
		defer tracker.Close()

		zap.L().Info("job store migrated", zap.String("path", cfg.Jobs.SQLitePath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
