package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maquina-noticias/pipeline/internal/jobs"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect the durable job tracker",
	Long:  "Reads the sqlite job database directly. Only useful with jobs.backend=sqlite; the memory backend lives inside the server process.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if cfg.Jobs.Backend != "sqlite" {
			return eris.New("jobs: requires jobs.backend=sqlite")
		}
		return nil
	},
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status <job_id>",
	Short: "Print one job record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := jobs.NewSQLite(cfg.Jobs.SQLitePath, cfg.Jobs.Retention())
		if err != nil {
			return err
		}
		defer tracker.Close()

		job, err := tracker.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(job)
	},
}

var jobsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove terminal jobs past the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := jobs.NewSQLite(cfg.Jobs.SQLitePath, cfg.Jobs.Retention())
		if err != nil {
			return err
		}
		defer tracker.Close()

		n, err := tracker.Prune(cmd.Context())
		if err != nil {
			return err
		}
		zap.L().Info("jobs pruned", zap.Int("removed", n))
		return nil
	},
}

func init() {
	jobsCmd.AddCommand(jobsStatusCmd)
	jobsCmd.AddCommand(jobsPruneCmd)
	rootCmd.AddCommand(jobsCmd)
}
