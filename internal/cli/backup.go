package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/StephanAkkerman/ticker-classifier/internal/backup"
	"github.com/StephanAkkerman/ticker-classifier/internal/config"
)

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Upload the cache database to the configured S3 bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if !cfg.Backup.Enabled() {
				return fmt.Errorf("backups not configured (set BACKUP_S3_BUCKET)")
			}
			log := newLogger(cfg)

			svc, err := backup.New(cmd.Context(), cfg.Backup, cfg.CachePath, log)
			if err != nil {
				return fmt.Errorf("failed to initialize backup service: %w", err)
			}

			key, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("uploaded %s\n", key)
			return nil
		},
	}
}
