package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/StephanAkkerman/ticker-classifier/internal/cache"
	"github.com/StephanAkkerman/ticker-classifier/internal/config"
	"github.com/StephanAkkerman/ticker-classifier/internal/database"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the ticker cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "evict",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closer, err := openStore()
			if err != nil {
				return err
			}
			defer closer()

			deleted, err := store.EvictExpired()
			if err != nil {
				return err
			}
			fmt.Printf("evicted %d expired entries\n", deleted)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closer, err := openStore()
			if err != nil {
				return err
			}
			defer closer()

			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Println("cache cleared")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache row count",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closer, err := openStore()
			if err != nil {
				return err
			}
			defer closer()

			count, err := store.Count()
			if err != nil {
				return err
			}
			fmt.Printf("%d entries (fresh and expired)\n", count)
			return nil
		},
	})

	return cmd
}

// openStore opens the configured cache store for maintenance commands.
func openStore() (*cache.Store, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.Open(cfg.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	store, err := cache.NewStore(db.Conn(), cfg.CacheTTL)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return store, db.Close, nil
}
