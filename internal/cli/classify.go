package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/StephanAkkerman/ticker-classifier/internal/classify"
	"github.com/StephanAkkerman/ticker-classifier/internal/config"
)

func newClassifyCmd() *cobra.Command {
	var concurrent bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "classify SYMBOL [SYMBOL...]",
		Short:   "Classify one or more ticker symbols",
		Example: "  tickerclass classify AAPL BTC EUR GOLD",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			log := newLogger(cfg)

			classifier, closer, err := buildClassifier(cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize classifier: %w", err)
			}
			defer closer()

			var results []classify.Classification
			if concurrent {
				results = classifier.ClassifyConcurrent(cmd.Context(), args)
			} else {
				results = classifier.Classify(cmd.Context(), args)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			for _, r := range results {
				mcap := "n/a"
				if r.MarketCap != nil {
					mcap = fmt.Sprintf("$%.0f", *r.MarketCap)
				}
				fmt.Printf("%-12s %-10s %-35s cap=%-18s lookup=%s\n",
					r.Symbol, r.Category, r.DisplayName, mcap, r.YahooLookup)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&concurrent, "concurrent", false, "classify symbols concurrently")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit results as JSON")

	return cmd
}
