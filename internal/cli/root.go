// Package cli implements the tickerclass command-line interface.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/StephanAkkerman/ticker-classifier/internal/classify"
	"github.com/StephanAkkerman/ticker-classifier/internal/clients/coingecko"
	"github.com/StephanAkkerman/ticker-classifier/internal/clients/yahoo"
	"github.com/StephanAkkerman/ticker-classifier/internal/config"
	"github.com/StephanAkkerman/ticker-classifier/pkg/logger"
)

// NewRootCmd creates the root Cobra command for the tickerclass CLI.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tickerclass",
		Short:         "Classify ticker symbols into asset categories",
		Long:          "tickerclass resolves ticker-like symbols (AAPL, BTC, EUR, GOLD) to an asset category, backed by a local TTL cache.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newClassifyCmd())
	cmd.AddCommand(newCacheCmd())
	cmd.AddCommand(newBackupCmd())

	return cmd
}

// buildClassifier wires a classifier from environment configuration.
// The returned closer releases the cache database.
func buildClassifier(cfg *config.Config, log zerolog.Logger) (*classify.Classifier, func() error, error) {
	var yahooOpts []yahoo.Option
	if cfg.YahooBaseURL != "" {
		yahooOpts = append(yahooOpts, yahoo.WithBaseURL(cfg.YahooBaseURL))
	}
	var cgOpts []coingecko.Option
	if cfg.CoinGeckoBaseURL != "" {
		cgOpts = append(cgOpts, coingecko.WithBaseURL(cfg.CoinGeckoBaseURL))
	}

	equity := yahoo.NewClient(log, yahooOpts...)
	crypto := coingecko.NewClient(log, cgOpts...)

	return classify.Open(
		classify.OpenConfig{
			CachePath: cfg.CachePath,
			TTLHours:  int(cfg.CacheTTL.Hours()),
		},
		equity,
		crypto,
		log,
		classify.WithWorkers(cfg.Workers),
		classify.WithProviderTimeout(cfg.ProviderTimeout),
	)
}

// newLogger builds the CLI logger from configuration.
func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})
}
