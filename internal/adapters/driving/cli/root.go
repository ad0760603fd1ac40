// Package cli implements the cobra command surface. Commands hold no
// business logic; they parse flags, call the injected driving
// services and render the results.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driving"
	"github.com/alexandria-labs/alexandria-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services are injected by the composition root before Execute.
var (
	ingestionService driving.IngestionService
	retrievalService driving.RetrievalService

	// ingestionFactory rebuilds the ingestion pipeline when ingest
	// flags override the configured defaults.
	ingestionFactory func(domain.IngestConfig) driving.IngestionService

	// baseIngestConfig is the configured starting point that ingest
	// flags are applied on top of.
	baseIngestConfig = domain.DefaultIngestConfig()
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "alexandria",
	Short: "Index documents and search them semantically",
	Long: `Alexandria ingests local text files into a chunked, embedded index
and retrieves the most relevant passages for a query.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the application services. The ingestion factory
// is retained so ingest commands can rebuild the pipeline for a single
// run when chunking flags deviate from the configured defaults.
func SetServices(
	factory func(domain.IngestConfig) driving.IngestionService,
	retrieval driving.RetrievalService,
	base domain.IngestConfig,
) {
	ingestionFactory = factory
	retrievalService = retrieval
	baseIngestConfig = base
	if factory != nil {
		ingestionService = factory(base)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
