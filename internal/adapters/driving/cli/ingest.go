package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driving"
)

// Ingest flags, shared by ingest-file and ingest-dir.
var (
	chunkStrategy  string
	chunkSize      int
	minChunkSize   int
	overlapSize    int
	maxTokens      int
	forceReingest  bool
	updateExisting bool
	ingestWorkers  int
	ingestRecurse  bool
)

var ingestFileCmd = &cobra.Command{
	Use:   "ingest-file [path]",
	Short: "Ingest a single file",
	Long: `Extracts, chunks and embeds one file and stores the result.
Files already in the index (by content hash) are skipped unless
--update-existing or --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestFile,
}

var ingestDirCmd = &cobra.Command{
	Use:   "ingest-dir [path]",
	Short: "Ingest all supported files in a directory",
	Long: `Walks a directory and ingests every supported file through a
worker pool. Individual failures are reported in the summary and never
abort the rest of the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestDir,
}

func init() {
	for _, cmd := range []*cobra.Command{ingestFileCmd, ingestDirCmd} {
		cmd.Flags().StringVar(&chunkStrategy, "chunk-strategy", "",
			"chunking strategy (fixed_size, sentence_based, paragraph_based, code_based, markdown_based)")
		cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "maximum chunk size in characters")
		cmd.Flags().IntVar(&minChunkSize, "min-chunk-size", 0, "minimum chunk size in characters")
		cmd.Flags().IntVar(&overlapSize, "overlap-size", 0, "overlap between consecutive chunks in characters")
		cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "token budget per chunk (0 keeps the configured value)")
		cmd.Flags().BoolVar(&forceReingest, "force", false, "reprocess files even if already indexed")
		cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "reprocess known files when the source is newer")
		cmd.Flags().IntVar(&ingestWorkers, "workers", 0, "worker pool size for batch ingestion")
	}
	ingestDirCmd.Flags().BoolVarP(&ingestRecurse, "recursive", "r", true, "descend into subdirectories")

	rootCmd.AddCommand(ingestFileCmd)
	rootCmd.AddCommand(ingestDirCmd)
}

// ingestionServiceFor returns the injected ingestion service, rebuilt
// with flag overrides when any ingest flag deviates from the defaults.
func ingestionServiceFor(cmd *cobra.Command) (driving.IngestionService, error) {
	cfg := baseIngestConfig
	changed := false

	flags := cmd.Flags()
	if flags.Changed("chunk-strategy") {
		strategy := domain.ChunkStrategy(chunkStrategy)
		if !strategy.Valid() {
			return nil, fmt.Errorf("unknown chunk strategy %q", chunkStrategy)
		}
		cfg.Chunk.Strategy = strategy
		cfg.Chunk.ForceStrategy = true
		changed = true
	}
	if flags.Changed("chunk-size") {
		cfg.Chunk.MaxChunkSize = chunkSize
		changed = true
	}
	if flags.Changed("min-chunk-size") {
		cfg.Chunk.MinChunkSize = minChunkSize
		changed = true
	}
	if flags.Changed("overlap-size") {
		cfg.Chunk.OverlapSize = overlapSize
		changed = true
	}
	if flags.Changed("max-tokens") {
		cfg.Chunk.MaxTokens = maxTokens
		changed = true
	}
	if flags.Changed("workers") {
		cfg.Workers = ingestWorkers
		changed = true
	}
	if forceReingest {
		// Force means reprocess regardless of stored state.
		cfg.Force = true
		changed = true
	}
	if updateExisting {
		cfg.UpdateExisting = true
		changed = true
	}

	if changed && ingestionFactory != nil {
		return ingestionFactory(cfg), nil
	}
	if ingestionService == nil {
		return nil, errors.New("ingestion service not configured")
	}
	return ingestionService, nil
}

func runIngestFile(cmd *cobra.Command, args []string) error {
	svc, err := ingestionServiceFor(cmd)
	if err != nil {
		return err
	}

	result, err := svc.IngestFile(context.Background(), args[0])
	if result != nil {
		printIngestResult(cmd, result)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func runIngestDir(cmd *cobra.Command, args []string) error {
	svc, err := ingestionServiceFor(cmd)
	if err != nil {
		return err
	}

	result, err := svc.IngestDirectory(context.Background(), args[0], ingestRecurse)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printIngestResult(cmd, result)
	return nil
}

// maxPrintedErrors caps how many per-file errors a batch summary shows.
const maxPrintedErrors = 5

func printIngestResult(cmd *cobra.Command, result *domain.IngestionResult) {
	cmd.Println(titleStyle.Render("Ingestion summary"))
	cmd.Printf("  Files:     %d\n", result.TotalFiles)
	cmd.Printf("  Processed: %d\n", result.ProcessedFiles)
	cmd.Printf("  Skipped:   %d\n", result.SkippedFiles)
	if result.FailedFiles > 0 {
		cmd.Printf("  Failed:    %s\n", errorStyle.Render(strconv.Itoa(result.FailedFiles)))
	} else {
		cmd.Printf("  Failed:    %d\n", result.FailedFiles)
	}
	cmd.Printf("  Chunks:    %d\n", result.TotalChunks)

	for i, msg := range result.Errors {
		if i == maxPrintedErrors {
			cmd.Println(mutedStyle.Render(
				fmt.Sprintf("  ... and %d more errors", len(result.Errors)-maxPrintedErrors)))
			break
		}
		cmd.Println(errorStyle.Render("  error: " + msg))
	}
}
