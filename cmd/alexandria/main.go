// Command alexandria is the document indexing and retrieval CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	configfile "github.com/alexandria-labs/alexandria-cli/internal/adapters/driven/config/file"
	"github.com/alexandria-labs/alexandria-cli/internal/adapters/driven/embedding/ollama"
	"github.com/alexandria-labs/alexandria-cli/internal/adapters/driven/embedding/openai"
	"github.com/alexandria-labs/alexandria-cli/internal/adapters/driven/storage/sqlite"
	"github.com/alexandria-labs/alexandria-cli/internal/adapters/driven/tokenizer"
	"github.com/alexandria-labs/alexandria-cli/internal/adapters/driving/cli"
	"github.com/alexandria-labs/alexandria-cli/internal/chunker"
	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driven"
	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driving"
	"github.com/alexandria-labs/alexandria-cli/internal/core/services"
	"github.com/alexandria-labs/alexandria-cli/internal/extractor"
	"github.com/alexandria-labs/alexandria-cli/internal/segmenter"
)

func main() {
	// .env is optional; set environment variables win over it.
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	store, err := sqlite.NewStore(config.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	embedder, err := buildEmbedder(config)
	if err != nil {
		return fmt.Errorf("configuring embedding provider: %w", err)
	}
	counter := buildTokenCounter(config)
	base := ingestConfigFrom(config)

	factory := func(cfg domain.IngestConfig) driving.IngestionService {
		return services.NewIngestionOrchestrator(
			store,
			embedder,
			extractor.New(),
			chunker.New(cfg.Chunk, counter),
			segmenter.New(cfg.Segment),
			cfg,
		)
	}
	cli.SetServices(factory, services.NewRetrievalEngine(store, embedder), base)

	return cli.Execute()
}

// buildEmbedder selects the embedding provider from configuration.
// Ollama is the default because it needs no credentials.
func buildEmbedder(config driven.ConfigStore) (driven.EmbeddingService, error) {
	switch config.GetString("embedding.provider") {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			apiKey = config.GetString("embedding.openai.api_key")
		}
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     apiKey,
			BaseURL:    config.GetString("embedding.openai.base_url"),
			Model:      config.GetString("embedding.openai.model"),
			Dimensions: config.GetInt("embedding.openai.dimensions"),
		})
	default:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    config.GetString("embedding.ollama.base_url"),
			Model:      config.GetString("embedding.ollama.model"),
			Dimensions: config.GetInt("embedding.ollama.dimensions"),
		}), nil
	}
}

// buildTokenCounter returns the exact API-backed counter when
// configured, otherwise the character-ratio estimator.
func buildTokenCounter(config driven.ConfigStore) driven.TokenCounter {
	if config.GetBool("tokenizer.use_api") {
		return tokenizer.NewHTTPCounter(tokenizer.Config{
			BaseURL: config.GetString("tokenizer.base_url"),
			Model:   config.GetString("tokenizer.model"),
		})
	}
	return tokenizer.NewEstimator(config.GetFloat("tokenizer.chars_per_token"))
}

// ingestConfigFrom layers persisted configuration over the defaults.
// Ints use zero-means-unset; bools go through Get to tell unset apart
// from false.
func ingestConfigFrom(config driven.ConfigStore) domain.IngestConfig {
	cfg := domain.DefaultIngestConfig()

	if s := domain.ChunkStrategy(config.GetString("chunking.strategy")); s.Valid() {
		cfg.Chunk.Strategy = s
	}
	if n := config.GetInt("chunking.max_chunk_size"); n > 0 {
		cfg.Chunk.MaxChunkSize = n
	}
	if n := config.GetInt("chunking.min_chunk_size"); n > 0 {
		cfg.Chunk.MinChunkSize = n
	}
	if n := config.GetInt("chunking.overlap_size"); n > 0 {
		cfg.Chunk.OverlapSize = n
	}
	if n := config.GetInt("chunking.max_tokens"); n > 0 {
		cfg.Chunk.MaxTokens = n
	}
	if v, ok := config.Get("chunking.respect_boundaries"); ok {
		if b, isBool := v.(bool); isBool {
			cfg.Chunk.RespectBoundaries = b
		}
	}
	if v, ok := config.Get("chunking.preserve_headers"); ok {
		if b, isBool := v.(bool); isBool {
			cfg.Chunk.PreserveHeaders = b
		}
	}
	if config.GetString("chunking.undersized_policy") == string(domain.EmitUndersized) {
		cfg.Chunk.Undersized = domain.EmitUndersized
	}

	if n := config.GetInt("ingestion.workers"); n > 0 {
		cfg.Workers = n
	}
	if v, ok := config.Get("ingestion.skip_existing"); ok {
		if b, isBool := v.(bool); isBool {
			cfg.SkipExisting = b
		}
	}
	if v, ok := config.Get("ingestion.update_existing"); ok {
		if b, isBool := v.(bool); isBool {
			cfg.UpdateExisting = b
		}
	}

	if n := config.GetInt("segmentation.max_segment_size"); n > 0 {
		cfg.Segment.MaxSegmentSize = int64(n)
	}
	if n := config.GetInt("segmentation.preferred_segment_size"); n > 0 {
		cfg.Segment.PreferredSegmentSize = int64(n)
	}
	if n := config.GetInt("segmentation.overlap_lines"); n > 0 {
		cfg.Segment.OverlapLines = n
	}
	if f := config.GetFloat("segmentation.line_length_factor"); f > 0 {
		cfg.Segment.LineLengthFactor = f
	}

	return cfg
}
