package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

var getContentMaxChunks int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

var supportedTypesCmd = &cobra.Command{
	Use:   "supported-types",
	Short: "List ingestible file extensions",
	Run:   runSupportedTypes,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [content-hash]",
	Short: "Delete a document by content hash",
	Long:  `Removes the document with the given SHA-256 content hash and all of its chunks.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var getContentCmd = &cobra.Command{
	Use:   "get-content [doc-id]",
	Short: "Print a document's stored chunks in order",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetContent,
}

func init() {
	getContentCmd.Flags().IntVar(&getContentMaxChunks, "max-chunks", 0, "limit printed chunks (0 means all)")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(supportedTypesCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(getContentCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	stats, err := ingestionService.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	cmd.Println(titleStyle.Render("Index statistics"))
	cmd.Println()

	cmd.Println("Documents by status:")
	for _, status := range sortedKeys(stats.DocumentsByStatus) {
		cmd.Printf("  %-12s %d\n", status, stats.DocumentsByStatus[domain.DocumentStatus(status)])
	}
	cmd.Println()

	cmd.Println("Documents by content type:")
	for _, ct := range sortedKeys(stats.DocumentsByContentType) {
		cmd.Printf("  %-16s %d\n", ct, stats.DocumentsByContentType[domain.ContentType(ct)])
	}
	cmd.Println()

	cmd.Printf("Total chunks: %d\n", stats.TotalChunks)
	return nil
}

// sortedKeys returns the map's keys as sorted strings for stable
// command output.
func sortedKeys[K ~string, V any](m map[K]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

func runSupportedTypes(cmd *cobra.Command, _ []string) {
	cmd.Println("Supported file extensions:")
	for _, ext := range domain.SupportedExtensions() {
		cmd.Printf("  %s\n", ext)
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	hash := args[0]
	deleted, err := ingestionService.Delete(context.Background(), hash)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	if !deleted {
		return fmt.Errorf("no document with content hash %s", hash)
	}

	cmd.Printf("Deleted document with hash %s\n", hash)
	return nil
}

func runGetContent(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	chunks, err := retrievalService.GetDocumentChunks(context.Background(), args[0], getContentMaxChunks)
	if err != nil {
		return fmt.Errorf("failed to get content: %w", err)
	}

	if len(chunks) == 0 {
		cmd.Println("No chunks stored for this document.")
		return nil
	}

	for _, chunk := range chunks {
		cmd.Println(mutedStyle.Render(fmt.Sprintf("--- chunk %d ---", chunk.ChunkIndex)))
		cmd.Println(chunk.Content)
	}
	return nil
}
