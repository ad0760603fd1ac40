package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

// Search flags.
var (
	searchMaxResults    int
	searchMetric        string
	searchMinSimilarity float64
	searchDocuments     []string
	searchTypes         []string
	searchDays          int
	searchContextSize   int
	bestMatchesTop      int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed content",
	Long: `Embeds the query and returns the stored chunks closest to it
under the chosen distance metric.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var searchDocsCmd = &cobra.Command{
	Use:   "search-docs [query]",
	Short: "Search within specific documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearchDocs,
}

var searchTypeCmd = &cobra.Command{
	Use:   "search-type [query]",
	Short: "Search documents of specific content types",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearchType,
}

var searchRecentCmd = &cobra.Command{
	Use:   "search-recent [query]",
	Short: "Search documents ingested recently",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearchRecent,
}

var findRelatedCmd = &cobra.Command{
	Use:   "find-related [chunk-id]",
	Short: "Find chunks similar to a stored chunk",
	Args:  cobra.ExactArgs(1),
	RunE:  runFindRelated,
}

var searchContextCmd = &cobra.Command{
	Use:   "search-context [query]",
	Short: "Search and include surrounding chunks",
	Long: `Like search, but each match is printed together with the chunks
immediately before and after it in the same document.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearchContext,
}

var bestMatchesCmd = &cobra.Command{
	Use:   "best-matches [query]",
	Short: "Show only the top N matches",
	Args:  cobra.ExactArgs(1),
	RunE:  runBestMatches,
}

func init() {
	for _, cmd := range []*cobra.Command{
		searchCmd, searchDocsCmd, searchTypeCmd, searchRecentCmd,
		findRelatedCmd, searchContextCmd,
	} {
		cmd.Flags().IntVarP(&searchMaxResults, "max-results", "n", 10, "maximum number of results")
	}
	searchCmd.Flags().StringVar(&searchMetric, "metric", "euclidean", "distance metric (euclidean, cosine)")
	searchCmd.Flags().Float64Var(&searchMinSimilarity, "min-similarity", 0, "drop matches scoring below this value")
	searchDocsCmd.Flags().StringSliceVar(&searchDocuments, "documents", nil, "document IDs to search within")
	searchTypeCmd.Flags().StringSliceVar(&searchTypes, "types", nil, "content types to search (e.g. markdown,code)")
	searchRecentCmd.Flags().IntVar(&searchDays, "days", 7, "how many days back to search")
	searchContextCmd.Flags().IntVar(&searchContextSize, "context-size", 2, "chunks of context on each side of a match")
	bestMatchesCmd.Flags().IntVar(&bestMatchesTop, "top", 5, "number of matches to return")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(searchDocsCmd)
	rootCmd.AddCommand(searchTypeCmd)
	rootCmd.AddCommand(searchRecentCmd)
	rootCmd.AddCommand(findRelatedCmd)
	rootCmd.AddCommand(searchContextCmd)
	rootCmd.AddCommand(bestMatchesCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	return executeSearch(cmd, domain.SearchQuery{
		QueryText:     args[0],
		MaxResults:    searchMaxResults,
		Metric:        domain.DistanceMetric(searchMetric),
		MinSimilarity: searchMinSimilarity,
	})
}

func runSearchDocs(cmd *cobra.Command, args []string) error {
	if len(searchDocuments) == 0 {
		return errors.New("--documents requires at least one document ID")
	}
	return executeSearch(cmd, domain.SearchQuery{
		QueryText:   args[0],
		MaxResults:  searchMaxResults,
		DocumentIDs: searchDocuments,
	})
}

func runSearchType(cmd *cobra.Command, args []string) error {
	if len(searchTypes) == 0 {
		return errors.New("--types requires at least one content type")
	}
	types := make([]domain.ContentType, 0, len(searchTypes))
	for _, t := range searchTypes {
		types = append(types, domain.ContentType(t))
	}
	return executeSearch(cmd, domain.SearchQuery{
		QueryText:    args[0],
		MaxResults:   searchMaxResults,
		ContentTypes: types,
	})
}

func runSearchRecent(cmd *cobra.Command, args []string) error {
	return executeSearch(cmd, domain.SearchQuery{
		QueryText:  args[0],
		MaxResults: searchMaxResults,
		After:      time.Now().AddDate(0, 0, -searchDays),
	})
}

func runFindRelated(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	matches, err := retrievalService.FindSimilar(context.Background(), args[0], searchMaxResults)
	if err != nil {
		return fmt.Errorf("find-related failed: %w", err)
	}

	printMatches(cmd, matches)
	return nil
}

func runSearchContext(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	query := domain.SearchQuery{QueryText: args[0], MaxResults: searchMaxResults}
	results, err := retrievalService.SearchWithContext(context.Background(), query, searchContextSize)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i, res := range results {
		cmd.Printf("%s %s\n",
			titleStyle.Render(fmt.Sprintf("[%d] %s", i+1, res.Match.Filename)),
			scoreStyle.Render(fmt.Sprintf("(%.4f)", res.Match.Similarity)))
		cmd.Println(mutedStyle.Render(fmt.Sprintf("    chunks %d-%d of %d",
			res.ContextStart, res.ContextStart+len(res.Context)-1, res.DocumentChunkTotal)))
		for _, chunk := range res.Context {
			marker := " "
			if chunk.ChunkIndex == res.Match.ChunkIndex {
				marker = ">"
			}
			cmd.Printf("  %s %s\n", marker, snippet(chunk.Content))
		}
		cmd.Println()
	}
	return nil
}

func runBestMatches(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	matches, err := retrievalService.BestMatches(context.Background(), args[0], bestMatchesTop)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printMatches(cmd, matches)
	return nil
}

// executeSearch runs a full query and renders the ranked matches plus
// timing metadata.
func executeSearch(cmd *cobra.Command, query domain.SearchQuery) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	result, err := retrievalService.Search(context.Background(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printMatches(cmd, result.Matches)
	if result.HasResults() {
		cmd.Println(mutedStyle.Render(fmt.Sprintf("%d matches in %s (embedding %s)",
			result.TotalMatches,
			result.SearchTime.Round(time.Millisecond),
			result.EmbeddingTime.Round(time.Millisecond))))
	}
	return nil
}

func printMatches(cmd *cobra.Command, matches []domain.DocumentMatch) {
	if len(matches) == 0 {
		cmd.Println("No results found.")
		return
	}

	for i, match := range matches {
		cmd.Printf("%s %s\n",
			titleStyle.Render(fmt.Sprintf("[%d] %s", i+1, match.Filename)),
			scoreStyle.Render(fmt.Sprintf("(%.4f)", match.Similarity)))
		cmd.Println(mutedStyle.Render(fmt.Sprintf("    %s  chunk %d  %s",
			match.Filepath, match.ChunkIndex, match.ContentType)))
		cmd.Printf("    %s\n\n", snippet(match.Content))
	}
}

// snippetLength bounds how much chunk content a result line shows.
const snippetLength = 200

func snippet(content string) string {
	flat := []rune(strings.Join(strings.Fields(content), " "))
	if len(flat) > snippetLength {
		return string(flat[:snippetLength]) + "..."
	}
	return string(flat)
}
