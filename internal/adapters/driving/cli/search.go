package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veldt-labs/datacore/internal/core/domain"
	"github.com/veldt-labs/datacore/internal/core/services"
)

var (
	searchTopK     int
	searchJSON     bool
	searchFilter   string
	searchNoRerank bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the index",
	Long: `Retrieves the passages most similar to the query, blending vector
similarity with lexical matching, and prints them with provenance.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVar(&searchFilter, "filter", "", "restrict to a category tag")
	searchCmd.Flags().BoolVar(&searchNoRerank, "no-rerank", false, "return raw vector order")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	searcher := app.searcher
	if searchNoRerank {
		searcher = services.NewSearchService(
			app.store.VectorStore(), app.store.ManifestStore(),
			app.embedder, services.NewIdentityReranker(),
		)
	}

	topK := searchTopK
	if topK <= 0 {
		topK = app.cfg.TopK
	}

	results, err := searcher.Search(cmd.Context(), args[0], domain.SearchOptions{
		TopK:           topK,
		CategoryFilter: searchFilter,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchText(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i, r := range results {
		cmd.Printf("[%d] %s (blended %.3f, vector %.3f, lexical %.3f)\n",
			i+1, r.SourcePath, r.BlendedScore, r.VectorScore, r.LexicalScore)
		if len(r.CategoryTags) > 0 {
			cmd.Printf("    tags: %v\n", r.CategoryTags)
		}
		for _, h := range r.Highlights {
			cmd.Printf("    %s\n", h)
		}
		cmd.Println()
	}
	return nil
}
