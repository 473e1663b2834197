package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"studyrag/internal/usecase"
)

var (
	queryText    string
	querySubject string
	queryTopK    int
	queryJSON    bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Retrieve passages relevant to a question",
	Long: `Retrieve the indexed passages most similar to a question, best first.
Passages scoring below the configured threshold are left out.

Examples:
  studyrag query -q "what is photosynthesis"
  studyrag query -q "Newton's second law" --subject Physics --top-k 3 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "question to search for (required)")
	queryCmd.Flags().StringVarP(&querySubject, "subject", "s", "", "restrict results to one subject")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Engine.Retrieve(cmd.Context(), usecase.RetrieveRequest{
		Query:   queryText,
		Subject: querySubject,
		TopK:    queryTopK,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(result.Chunks) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %s\n\n", len(result.Chunks), result.Query)
	for i, c := range result.Chunks {
		fmt.Printf("--- [%d] %s #%d [%s] (score: %.4f) ---\n", i+1, c.Filename, c.ChunkIndex, c.Subject, c.Score)
		text := strings.TrimSpace(c.Text)
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}

	return nil
}
