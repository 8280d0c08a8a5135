package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lecturedoc/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Semantically search the lecture notes",
	Long:  `Searches the index built by "lecturedoc index" and prints the best matching sections.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 8, "maximum number of results")
	searchCmd.Flags().String("lecture", "", "restrict results to one lecture id")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ix, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	if ix == nil {
		return fmt.Errorf("search is disabled: set search.provider in %s", cfgFile)
	}
	if ix.State().Documents == 0 {
		fmt.Println("Search index is empty. Run `lecturedoc index` first.")
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	lectureID, _ := cmd.Flags().GetString("lecture")
	hits, err := ix.Search(ctx, args[0], limit, lectureID)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if hits == nil {
			hits = []search.Hit{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}
	fmt.Print(search.FormatHits(hits))
	return nil
}
