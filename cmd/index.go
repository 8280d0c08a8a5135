package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lecturedoc/internal/progress"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the semantic search index",
	Long:  `Embeds every lecture section with the configured search provider. The index is rebuilt only when the catalog changed, unless --force is given.`,
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().Bool("force", false, "rebuild even if the index is current")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Search.Enabled() {
		return fmt.Errorf("search is disabled: set search.provider in %s", cfgFile)
	}

	v, database, err := loadViewer(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ix, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}

	snap := v.Snapshot()
	rep := progress.NewReporter("Indexing")
	if force, _ := cmd.Flags().GetBool("force"); force {
		err = ix.Rebuild(ctx, v.Catalog(), snap.Fingerprint, rep)
	} else {
		var rebuilt bool
		rebuilt, err = ix.Sync(ctx, v.Catalog(), snap.Fingerprint, rep)
		if err == nil && !rebuilt {
			fmt.Println("Search index is up to date.")
			return nil
		}
	}
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	st := ix.State()
	fmt.Printf("Indexed %d section(s) with %s into %s\n", st.Documents, st.Model, cfg.Search.IndexDir)
	return nil
}
