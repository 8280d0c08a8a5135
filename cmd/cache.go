package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local page cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cached pages and the stored catalog snapshot",
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached page",
	RunE:  runCacheClear,
}

func init() {
	cacheStatusCmd.Flags().Bool("json", false, "output as JSON")
	cacheCmd.AddCommand(cacheStatusCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, store, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	st, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	fmt.Printf("Cache: %s\n", cfg.CachePath)
	if st.FetchedAt == nil {
		fmt.Println("Snapshot: none")
	} else {
		fmt.Printf("Snapshot: %d lecture(s), fingerprint %s, fetched %s\n",
			st.Lectures, shortFingerprint(st.Fingerprint), st.FetchedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Printf("Pages: %d (%d bytes)\n", st.Pages, st.Bytes)
	for _, p := range st.PageList {
		stale := ""
		if p.Fingerprint != st.Fingerprint {
			stale = " (stale)"
		}
		fmt.Printf("  %-12s %8d bytes  %s%s\n", p.LectureID, p.Bytes, p.RenderedAt.Local().Format("2006-01-02 15:04"), stale)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, store, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	n, err := store.Clear(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Cleared %d cached page(s).\n", n)
	return nil
}
