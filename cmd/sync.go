package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lecturedoc/internal/progress"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the catalog and render every lecture into the cache",
	Long:  `Fetches the published catalog and renders any lecture whose cached page is missing or out of date, so the viewer works offline afterwards.`,
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	v, database, err := loadViewer(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	cat := v.Catalog()
	rep := progress.NewReporter("Rendering")
	rep.Start(cat.Len())
	rendered, cached := 0, 0
	for i, l := range cat.Lectures {
		res, err := v.Select(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("rendering lecture %s: %w", l.ID, err)
		}
		if res.FromCache {
			cached++
		} else {
			rendered++
		}
		rep.Update(i+1, l.Name)
	}
	rep.Finish()

	fmt.Printf("%d lecture(s): %d rendered, %d already cached (catalog %s)\n",
		cat.Len(), rendered, cached, shortFingerprint(v.Snapshot().Fingerprint))
	return nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
