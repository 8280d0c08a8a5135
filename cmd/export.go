package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lecturedoc/internal/progress"
	"github.com/ziadkadry99/lecturedoc/internal/site"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the lectures as a static HTML site",
	Long:  `Writes one HTML page per lecture, a stylesheet, an index page and a lectures.json manifest. Cached pages are reused.`,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("output", "", "override output directory (defaults to output_dir)")
	exportCmd.Flags().String("name", "", "site name shown in page titles")
	exportCmd.Flags().Bool("serve", false, "start a local HTTP server after exporting")
	exportCmd.Flags().Int("port", 8080, "port for the local server")
	exportCmd.Flags().Bool("open", false, "open browser automatically when serving")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output")
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	name, _ := cmd.Flags().GetString("name")

	v, database, err := loadViewer(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	res, err := site.NewGenerator(v, outputDir, name, progress.NewReporter("Exporting")).Generate(ctx)
	if err != nil {
		return fmt.Errorf("exporting site: %w", err)
	}
	fmt.Printf("Static site exported: %s (%d pages, %d from cache)\n", outputDir, res.Pages, res.Cached)

	if serve, _ := cmd.Flags().GetBool("serve"); serve {
		port, _ := cmd.Flags().GetInt("port")
		open, _ := cmd.Flags().GetBool("open")
		if err := site.Serve(outputDir, port, open, newLogger()); err != nil {
			return fmt.Errorf("serving site: %w", err)
		}
	}
	return nil
}
