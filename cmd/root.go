package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lecturedoc",
	Short: "Browse published lecture notes locally",
	Long: `lecturedoc fetches a published catalog of lecture transcripts, renders each
lecture from markdown to HTML with math and code highlighting, and serves
them behind a navigable sidebar. Rendered pages are cached locally and
reused until the published catalog changes, so the notes stay readable
offline.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".lecturedoc.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger logs to stderr so stdout stays free for command output and the
// MCP protocol.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
