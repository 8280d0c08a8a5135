package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lecturedoc/internal/progress"
	"github.com/ziadkadry99/lecturedoc/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local lecture viewer",
	Long: `Serves the lecture viewer over HTTP. Pages are rendered on first view and
cached until the published catalog changes. With --poll the source is
checked periodically and open browsers reload when it changes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (defaults to server.port)")
	serveCmd.Flags().Duration("poll", 0, "interval between source checks (defaults to server.poll_seconds)")
	serveCmd.Flags().Bool("dev", false, "allow all CORS origins")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v, database, err := openViewer(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	// A failed first load is not fatal: the server retries on each request.
	if err := v.Load(ctx); err != nil {
		logger.Warn("catalog not loaded yet", "error", err)
	}

	var index server.Index
	ix, err := openIndex(ctx, cfg)
	if err != nil {
		logger.Warn("search unavailable", "error", err)
	} else if ix != nil {
		if snap := v.Snapshot(); snap != nil {
			if _, err := ix.Sync(ctx, v.Catalog(), snap.Fingerprint, progress.NewReporter("Indexing")); err != nil {
				logger.Warn("search index update failed", "error", err)
			}
		}
		index = ix
	}

	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = cfg.Server.Port
	}
	poll, _ := cmd.Flags().GetDuration("poll")
	if poll == 0 {
		poll = cfg.Server.PollInterval()
	}
	dev, _ := cmd.Flags().GetBool("dev")

	srv := server.New(server.Config{
		Port:         port,
		AllowAll:     dev || cfg.Server.AllowAllOrigins,
		PollInterval: poll,
	}, v, index, logger)

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "lecturedoc %s viewing at http://localhost:%d\n", Version, port)
	fmt.Fprintf(os.Stderr, "  Source: %s\n", cfg.Source.URL)
	fmt.Fprintf(os.Stderr, "  Cache: %s\n", cfg.CachePath)
	return srv.Start()
}
