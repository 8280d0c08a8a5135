package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lecturedoc/internal/render"
)

var showCmd = &cobra.Command{
	Use:   "show [lecture-id]",
	Short: "Print a lecture in the terminal",
	Long:  `Prints a lecture rendered for the terminal. Without an id the first lecture is shown.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().Int("width", 80, "word wrap width")
	showCmd.Flags().Bool("raw", false, "print the markdown without styling")
	showCmd.Flags().Bool("html", false, "print the rendered HTML article")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	v, database, err := loadViewer(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading data")
		return err
	}
	defer database.Close()

	id, ok := v.Default()
	if len(args) == 1 {
		id, ok = args[0], true
	}
	if !ok {
		return fmt.Errorf("the catalog has no lectures")
	}

	if asHTML, _ := cmd.Flags().GetBool("html"); asHTML {
		res, err := v.Select(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(res.HTML)
		return nil
	}

	l, err := v.Lecture(id)
	if err != nil {
		return err
	}
	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		fmt.Print(render.TerminalMarkdown(l))
		return nil
	}
	width, _ := cmd.Flags().GetInt("width")
	return render.WriteTerminal(os.Stdout, l, width)
}
