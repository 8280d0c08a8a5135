package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lecturedoc/internal/catalog"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the lectures in the catalog",
	RunE:  runList,
}

func init() {
	listCmd.Flags().Bool("sections", false, "list section headings under each lecture")
	rootCmd.AddCommand(listCmd)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

func runList(cmd *cobra.Command, args []string) error {
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

	withSections, _ := cmd.Flags().GetBool("sections")
	fmt.Println(lectureTable(v.Catalog(), withSections))
	if v.Offline() {
		fmt.Println(faintStyle.Render("offline: showing the cached catalog"))
	}
	return nil
}

// lectureTable renders the catalog as a bordered table.
func lectureTable(cat *catalog.Catalog, withSections bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("ID", "LECTURE", "SECTIONS")

	for _, l := range cat.Lectures {
		t.Row(l.ID, l.Name, strconv.Itoa(len(l.Sections)))
		if !withSections {
			continue
		}
		for i, s := range l.Sections {
			t.Row("", faintStyle.Render(fmt.Sprintf("%d. %s", i+1, s.Heading())), "")
		}
	}
	return t.String()
}
