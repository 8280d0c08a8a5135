package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lecturedoc/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize lecturedoc configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the catalog source, course names and search provider, and writes a .lecturedoc.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
