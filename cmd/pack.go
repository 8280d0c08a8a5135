package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lecturedoc/internal/catalog"
	"github.com/ziadkadry99/lecturedoc/internal/lzstring"
)

var packCmd = &cobra.Command{
	Use:   "pack [catalog.json]",
	Short: "Compress a catalog document for publishing",
	Long: `Checks that a JSON document has the {lecture: {section: markdown}} shape
and compresses it with LZ-String into the URI-safe form the lz-uri encoding
expects.`,
	Args: cobra.ExactArgs(1),
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")
	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	cat, err := catalog.Parse(data, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	packed := lzstring.CompressToEncodedURIComponent(string(data))

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		fmt.Println(packed)
		return nil
	}
	if err := os.WriteFile(out, []byte(packed), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Packed %d lecture(s): %d bytes -> %d bytes (%s)\n", cat.Len(), len(data), len(packed), out)
	return nil
}
