package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schemac/internal/diagfmt"
	"schemac/internal/schema"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <nodes.bin>",
	Short: "Print layouts stored in a binary file written by layout --out",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	nodes, err := schema.Decode(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	switch format {
	case "json":
		return diagfmt.LayoutJSON(cmd.OutOrStdout(), nodes)
	case "pretty":
		diagfmt.Layout(cmd.OutOrStdout(), nodes, diagfmt.LayoutOpts{Color: s.color, ShowOffsets: true, ShowIDs: true})
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}
