package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"schemac/internal/diagfmt"
	"schemac/internal/driver"
	"schemac/internal/schema"
)

var layoutCmd = &cobra.Command{
	Use:   "layout [flags] [file.yaml|file.json ...]",
	Short: "Compute and print struct layouts",
	Long: `Compute the wire layout of every struct and enum in the given documents
and print it. Without arguments the files listed in [schema].include of
schemac.toml are used.`,
	RunE: runLayout,
}

func init() {
	layoutCmd.Flags().String("format", "", "output format (pretty|json); default from schemac.toml or pretty")
	layoutCmd.Flags().StringP("out", "o", "", "also write the compiled nodes in binary form to this file")
	layoutCmd.Flags().Bool("ids", false, "show node IDs")
	layoutCmd.Flags().Bool("offsets", true, "show bit ranges of data fields")
}

func runLayout(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	showIDs, err := cmd.Flags().GetBool("ids")
	if err != nil {
		return fmt.Errorf("failed to get ids flag: %w", err)
	}
	showOffsets, err := cmd.Flags().GetBool("offsets")
	if err != nil {
		return fmt.Errorf("failed to get offsets flag: %w", err)
	}
	if cfg := s.cfg; cfg != nil {
		if format == "" {
			format = cfg.Output.Format
		}
		if outPath == "" && cfg.Output.Out != "" {
			outPath = cfg.Output.Out
			if !filepath.IsAbs(outPath) {
				outPath = filepath.Join(cfg.Root, outPath)
			}
		}
	}
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "":
		format = "pretty"
	case "pretty", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	res, timer, err := s.compile(cmd.Context(), args)
	if err != nil {
		return err
	}
	printDiagnostics(cmd.ErrOrStderr(), res, s)

	nodes := res.CompiledNodes()
	out := cmd.OutOrStdout()
	if format == "json" {
		if err := diagfmt.LayoutJSON(out, nodes); err != nil {
			return fmt.Errorf("failed to encode layout: %w", err)
		}
	} else {
		diagfmt.Layout(out, nodes, diagfmt.LayoutOpts{Color: s.color, ShowOffsets: showOffsets, ShowIDs: showIDs})
	}

	if outPath != "" {
		if res.Bag.HasErrors() {
			fmt.Fprintf(cmd.ErrOrStderr(), "not writing %s: layout has errors\n", outPath)
		} else if err := writeNodes(outPath, nodes); err != nil {
			return err
		}
	}

	s.printTimings(cmd, timer)
	if res.Bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}

func printDiagnostics(w io.Writer, res *driver.Result, s *settings) {
	diagfmt.Pretty(w, res.Bag, res.FileSet, diagfmt.PrettyOpts{
		Color:     s.color,
		PathMode:  diagfmt.PathModeAuto,
		ShowNotes: true,
		Max:       s.maxDiagnostics,
	})
	diagfmt.Summary(w, res.Bag, s.color)
}

func writeNodes(path string, nodes []schema.Node) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return schema.Encode(f, nodes)
}
