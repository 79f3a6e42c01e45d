package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"schemac/internal/diagfmt"
	"schemac/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.yaml|file.json ...]",
	Short: "Report declaration and layout errors without printing layouts",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif)")
	checkCmd.Flags().Bool("with-notes", true, "include diagnostic notes in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	format = strings.ToLower(format)
	switch format {
	case "pretty", "json", "sarif":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, json or sarif)", format)
	}

	res, timer, err := s.compile(cmd.Context(), args)
	if err != nil {
		return err
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = diagfmt.JSON(out, res.Bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			Max:              s.maxDiagnostics,
			IncludeNotes:     withNotes,
		})
	case "sarif":
		err = diagfmt.Sarif(out, res.Bag, res.FileSet, diagfmt.SarifRunMeta{
			ToolName:       "schemac",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		})
	default:
		diagfmt.Pretty(out, res.Bag, res.FileSet, diagfmt.PrettyOpts{
			Color:     s.color,
			PathMode:  pathMode,
			ShowNotes: withNotes,
			Max:       s.maxDiagnostics,
		})
		diagfmt.Summary(out, res.Bag, s.color)
	}
	if err != nil {
		return fmt.Errorf("failed to write diagnostics: %w", err)
	}

	s.printTimings(cmd, timer)
	if res.Bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}
