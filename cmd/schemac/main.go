package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"schemac/internal/prof"
	"schemac/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "schemac",
	Short:         "Schema struct layout compiler",
	Long:          `schemac assigns wire offsets to the fields of schema structs declared in YAML or JSON documents`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errDiagnostics is returned by commands that already printed error
// diagnostics; main only has to set the exit code.
var errDiagnostics = errors.New("errors reported")

// profiling is started before any command runs and stopped by main, so it
// also covers commands that fail.
var profiling *prof.Session

func startProfiling(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = flags.GetString("cpuprofile"); err != nil {
		return err
	}
	if opts.Mem, err = flags.GetString("memprofile"); err != nil {
		return err
	}
	if opts.Trace, err = flags.GetString("trace"); err != nil {
		return err
	}
	profiling, err = prof.Start(opts)
	return err
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().Int("jobs", 0, "max parallel layout workers (0=auto)")
	rootCmd.PersistentFlags().String("log-level", "", "driver log level (debug|info|warn|error); empty disables logging")
	rootCmd.PersistentFlags().String("config", "", "path to schemac.toml (default: searched upwards from the working directory)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "do not read or write the on-disk layout cache")
	rootCmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("memprofile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("trace", "", "write a runtime trace to file")
	rootCmd.PersistentPreRunE = startProfiling
}

// main executes the root command. Any error exits with status 1.
func main() {
	err := rootCmd.Execute()
	if stopErr := profiling.Stop(); stopErr != nil {
		fmt.Fprintf(os.Stderr, "schemac: profiling: %v\n", stopErr)
	}
	if err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintf(os.Stderr, "schemac: %v\n", err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}
