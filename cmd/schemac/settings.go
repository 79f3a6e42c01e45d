package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schemac/internal/config"
	"schemac/internal/driver"
	"schemac/internal/observ"
)

// settings are the persistent flags merged over schemac.toml. Flags given on
// the command line always win.
type settings struct {
	cfg            *config.Config // nil without a project file
	color          bool
	timings        bool
	maxDiagnostics int
	jobs           int
	cache          bool
	logLevel       string
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Root().PersistentFlags()
	s := &settings{}

	colorMode, err := flags.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(colorMode) {
	case "auto":
		s.color = isTerminal(os.Stdout) && isTerminal(os.Stderr)
	case "on":
		s.color = true
	case "off":
		s.color = false
	default:
		return nil, fmt.Errorf("unsupported color mode %q (must be auto, on or off)", colorMode)
	}

	if s.timings, err = flags.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if s.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if s.jobs, err = flags.GetInt("jobs"); err != nil {
		return nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if s.logLevel, err = flags.GetString("log-level"); err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if configPath != "" {
		s.cfg, err = config.Load(configPath)
	} else {
		s.cfg, _, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}

	if cfg := s.cfg; cfg != nil {
		if !flags.Changed("max-diagnostics") && cfg.Build.MaxDiagnostics > 0 {
			s.maxDiagnostics = cfg.Build.MaxDiagnostics
		}
		if !flags.Changed("jobs") && cfg.Build.Jobs > 0 {
			s.jobs = cfg.Build.Jobs
		}
		if !flags.Changed("log-level") && cfg.Log.Level != "" {
			s.logLevel = cfg.Log.Level
		}
	}
	s.cache = !noCache && s.cfg.CacheEnabled()

	if err := installLogger(s.logLevel); err != nil {
		return nil, err
	}
	return s, nil
}

// installLogger hands the driver a development logger writing to stderr.
func installLogger(level string) error {
	if level == "" {
		driver.SetLogger(nil)
		return nil
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = lvl
	zcfg.OutputPaths = []string{"stderr"}
	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	driver.SetLogger(logger)
	return nil
}

// inputs returns args, or the project's [schema].include files without args.
func (s *settings) inputs(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if s.cfg == nil {
		return nil, fmt.Errorf("no input files: pass paths or add [schema].include to %s", config.FileName)
	}
	paths, err := s.cfg.Inputs()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("[schema].include in %s matches no files", config.FileName)
	}
	return paths, nil
}

func (s *settings) compile(ctx context.Context, args []string) (*driver.Result, *observ.Timer, error) {
	paths, err := s.inputs(args)
	if err != nil {
		return nil, nil, err
	}
	opts := driver.Options{
		MaxDiagnostics: s.maxDiagnostics,
		Jobs:           s.jobs,
	}
	if s.cfg != nil {
		opts.BaseDir = s.cfg.Root
	}
	var timer *observ.Timer
	if s.timings {
		timer = observ.NewTimer()
		opts.Timer = timer
	}
	if s.cache {
		cache, err := driver.OpenDiskCache("schemac")
		if err != nil {
			driver.Logger().Warn("disk cache unavailable", zap.Error(err))
		} else {
			opts.Cache = cache
		}
	}
	res, err := driver.Compile(ctx, paths, opts)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, timer, ctxErr
	}
	if err != nil {
		// Ошибки загрузки уже в диагностиках, продолжаем.
		driver.Logger().Debug("load errors", zap.Error(err))
	}
	return res, timer, nil
}

func (s *settings) printTimings(cmd *cobra.Command, timer *observ.Timer) {
	if timer == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
}
