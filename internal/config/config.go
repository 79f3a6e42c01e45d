// Package config reads schemac.toml, the optional project file that sets
// defaults for the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the project file looked up from the working directory upwards.
const FileName = "schemac.toml"

// Config is the decoded project file. Zero values mean "use the CLI default".
type Config struct {
	// Root is the directory holding the project file; relative paths in the
	// file are resolved against it.
	Root string `toml:"-"`

	Schema struct {
		Include []string `toml:"include"`
	} `toml:"schema"`

	Output struct {
		Format string `toml:"format"`
		Out    string `toml:"out"`
	} `toml:"output"`

	Build struct {
		Jobs           int   `toml:"jobs"`
		MaxDiagnostics int   `toml:"max_diagnostics"`
		Cache          *bool `toml:"cache"`
	} `toml:"build"`

	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

var (
	// ErrUnknownKeys is returned when the file has keys this version does not
	// understand.
	ErrUnknownKeys = errors.New("unknown keys")
	// ErrBadFormat is returned for an [output].format other than pretty or json.
	ErrBadFormat = errors.New("invalid [output].format")
)

// Find walks up from startDir to locate schemac.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load parses the project file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: %w: %s", path, ErrUnknownKeys, strings.Join(keys, ", "))
	}
	if meta.IsDefined("output", "format") {
		switch strings.TrimSpace(cfg.Output.Format) {
		case "pretty", "json":
		default:
			return nil, fmt.Errorf("%s: %w %q", path, ErrBadFormat, cfg.Output.Format)
		}
	}
	if meta.IsDefined("build", "jobs") && cfg.Build.Jobs < 0 {
		return nil, fmt.Errorf("%s: [build].jobs must not be negative", path)
	}
	cfg.Root = filepath.Dir(path)
	return &cfg, nil
}

// Discover finds and loads the project file above startDir. ok is false when
// there is none.
func Discover(startDir string) (cfg *Config, ok bool, err error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err = Load(path)
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// Inputs expands [schema].include globs relative to Root, sorted and
// de-duplicated.
func (c *Config) Inputs() ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range c.Schema.Include {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(c.Root, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad [schema].include pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// CacheEnabled reports whether the on-disk layout cache should be used.
func (c *Config) CacheEnabled() bool {
	return c == nil || c.Build.Cache == nil || *c.Build.Cache
}
