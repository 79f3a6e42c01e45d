package version

import (
	"strings"
	"testing"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestVersion_CanBeOverridden(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = origVersion, origCommit })

	// как через -ldflags
	Version = "1.2.3"
	GitCommit = "abc123def456"

	info := Current()
	if info.Version != "1.2.3" || info.GitCommit != "abc123def456" {
		t.Errorf("Current() = %+v", info)
	}
}

func TestColored(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	tests := []struct {
		version string
		plain   string
	}{
		{"0.1.0", "0.1.0"},
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3-rc.1+build.123", "1.2.3-rc.1+build.123"},
		{"nightly", "nightly"},
	}
	for _, tt := range tests {
		Version = tt.version
		if got := Colored(false); got != tt.plain {
			t.Errorf("Colored(false) with %q = %q", tt.version, got)
		}
	}

	Version = "1.2.3-dev"
	got := Colored(true)
	if !strings.Contains(got, "\x1b[") || !strings.HasSuffix(got, "-dev") {
		t.Errorf("Colored(true) = %q, want ANSI codes and plain suffix", got)
	}
}
