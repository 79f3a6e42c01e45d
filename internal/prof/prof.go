// Package prof wires the runtime profilers to CLI flags.
package prof

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"go.uber.org/multierr"
)

// Options names the files to write; empty paths disable that profile.
type Options struct {
	CPU   string
	Mem   string
	Trace string
}

// Session is a running set of profiles. Stop must be called exactly once.
type Session struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
}

// Start begins CPU profiling and tracing as requested. The heap profile is
// captured at Stop. On error nothing is left running.
func Start(opts Options) (*Session, error) {
	s := &Session{}
	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		s.cpuFile = f
	}
	if opts.Trace != "" {
		f, err := os.Create(opts.Trace)
		if err != nil {
			return nil, multierr.Combine(err, s.Stop())
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			return nil, multierr.Combine(fmt.Errorf("trace: %w", err), s.Stop())
		}
		s.traceFile = f
	}
	s.opts = opts
	return s, nil
}

// Stop ends active profiles, writes the heap profile and closes every file.
// A nil Session is a no-op.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	var err error
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		err = multierr.Append(err, s.cpuFile.Close())
		s.cpuFile = nil
	}
	if s.traceFile != nil {
		trace.Stop()
		err = multierr.Append(err, s.traceFile.Close())
		s.traceFile = nil
	}
	if s.opts.Mem != "" {
		err = multierr.Append(err, writeMem(s.opts.Mem))
		s.opts.Mem = ""
	}
	return err
}

func writeMem(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
