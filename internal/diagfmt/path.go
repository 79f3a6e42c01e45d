package diagfmt

import (
	"path/filepath"

	"schemac/internal/source"
)

const unknownPath = "<unknown>"

// fileOf returns the file a span points into, or nil for spans that are not
// attached to a loaded file.
func fileOf(fs *source.FileSet, span source.Span) *source.File {
	if fs == nil || span.File == source.NoFile || int(span.File) >= fs.Len() {
		return nil
	}
	return fs.Get(span.File)
}

func displayPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	if f == nil {
		return unknownPath
	}
	switch mode {
	case PathModeAbsolute:
		if f.Flags&source.FileVirtual == 0 {
			if abs, err := filepath.Abs(f.Path); err == nil {
				return filepath.ToSlash(abs)
			}
		}
		return f.Path
	case PathModeRelative:
		if rel, err := filepath.Rel(fs.BaseDir(), f.Path); err == nil && filepath.IsAbs(f.Path) {
			return filepath.ToSlash(rel)
		}
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		return f.DisplayPath(fs.BaseDir())
	}
}
