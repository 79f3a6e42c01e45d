package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // ограничение для тестового корпуса
)

var builtinSeeds = []string{
	"",
	"declarations: []\n",
	"- struct: S\n  members:\n    - field: a\n      ordinal: 0\n      type: Bool\n",
	// объединение из двух групп
	`- struct: S
  members:
    - union: u
      members:
        - group: g1
          members:
            - {field: a, ordinal: 0, type: Bool}
            - {field: b, ordinal: 1, type: UInt64}
        - group: g2
          members:
            - {field: c, ordinal: 2, type: Bool}
            - {field: d, ordinal: 3, type: Text}
`,
	// ретроактивное объединение
	`- struct: S
  members:
    - {field: a, ordinal: 0, type: UInt16}
    - union: u
      ordinal: 2
      members:
        - {field: b, ordinal: 1, type: UInt32}
        - {field: c, ordinal: 3, type: Float64}
`,
	`{"declarations": [{"struct": "S", "members": [{"field": "x", "ordinal": 0, "type": "List(Int8)"}]}]}`,
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml", ".json":
		default:
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
