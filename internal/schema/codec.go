package schema

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion is written in front of every encoded node set; bump it when
// Node changes shape.
const FormatVersion uint16 = 1

// ErrFormatVersion is returned when decoding data written by another format
// version.
var ErrFormatVersion = errors.New("schema: unsupported format version")

type envelope struct {
	Version uint16 `msgpack:"v"`
	Nodes   []Node `msgpack:"n"`
}

// Encode writes nodes in the binary schema format.
func Encode(w io.Writer, nodes []Node) error {
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	if err := enc.Encode(&envelope{Version: FormatVersion, Nodes: nodes}); err != nil {
		return fmt.Errorf("schema: encode: %w", err)
	}
	return nil
}

// Decode reads nodes written by Encode.
func Decode(r io.Reader) ([]Node, error) {
	var env envelope
	if err := msgpack.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("schema: decode: %w", err)
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrFormatVersion, env.Version)
	}
	return env.Nodes, nil
}
