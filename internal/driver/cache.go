package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"schemac/internal/schema"
)

// Current payload version - increment when DiskPayload changes.
const diskCacheSchemaVersion uint16 = 1

// Digest is a SHA-256 cache key.
type Digest [32]byte

// DiskCache stores compiled nodes keyed by the digest of everything their
// layout depends on. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is one cached node.
type DiskPayload struct {
	Schema uint16
	Format uint16 // schema.FormatVersion at write time
	Node   schema.Node
}

// OpenDiskCache opens the cache under $XDG_CACHE_HOME/app (or ~/.cache/app).
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt opens a cache rooted at dir, creating it if needed.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// NodeKey derives the cache key of one node: the combined digest of the
// document set, the declaring file and the node's qualified name.
func NodeKey(set Digest, file, qualified string) Digest {
	h := sha256.New()
	_, _ = h.Write(set[:])
	var ver [2]byte
	binary.LittleEndian.PutUint16(ver[:], schema.FormatVersion)
	_, _ = h.Write(ver[:])
	// NUL separates the parts: neither a path nor a name contains one.
	_, _ = h.Write([]byte(file))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(qualified))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Combine строит хеш набора документов: H(f1 || f2 || ...). The order of
// files must be deterministic.
func Combine(files ...[32]byte) Digest {
	h := sha256.New()
	for _, f := range files {
		_, _ = h.Write(f[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "nodes", hexKey[:2], hexKey+".mp")
}

// Put writes node under key, replacing the file atomically.
func (c *DiskCache) Put(key Digest, node *schema.Node) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			Logger().Warn("failed to remove temp cache file", zap.String("path", f.Name()), zap.Error(rmErr))
		}
	}()

	payload := DiskPayload{Schema: diskCacheSchemaVersion, Format: schema.FormatVersion, Node: *node}
	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads the node stored under key. Entries written by another payload
// or format version count as misses.
func (c *DiskCache) Get(key Digest) (*schema.Node, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload DiskPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != diskCacheSchemaVersion || payload.Format != schema.FormatVersion {
		return nil, false, nil
	}
	return &payload.Node, true, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
