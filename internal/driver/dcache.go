package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"starcheck/internal/check"
	"starcheck/internal/diag"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// Digest keys a cache entry: declaration content plus validator config.
type Digest [sha256.Size]byte

// CacheKey derives the cache digest for one declaration file under one
// validator configuration. A config change invalidates every entry.
func CacheKey(content []byte, cfg check.Config) Digest {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(cfg.Digest()))
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// DiskCache stores per-file validation results keyed by Digest on disk.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedDiagnostic is the serialisable form of one diagnostic.
type CachedDiagnostic struct {
	Severity uint8
	Code     uint16
	File     string
	Callable string
	Param    string
	Message  string
}

// DiskPayload stores a file's diagnostics for fast re-checking.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Path         string
	ConfigDigest string

	Diagnostics []CachedDiagnostic
	HadErrors   bool
}

// NewDiskPayload converts a checked bag into its cacheable form.
func NewDiskPayload(path string, cfg check.Config, bag *diag.Bag) *DiskPayload {
	payload := &DiskPayload{
		Schema:       diskCacheSchemaVersion,
		Path:         path,
		ConfigDigest: cfg.Digest(),
		HadErrors:    bag.HasErrors(),
	}
	items := bag.Items()
	payload.Diagnostics = make([]CachedDiagnostic, len(items))
	for i, d := range items {
		payload.Diagnostics[i] = CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			File:     d.Subject.File,
			Callable: d.Subject.Callable,
			Param:    d.Subject.Param,
			Message:  d.Message,
		}
	}
	return payload
}

// FillBag replays cached diagnostics into a bag.
func (p *DiskPayload) FillBag(bag *diag.Bag) {
	if p == nil || p.Schema != diskCacheSchemaVersion {
		return
	}
	for _, cd := range p.Diagnostics {
		bag.Add(diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Subject:  diag.Subject{File: cd.File, Callable: cd.Callable, Param: cd.Param},
			Message:  cd.Message,
		})
	}
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt initializes a disk cache rooted at an explicit directory.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// Subdirectory "decls" keeps the cache easy to inspect and clear.
	return filepath.Join(c.dir, "decls", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) error {
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
	defer func() { _ = os.Remove(f.Name()) }()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic replace
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = f.Close() }()

	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	if out.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
