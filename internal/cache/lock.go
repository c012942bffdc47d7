// Package cache implements haira.lock (component I's reproducibility
// record, spec §4.9/§6): a canonical TOML file mapping every AI-backed
// symbol to a content digest that pins its CIR bytes. Grounded on the
// teacher's module/loader.go create-temp-then-rename write pattern,
// using github.com/BurntSushi/toml for the on-disk format (sourced from
// the vovakirdan-surge and goadesign-goa-ai manifests in the retrieval
// pack, neither of which is this compiler's teacher).
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Entry pins one AI-backed symbol's cached CIR bytes (spec §3: "Lock
// Entry. Symbol name → 32-byte digest of the cached CIR bytes + model id
// + schema version").
type Entry struct {
	Digest     string  `toml:"digest"`
	Model      string  `toml:"model"`
	CIRVersion string  `toml:"cir_version"`
	Confidence float64 `toml:"confidence"`
}

// LockFile is haira.lock's in-memory form: `[ai_generated]` maps symbol
// name to Entry, `[version]` records the lock format's own version.
type LockFile struct {
	Version     string           `toml:"version"`
	AIGenerated map[string]Entry `toml:"ai_generated"`
}

func New() *LockFile {
	return &LockFile{Version: "1", AIGenerated: map[string]Entry{}}
}

// Digest computes the lock entry digest for a CIR payload: SHA-256 of
// the cached bytes concatenated with the model id and schema version,
// per spec §3. Filesystem timestamps are never part of the digest (open
// question #3, DESIGN.md).
func Digest(cirBytes []byte, model, cirVersion string) string {
	h := sha256.New()
	h.Write(cirBytes)
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(cirVersion))
	return hex.EncodeToString(h.Sum(nil))
}

func (l *LockFile) Set(symbol string, e Entry) {
	if l.AIGenerated == nil {
		l.AIGenerated = map[string]Entry{}
	}
	l.AIGenerated[symbol] = e
}

func (l *LockFile) Get(symbol string) (Entry, bool) {
	e, ok := l.AIGenerated[symbol]
	return e, ok
}

// Load reads and parses a haira.lock file. A missing file is not an
// error: callers get a fresh, empty LockFile (the first build in a repo
// has none yet).
func Load(path string) (*LockFile, error) {
	lf := New()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return lf, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := toml.Decode(string(data), lf); err != nil {
		return nil, fmt.Errorf("haira.lock is corrupt: %w", err)
	}
	return lf, nil
}

// Save writes the lock file canonically: sorted map keys (Go's toml
// encoder already walks map keys in sorted order) via a
// create-temp-then-rename so a concurrent reader never observes a
// half-written lock file (spec §5, teacher's loader.go pattern).
func (l *LockFile) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".haira-lock-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := toml.NewEncoder(tmp)
	if err := enc.Encode(l); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// SortedSymbols returns every locked symbol name in sorted order, for
// deterministic iteration (index.json listings, `inspect` output).
func (l *LockFile) SortedSymbols() []string {
	names := make([]string, 0, len(l.AIGenerated))
	for n := range l.AIGenerated {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
