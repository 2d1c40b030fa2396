package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// document is the on-disk shape of the state file.
type document struct {
	PostedIDs []string `json:"posted_ids"`
	LastRun   string   `json:"last_run,omitempty"`
}

// Store reads and writes the seen-set as a single JSON document.
//
// Saves go through a temp file in the same directory followed by a rename, so
// a crash mid-write leaves the previous state intact. The store assumes a
// single writer.
type Store struct {
	path   string
	maxIDs int
	logger *zap.Logger
}

// NewStore builds a Store. maxIDs caps how many identifiers are retained on
// save; zero or negative means unbounded.
func NewStore(path string, maxIDs int, logger *zap.Logger) *Store {
	return &Store{path: path, maxIDs: maxIDs, logger: logger}
}

// Load reads the seen-set. A missing file is the first run and yields an
// empty set; malformed content is treated the same way so one corrupt write
// can never wedge the bot.
func (s *Store) Load() (Seen, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Seen{}, nil
		}
		return nil, &StorageError{Path: s.path, Op: "read", Err: err}
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn("state file malformed, starting from empty set",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return Seen{}, nil
	}

	return NewSeen(doc.PostedIDs...), nil
}

// Save writes the full seen-set back, trimming to the newest maxIDs entries
// when the cap is exceeded.
func (s *Store) Save(seen Seen, lastRun time.Time) error {
	ids := seen.Sorted()
	if s.maxIDs > 0 && len(ids) > s.maxIDs {
		ids = ids[len(ids)-s.maxIDs:]
	}

	doc := document{
		PostedIDs: ids,
		LastRun:   lastRun.UTC().Format(time.RFC3339),
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &StorageError{Path: s.path, Op: "encode", Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &StorageError{Path: s.path, Op: "mkdir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".posted-*.json")
	if err != nil {
		return &StorageError{Path: s.path, Op: "create temp", Err: err}
	}
	tmpName := tmp.Name()

	if err := writeAndSync(tmp, raw); err != nil {
		_ = os.Remove(tmpName)
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return &StorageError{Path: s.path, Op: "rename", Err: err}
	}
	return nil
}

func writeAndSync(f *os.File, raw []byte) error {
	if _, err := f.Write(raw); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	return nil
}
