package transcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"ordervox/internal/logging"
)

// load reads the snapshot from disk into memory. Expired entries are
// dropped during load.
func (c *Cache) load() error {
	data, err := os.ReadFile(c.opts.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read cache snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache snapshot: %w", err)
	}

	now := c.now()
	c.mu.Lock()
	// Oldest first so LRU order matches creation order after load.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	for _, entry := range entries {
		if entry.Key == "" || entry.expired(now) {
			continue
		}
		c.storeLocked(entry)
	}
	loaded := len(c.entries)
	c.mu.Unlock()

	c.logger.Debug("loaded cache snapshot",
		logging.Int("entry_count", loaded),
		logging.String("path", c.opts.Path))
	return nil
}

// save writes the snapshot to disk atomically via temp-file rename.
// Writers are serialized; only the entry copy holds the cache lock.
func (c *Cache) save() error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	entries := make([]Entry, 0, len(c.entries))
	for _, elem := range c.entries {
		entries = append(entries, elem.Value.(Entry))
	}
	c.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.opts.Path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := c.opts.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.opts.Path); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
