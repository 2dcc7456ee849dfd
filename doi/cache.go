package doi

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// cacheVersion separates cache layouts so a format change never reads
// stale files.
const cacheVersion = "v1"

// DefaultCacheTTL is how long a cached response stays valid.
const DefaultCacheTTL = 24 * time.Hour

// Cache stores successful lookup responses on disk, one file per request
// URL. Files are replaced atomically, so a reader never sees a partial
// write from a concurrent lookup of the same URL.
type Cache struct {
	Dir string
	TTL time.Duration
}

// cacheEntry wraps a cached response body with the URL it answers.
type cacheEntry struct {
	URL      string          `json:"url"`
	CachedAt time.Time       `json:"cached_at"`
	Data     json.RawMessage `json:"data"`
}

// NewCache creates the versioned cache directory under root.
func NewCache(root string, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	dir := filepath.Join(root, cacheVersion)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &Cache{Dir: dir, TTL: ttl}, nil
}

func (c *Cache) path(url string) string {
	hash := md5.Sum([]byte(url))
	return filepath.Join(c.Dir, hex.EncodeToString(hash[:])+".json")
}

// Get returns the cached body for url. Expired files are removed.
func (c *Cache) Get(url string) ([]byte, bool) {
	cachePath := c.path(url)

	info, err := os.Stat(cachePath)
	if err != nil {
		return nil, false
	}

	if time.Since(info.ModTime()) > c.TTL {
		os.Remove(cachePath)
		slog.Debug("cache entry expired", "url", url)
		return nil, false
	}

	fileData, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(fileData, &entry); err != nil || entry.URL != url {
		return nil, false
	}
	return entry.Data, true
}

// Put stores body as the response for url.
func (c *Cache) Put(url string, body []byte) error {
	entry := cacheEntry{
		URL:      url,
		CachedAt: time.Now().UTC(),
		Data:     body,
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.Dir, "put-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return os.Rename(tmp.Name(), c.path(url))
}

// Clear removes every cached response.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".json") {
			if err := os.Remove(filepath.Join(c.Dir, entry.Name())); err != nil {
				return fmt.Errorf("removing %s: %w", entry.Name(), err)
			}
		}
	}
	return nil
}
