package topic

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdok/comparea/mapslicehelp"
	"github.com/rs/zerolog/log"
)

var cacheFileReplacer = strings.NewReplacer(" ", "_", "/", "_")

// Cache keeps topic JSON as one file per title in a directory.
type Cache struct {
	dir string
}

func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Path returns the file the topic for title is cached in.
func (c *Cache) Path(title string) string {
	return filepath.Join(c.dir, cacheFileReplacer.Replace(title)+".json")
}

// Get returns the cached topic for title. Cached error responses count as a miss.
func (c *Cache) Get(title string) (*Topic, bool, error) {
	p := c.Path(title)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	var t Topic
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, false, fmt.Errorf("unable to decode json for %s, %s: %w", title, p, err)
	}
	if t.Error != nil {
		return nil, false, nil
	}
	log.Debug().Str("title", title).Msg("loaded topic from cache")
	return &t, true, nil
}

// Put stores the raw topic JSON for title.
func (c *Cache) Put(title string, data []byte) error {
	return os.WriteFile(c.Path(title), data, 0o644)
}

// Prune removes all properties but keep from every cached topic, which makes them
// faster to parse. Files without properties (error responses) are left alone.
// It returns the number of files rewritten.
func (c *Cache) Prune(keep []string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return 0, err
	}
	keepPaths := mapslicehelp.AsKeys(keep)
	pruned := 0
	for _, p := range paths {
		changed, err := pruneFile(p, keepPaths)
		if err != nil {
			return pruned, fmt.Errorf("%s: %w", p, err)
		}
		if changed {
			pruned++
		}
	}
	log.Info().Int("files", len(paths)).Int("pruned", pruned).Str("dir", c.dir).Msg("pruned topic cache")
	return pruned, nil
}

func pruneFile(p string, keep map[string]any) (bool, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return false, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, err
	}
	props, ok := doc["property"].(map[string]interface{})
	if !ok {
		return false, nil
	}
	for k := range props {
		if _, ok := keep[k]; !ok {
			delete(props, k)
		}
	}
	// map keys are written sorted
	pruned, err := json.MarshalIndent(doc, "", " ")
	if err != nil {
		return false, err
	}
	return true, os.WriteFile(p, pruned, 0o644)
}
